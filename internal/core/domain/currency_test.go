package domain

import (
	"errors"
	"testing"
)

func TestConvertToUSDCaymanDollars(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     float64
	}{
		{"100,000", "CI$", 121951.22},
		{"164,000", "CI$", 200000.00},
		{"250000", "KYD", 304878.05},
		{"0.82", "CI$", 1.00},
	}

	for _, tt := range tests {
		got, err := ConvertToUSD(tt.amount, tt.currency)
		if err != nil {
			t.Errorf("ConvertToUSD(%q, %q) returned error: %v", tt.amount, tt.currency, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ConvertToUSD(%q, %q) = %.2f; want %.2f", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestConvertToUSDPassthrough(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     float64
	}{
		{"330,000", "US$", 330000.00},
		{"1,234.567", "USD", 1234.57},
		{"99.994", "usd", 99.99},
		{"500000", "", 500000.00},
	}

	for _, tt := range tests {
		got, err := ConvertToUSD(tt.amount, tt.currency)
		if err != nil {
			t.Errorf("ConvertToUSD(%q, %q) returned error: %v", tt.amount, tt.currency, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ConvertToUSD(%q, %q) = %.2f; want %.2f", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestConvertToUSDInvalidAmount(t *testing.T) {
	for _, amount := range []string{"", "  ", "N/A", "Price on request", "12..3"} {
		_, err := ConvertToUSD(amount, "US$")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ConvertToUSD(%q, US$) error = %v; want ErrInvalidAmount", amount, err)
		}
	}
}

func TestConvertToUSDUnknownCurrency(t *testing.T) {
	for _, currency := range []string{"EUR", "GBP", "JMD"} {
		_, err := ConvertToUSD("100", currency)
		if !errors.Is(err, ErrUnknownCurrency) {
			t.Errorf("ConvertToUSD(100, %q) error = %v; want ErrUnknownCurrency", currency, err)
		}
	}
}

func TestRoundPriceHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{121951.21951219513, 121951.22},
		{199999.994, 199999.99},
		{1234.567, 1234.57},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundPrice(tt.in); got != tt.want {
			t.Errorf("RoundPrice(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
