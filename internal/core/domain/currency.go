package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// CIToUSDRate - курс конвертации CI$ -> US$.
// Исторический пег: 1 USD = 0.82 CI$, здесь он в обратную сторону.
// Значение должно быть одинаковым во всех местах конвертации,
// потому что округленная цена позже используется как ключ сопоставления.
const CIToUSDRate = 1.2195121951219512195121951219512

var (
	// ErrInvalidAmount - строка цены не парсится в число после удаления разделителей тысяч.
	ErrInvalidAmount = errors.New("invalid price amount")
	// ErrUnknownCurrency - валюта вне известного набора (CI$, KYD, US$, USD).
	ErrUnknownCurrency = errors.New("unknown currency")
)

// ConvertToUSD конвертирует строку цены в USD по фиксированному курсу.
// CI$ и KYD считаются каймановскими долларами, US$ и пустая валюта - уже USD.
// Ошибка не фатальна: вызывающий код трактует ее как цену 0.0 и продолжает прогон.
func ConvertToUSD(amount string, currency string) (float64, error) {
	value, err := parseAmount(amount)
	if err != nil {
		return 0, err
	}

	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "CI$", "KYD":
		return RoundPrice(value * CIToUSDRate), nil
	case "US$", "USD", "":
		return RoundPrice(value), nil
	default:
		return 0, ErrUnknownCurrency
	}
}

// RoundPrice округляет цену до 2 знаков (half-up).
// Цены неотрицательные, поэтому Floor(x+0.5) эквивалентен half-up.
func RoundPrice(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func parseAmount(amount string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return value, nil
}
