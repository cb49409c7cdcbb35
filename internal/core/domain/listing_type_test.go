package domain

import "testing"

func TestNormalizeListingType(t *testing.T) {
	tests := []struct {
		raw  string
		want ListingType
	}{
		{"", TypeHome},
		{"   ", TypeHome},
		{"Residential Home", TypeHome},
		{"Land", TypeLand},
		{"Vacant Lot", TypeLand},
		{"Commercial Building", TypeCommercial},
		{"Multi Unit", TypeMultiUnit},
		{"multi-unit complex", TypeMultiUnit},
		{"Duplex", TypeDuplex},
		{"Triplex", TypeTriplex},
		{"Town House", TypeTownhouse},
		{"Condominium", TypeCondo},
		{"2BR Unit", TypeCondo},
		{"APARTMENT", TypeApartment},
	}

	for _, tt := range tests {
		if got := NormalizeListingType(tt.raw); got != tt.want {
			t.Errorf("NormalizeListingType(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

// Строка с несколькими ключевыми словами разрешается по приоритету правил,
// а не по позиции слова в тексте.
func TestNormalizeListingTypePriority(t *testing.T) {
	tests := []struct {
		raw  string
		want ListingType
	}{
		{"Land / Duplex", TypeLand},
		{"Duplex on large lot", TypeLand},
		{"Commercial unit", TypeCommercial},
		{"Townhouse condo", TypeTownhouse},
	}

	for _, tt := range tests {
		if got := NormalizeListingType(tt.raw); got != tt.want {
			t.Errorf("NormalizeListingType(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSourceFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want Source
	}{
		{"https://www.cireba.com/property-search", SourceCireba},
		{"https://ecaytrade.com/real-estate?page=2", SourceEcayTrade},
		{"https://example.com/listings", SourceUnknown},
		{"", SourceUnknown},
	}

	for _, tt := range tests {
		if got := SourceFromURL(tt.url); got != tt.want {
			t.Errorf("SourceFromURL(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}
