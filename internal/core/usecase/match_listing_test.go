package usecase

import (
	"context"
	"errors"
	"testing"

	"cireba-dedup-service/internal/core/domain"
)

func TestPriceNameMatchWithinTolerance(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)

	candidate := domain.NormalizedListing{Name: "Sandscape Residences #19", PriceUSD: 330000}
	references := []domain.ReferenceListing{
		{ID: 1, Name: "Sandscape Residences #19", PriceUSD: 330050},
	}

	result := strategy.Match(context.Background(), candidate, references)
	if !result.IsDuplicate() {
		t.Fatal("expected a duplicate: same name, price within tolerance")
	}
	if result.MatchedReference.ID != 1 {
		t.Errorf("MatchedReference.ID = %d; want 1", result.MatchedReference.ID)
	}
	if result.Similarity < 85 {
		t.Errorf("Similarity = %.1f; want >= 85", result.Similarity)
	}
	if result.Strategy != StrategyPriceName {
		t.Errorf("Strategy = %q; want %q", result.Strategy, StrategyPriceName)
	}
}

func TestPriceNameMatchPriceGate(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)
	candidate := domain.NormalizedListing{Name: "Sandscape Residences #19", PriceUSD: 330000}

	// Разница ровно в допуск проходит, на цент больше - нет.
	atEdge := []domain.ReferenceListing{{ID: 1, Name: "Sandscape Residences #19", PriceUSD: 330100}}
	if !strategy.Match(context.Background(), candidate, atEdge).IsDuplicate() {
		t.Error("price difference equal to tolerance must pass the gate")
	}

	beyondEdge := []domain.ReferenceListing{{ID: 1, Name: "Sandscape Residences #19", PriceUSD: 330100.01}}
	if strategy.Match(context.Background(), candidate, beyondEdge).IsDuplicate() {
		t.Error("price difference beyond tolerance must not match even with identical name")
	}

	cheaperRef := []domain.ReferenceListing{{ID: 1, Name: "Sandscape Residences #19", PriceUSD: 329950}}
	if !strategy.Match(context.Background(), candidate, cheaperRef).IsDuplicate() {
		t.Error("price gate must be symmetric")
	}
}

func TestPriceNameMatchNameGate(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)
	candidate := domain.NormalizedListing{Name: "Sandscape Residences #19", PriceUSD: 330000}

	references := []domain.ReferenceListing{
		{ID: 1, Name: "Rum Point Beachfront Parcel", PriceUSD: 330000},
	}

	if strategy.Match(context.Background(), candidate, references).IsDuplicate() {
		t.Error("unrelated name within the price corridor must not match")
	}
}

func TestPriceNameMatchPicksBestReference(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)
	candidate := domain.NormalizedListing{Name: "Ocean View Villa", PriceUSD: 500000}

	// Точное совпадение названия должно победить частичное, независимо от порядка.
	references := []domain.ReferenceListing{
		{ID: 7, Name: "Ocean View Villas", PriceUSD: 500000},
		{ID: 9, Name: "Ocean View Villa", PriceUSD: 500000},
	}

	result := strategy.Match(context.Background(), candidate, references)
	if !result.IsDuplicate() {
		t.Fatal("expected a duplicate")
	}
	if result.MatchedReference.ID != 9 {
		t.Errorf("MatchedReference.ID = %d; want 9 (highest similarity)", result.MatchedReference.ID)
	}
	if result.Similarity != 100 {
		t.Errorf("Similarity = %.1f; want 100", result.Similarity)
	}
}

func TestPriceNameMatchTieBreaksOnLowerID(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)
	candidate := domain.NormalizedListing{Name: "Ocean View Villa", PriceUSD: 500000}

	references := []domain.ReferenceListing{
		{ID: 12, Name: "Ocean View Villa", PriceUSD: 500000},
		{ID: 3, Name: "Ocean View Villa", PriceUSD: 500000},
	}

	result := strategy.Match(context.Background(), candidate, references)
	if !result.IsDuplicate() {
		t.Fatal("expected a duplicate")
	}
	if result.MatchedReference.ID != 3 {
		t.Errorf("MatchedReference.ID = %d; want 3 (lower ID wins ties)", result.MatchedReference.ID)
	}
}

func TestPriceNameMatchEmptyNameNeverMatches(t *testing.T) {
	strategy := NewPriceNameMatchStrategy(100, 85)
	candidate := domain.NormalizedListing{Name: "", PriceUSD: 500000}

	references := []domain.ReferenceListing{{ID: 1, Name: "", PriceUSD: 500000}}
	if strategy.Match(context.Background(), candidate, references).IsDuplicate() {
		t.Error("empty names must not be treated as similar")
	}
}

func TestMLSPatternRecognition(t *testing.T) {
	tests := []struct {
		text    string
		wantHit bool
		wantNum string
	}{
		{"Listed with MLS#: 417042 by broker", true, "417042"},
		{"MLS 417042", true, "417042"},
		{"mls# 417042", true, "417042"},
		{"MLS - 417042", true, "417042"},
		{"Multiple Listing Service: 417042", true, "417042"},
		{"Multiple Listing Service # 417042", true, "417042"},
		{"MLS 12345", false, ""},
		{"No identifiers here", false, ""},
		{"Call 9491234567 for details", false, ""},
	}

	for _, tt := range tests {
		match := mlsPattern.FindStringSubmatch(tt.text)
		if tt.wantHit != (match != nil) {
			t.Errorf("mlsPattern on %q: hit = %v; want %v", tt.text, match != nil, tt.wantHit)
			continue
		}
		if tt.wantHit && match[1] != tt.wantNum {
			t.Errorf("mlsPattern on %q captured %q; want %q", tt.text, match[1], tt.wantNum)
		}
	}
}

type fakePageFetcher struct {
	pageText string
	err      error
}

func (f *fakePageFetcher) FetchPageText(ctx context.Context, link string) (string, error) {
	return f.pageText, f.err
}

func TestMLSPageMatchFindsNumber(t *testing.T) {
	fetcher := &fakePageFetcher{pageText: "<html>Beautiful condo. MLS#: 417042</html>"}
	strategy := NewMLSPageMatchStrategy(fetcher)

	candidate := domain.NormalizedListing{Name: "Beautiful condo", PriceUSD: 450000, Link: "https://ecaytrade.com/ad/5"}
	result := strategy.Match(context.Background(), candidate, nil)

	if !result.IsDuplicate() {
		t.Fatal("expected a duplicate when the page carries an MLS number")
	}
	if result.MatchedReference.Name != "MLS #417042" {
		t.Errorf("MatchedReference.Name = %q; want %q", result.MatchedReference.Name, "MLS #417042")
	}
	if result.Similarity != 100 {
		t.Errorf("Similarity = %.1f; want 100", result.Similarity)
	}
	if result.Strategy != StrategyMLSPage {
		t.Errorf("Strategy = %q; want %q", result.Strategy, StrategyMLSPage)
	}
}

func TestMLSPageMatchNoNumber(t *testing.T) {
	fetcher := &fakePageFetcher{pageText: "<html>For sale by owner, call us</html>"}
	strategy := NewMLSPageMatchStrategy(fetcher)

	candidate := domain.NormalizedListing{Name: "FSBO house", PriceUSD: 450000, Link: "https://ecaytrade.com/ad/6"}
	if strategy.Match(context.Background(), candidate, nil).IsDuplicate() {
		t.Error("page without an MLS number must not produce a duplicate")
	}
}

// Недоступность страницы не делает кандидата дубликатом.
func TestMLSPageMatchFailsOpen(t *testing.T) {
	fetcher := &fakePageFetcher{err: errors.New("connection refused")}
	strategy := NewMLSPageMatchStrategy(fetcher)

	candidate := domain.NormalizedListing{Name: "Unreachable", PriceUSD: 450000, Link: "https://ecaytrade.com/ad/7"}
	if strategy.Match(context.Background(), candidate, nil).IsDuplicate() {
		t.Error("fetch failure must keep the candidate as new")
	}
}
