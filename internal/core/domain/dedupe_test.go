package domain

import "testing"

func TestDeduplicateByLink(t *testing.T) {
	listings := []RawListing{
		{Name: "A", Link: "https://ecaytrade.com/ad/1"},
		{Name: "B", Link: "https://ecaytrade.com/ad/2"},
		{Name: "A copy", Link: "https://ecaytrade.com/ad/1"},
		{Name: "C", Link: ""},
		{Name: "D", Link: ""},
	}

	unique := DeduplicateByLink(listings)

	if len(unique) != 4 {
		t.Fatalf("expected 4 listings after link dedup, got %d", len(unique))
	}
	// Первое вхождение побеждает, порядок сохраняется.
	if unique[0].Name != "A" || unique[1].Name != "B" {
		t.Errorf("order not preserved: got %q, %q", unique[0].Name, unique[1].Name)
	}
	// Пустая ссылка не считается идентичностью.
	if unique[2].Name != "C" || unique[3].Name != "D" {
		t.Errorf("listings with empty link must all survive: got %q, %q", unique[2].Name, unique[3].Name)
	}
}

func TestDeduplicateByFields(t *testing.T) {
	listings := []RawListing{
		{Name: "Villa", Price: "500,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1"},
		{Name: "Villa", Price: "500,000", Currency: "US$", Link: "https://ecaytrade.com/ad/1?page=3"},
		{Name: "Villa", Price: "500,000", Currency: "CI$", Link: "https://ecaytrade.com/ad/2"},
		{Name: "Villa", Price: "450,000", Currency: "US$", Link: "https://ecaytrade.com/ad/3"},
	}

	unique := DeduplicateByFields(listings)

	if len(unique) != 3 {
		t.Fatalf("expected 3 listings after fields dedup, got %d", len(unique))
	}
	if unique[0].Link != "https://ecaytrade.com/ad/1" {
		t.Errorf("first occurrence must win, got link %q", unique[0].Link)
	}
}
