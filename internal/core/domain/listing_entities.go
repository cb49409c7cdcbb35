package domain

import "strings"

// Source - портал, с которого пришло объявление.
type Source string

const (
	SourceCireba    Source = "cireba"
	SourceEcayTrade Source = "ecaytrade"
	SourceUnknown   Source = "unknown"
)

// SourceFromURL определяет портал по хосту URL страницы поиска.
func SourceFromURL(url string) Source {
	switch {
	case strings.Contains(url, "cireba.com"):
		return SourceCireba
	case strings.Contains(url, "ecaytrade.com"):
		return SourceEcayTrade
	default:
		return SourceUnknown
	}
}

// ListingType - канонический тип объекта недвижимости.
type ListingType string

const (
	TypeHome       ListingType = "Home"
	TypeLand       ListingType = "Land"
	TypeCondo      ListingType = "Condo"
	TypeApartment  ListingType = "Apartment"
	TypeTownhouse  ListingType = "Townhouse"
	TypeCommercial ListingType = "Commercial"
	TypeMultiUnit  ListingType = "Multi Unit"
	TypeDuplex     ListingType = "Duplex"
	TypeTriplex    ListingType = "Triplex"
)

// RawListing - объявление в том виде, в котором его отдает парсер портала.
// Все числовые поля приходят строками, форматы у порталов разные.
// Отсутствующее поле - это типизированный nil, а не пропущенный ключ.
type RawListing struct {
	Name        string
	Price       string
	Currency    string
	Link        string
	ListingType string
	MLSNumber   *string
	Sqft        *string
	Beds        *string
	Baths       *string
	Acres       *string
	Location    *string
	ImageLink   *string
}

// NormalizedListing - каноническая форма объявления после нормализации.
// Цена всегда в USD, исходная валюта сохраняется только для отчетов.
type NormalizedListing struct {
	Name             string
	PriceUSD         float64
	Link             string
	ListingType      ListingType
	Source           Source
	SourceURL        string
	OriginalCurrency string
	OriginalPrice    string
	MLSNumber        *string
	Sqft             *int
	Beds             *int
	Baths            *int
	Acres            *float64
	Location         *string
	ImageLink        *string
}

// ReferenceListing - запись эталонного набора (MLS/CIREBA), загруженная из хранилища.
// Набор загружается целиком в начале прогона и не мутируется до его конца.
type ReferenceListing struct {
	ID       int64
	Name     string
	PriceUSD float64
	Link     string
	Source   Source
}

// MatchResult - результат проверки одного кандидата против эталонного набора.
// MatchedReference не nil тогда и только тогда, когда кандидат признан дубликатом.
type MatchResult struct {
	Candidate        NormalizedListing
	MatchedReference *ReferenceListing
	Similarity       float64
	Strategy         string
}

// IsDuplicate сообщает, был ли кандидат сопоставлен с эталонной записью.
func (m MatchResult) IsDuplicate() bool {
	return m.MatchedReference != nil
}

// ListingRow - строка в схеме целевой таблицы результатов.
type ListingRow struct {
	TargetURL   string
	MLSNumber   *string
	Name        string
	Sqft        *int
	Beds        *int
	Baths       *int
	Location    *string
	Currency    string
	Price       float64
	Link        string
	ImageLink   *string
	ListingType string
	Acres       *float64
}

// PartitionResult - итог одного прогона фильтрации: непересекающиеся списки
// новых объявлений и найденных дубликатов плюс подготовленные строки для записи.
type PartitionResult struct {
	New        []NormalizedListing
	Duplicates []MatchResult
	Rows       []ListingRow
	// SkippedBelowMinPrice - объявления, отброшенные порогом минимальной цены
	// еще до проверки на дубликаты.
	SkippedBelowMinPrice int
	InputCount           int
}
