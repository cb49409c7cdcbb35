package domain

import "strings"

// typeKeywordRule - одна позиция в приоритетном списке ключевых слов.
type typeKeywordRule struct {
	keywords []string
	result   ListingType
}

// Порядок правил важен: строка, содержащая сразу несколько ключевых слов
// (например "Land / Duplex"), разрешается по первому правилу списка,
// а не по первому вхождению в тексте.
var typeKeywordRules = []typeKeywordRule{
	{keywords: []string{"land", "lot", "vacant"}, result: TypeLand},
	{keywords: []string{"commercial"}, result: TypeCommercial},
	{keywords: []string{"multi unit", "multi-unit"}, result: TypeMultiUnit},
	{keywords: []string{"duplex"}, result: TypeDuplex},
	{keywords: []string{"triplex"}, result: TypeTriplex},
	{keywords: []string{"townhouse", "town house"}, result: TypeTownhouse},
	{keywords: []string{"condo", "condominium", "unit"}, result: TypeCondo},
	{keywords: []string{"apartment"}, result: TypeApartment},
}

// NormalizeListingType приводит свободный текст типа объявления к каноническому enum.
// Пустая или нераспознанная строка дает тип Home по умолчанию.
func NormalizeListingType(raw string) ListingType {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return TypeHome
	}

	for _, rule := range typeKeywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.result
			}
		}
	}

	return TypeHome
}
