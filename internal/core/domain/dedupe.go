package domain

// DeduplicateByLink убирает из пачки повторы с одинаковой ссылкой.
// Ссылка - это идентичность объявления внутри одного портала.
func DeduplicateByLink(listings []RawListing) []RawListing {
	seen := make(map[string]struct{}, len(listings))
	unique := make([]RawListing, 0, len(listings))

	for _, listing := range listings {
		if listing.Link != "" {
			if _, ok := seen[listing.Link]; ok {
				continue
			}
			seen[listing.Link] = struct{}{}
		}
		unique = append(unique, listing)
	}

	return unique
}

// DeduplicateByFields убирает повторы по тройке (name, price, currency).
// Нужен для порталов, где одно объявление встречается на нескольких страницах
// поиска с разными ссылками пагинации.
func DeduplicateByFields(listings []RawListing) []RawListing {
	type identity struct {
		name     string
		price    string
		currency string
	}

	seen := make(map[identity]struct{}, len(listings))
	unique := make([]RawListing, 0, len(listings))

	for _, listing := range listings {
		key := identity{name: listing.Name, price: listing.Price, currency: listing.Currency}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, listing)
	}

	return unique
}
