package usecase

import "cireba-dedup-service/internal/core/domain"

// PrepareRow превращает нормализованное объявление в строку целевой таблицы.
// Чистая функция без побочных эффектов. Для таблицы EcayTrade колонка
// mls_number не применима и опускается (includeMLSNumber = false).
func PrepareRow(listing domain.NormalizedListing, includeMLSNumber bool) domain.ListingRow {
	row := domain.ListingRow{
		TargetURL:   listing.SourceURL,
		Name:        listing.Name,
		Sqft:        listing.Sqft,
		Beds:        listing.Beds,
		Baths:       listing.Baths,
		Location:    listing.Location,
		Currency:    "US$", // всегда USD после нормализации
		Price:       listing.PriceUSD,
		Link:        listing.Link,
		ImageLink:   listing.ImageLink,
		ListingType: string(listing.ListingType),
		Acres:       listing.Acres,
	}

	if includeMLSNumber {
		row.MLSNumber = listing.MLSNumber
	}

	return row
}

// PrepareRows подготавливает строки для всего списка новых объявлений,
// сохраняя порядок.
func PrepareRows(listings []domain.NormalizedListing, includeMLSNumber bool) []domain.ListingRow {
	rows := make([]domain.ListingRow, 0, len(listings))
	for _, listing := range listings {
		rows = append(rows, PrepareRow(listing, includeMLSNumber))
	}
	return rows
}
