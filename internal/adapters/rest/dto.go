package rest

import "cireba-dedup-service/internal/core/domain"

// FilterRequestDTO - тело POST /api/v1/listings/filter.
// Формат объявления совпадает с событием из очереди парсеров.
type FilterRequestDTO struct {
	SourceURL string       `json:"source_url"`
	Listings  []ListingDTO `json:"listings"`
}

// ListingDTO - одно сырое объявление в запросе.
type ListingDTO struct {
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	Currency    string  `json:"currency"`
	Link        string  `json:"link"`
	ListingType *string `json:"listing_type"`
	MLSNumber   *string `json:"mls_number"`
	Sqft        *string `json:"sqft"`
	Beds        *string `json:"beds"`
	Baths       *string `json:"baths"`
	Acres       *string `json:"acres"`
	Location    *string `json:"location"`
	ImageLink   *string `json:"image_link"`
}

// FilterResponseDTO - итог синхронного прогона фильтрации.
type FilterResponseDTO struct {
	TaskID         string `json:"task_id"`
	InputCount     int    `json:"input_count"`
	NewCount       int    `json:"new_count"`
	DuplicateCount int    `json:"duplicate_count"`
	SkippedCount   int    `json:"skipped_count"`
}

// ReferenceStatsResponseDTO - ответ GET /api/v1/reference/stats.
type ReferenceStatsResponseDTO struct {
	Counts map[string]int64 `json:"counts"`
}

func toDomainRawListing(dto ListingDTO) domain.RawListing {
	listingType := ""
	if dto.ListingType != nil {
		listingType = *dto.ListingType
	}

	return domain.RawListing{
		Name:        dto.Name,
		Price:       dto.Price,
		Currency:    dto.Currency,
		Link:        dto.Link,
		ListingType: listingType,
		MLSNumber:   dto.MLSNumber,
		Sqft:        dto.Sqft,
		Beds:        dto.Beds,
		Baths:       dto.Baths,
		Acres:       dto.Acres,
		Location:    dto.Location,
		ImageLink:   dto.ImageLink,
	}
}
