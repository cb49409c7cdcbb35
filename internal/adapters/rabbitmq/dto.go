package rabbitmq

import (
	"cireba-dedup-service/internal/core/domain"

	"github.com/google/uuid"
)

// ParsedListingsEventDTO - событие "парсер закончил страницу поиска".
// Структура зафиксирована схемой ParsedListingsEvent/1.0.0.
type ParsedListingsEventDTO struct {
	TaskID    uuid.UUID       `json:"task_id"`
	SourceURL string          `json:"source_url"`
	Listings  []RawListingDTO `json:"listings"`
}

// RawListingDTO - одно объявление в том виде, в каком его отдал парсер.
type RawListingDTO struct {
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

func toDomainRawListing(dto RawListingDTO) domain.RawListing {
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
