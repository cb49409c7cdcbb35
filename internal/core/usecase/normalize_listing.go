package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
)

// NormalizeListingUseCase приводит сырое объявление к канонической форме:
// цена в USD, тип из фиксированного enum, источник по хосту URL.
// Нормализация best effort: несконвертировавшееся поле обнуляется,
// запись при этом продолжает жить.
type NormalizeListingUseCase struct {
	// MinPriceUSD - бизнес-порог: объявления строго дешевле отбрасываются.
	minPriceUSD float64
}

// NewNormalizeListingUseCase создает новый экземпляр use case.
func NewNormalizeListingUseCase(minPriceUSD float64) *NormalizeListingUseCase {
	return &NormalizeListingUseCase{minPriceUSD: minPriceUSD}
}

// Normalize возвращает нормализованное объявление и признак, прошло ли оно
// порог минимальной цены. Кандидат ровно на пороге сохраняется.
func (uc *NormalizeListingUseCase) Normalize(ctx context.Context, raw domain.RawListing, sourceURL string) (*domain.NormalizedListing, bool) {
	logger := contextkeys.LoggerFromContext(ctx)

	priceUSD, err := domain.ConvertToUSD(raw.Price, raw.Currency)
	if err != nil {
		// Некорректная цена - это ошибка поля, а не прогона.
		if errors.Is(err, domain.ErrInvalidAmount) || errors.Is(err, domain.ErrUnknownCurrency) {
			logger.Warn("Failed to convert listing price, treating as zero", port.Fields{
				"link":     raw.Link,
				"price":    raw.Price,
				"currency": raw.Currency,
				"reason":   err.Error(),
			})
		}
		priceUSD = 0.0
	}

	if priceUSD < uc.minPriceUSD {
		logger.Debug("Skipped listing below minimum price threshold", port.Fields{
			"name":      raw.Name,
			"price_usd": priceUSD,
			"threshold": uc.minPriceUSD,
		})
		return nil, false
	}

	normalized := &domain.NormalizedListing{
		Name:             raw.Name,
		PriceUSD:         priceUSD,
		Link:             raw.Link,
		ListingType:      domain.NormalizeListingType(raw.ListingType),
		Source:           domain.SourceFromURL(sourceURL),
		SourceURL:        sourceURL,
		OriginalCurrency: raw.Currency,
		OriginalPrice:    raw.Price,
		MLSNumber:        raw.MLSNumber,
		Sqft:             coerceInt(raw.Sqft),
		Beds:             coerceIntViaFloat(raw.Beds),
		Baths:            coerceIntViaFloat(raw.Baths),
		Acres:            coerceFloat(raw.Acres),
		Location:         raw.Location,
		ImageLink:        raw.ImageLink,
	}

	return normalized, true
}

// coerceInt парсит целое с разделителями тысяч; при ошибке возвращает nil.
func coerceInt(value *string) *int {
	if value == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(*value), ",", "")
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &parsed
}

// coerceIntViaFloat парсит целое через float: порталы отдают "3.0" спальни.
func coerceIntViaFloat(value *string) *int {
	if value == nil {
		return nil
	}
	cleaned := strings.TrimSpace(*value)
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	result := int(parsed)
	return &result
}

func coerceFloat(value *string) *float64 {
	if value == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(*value), ",", "")
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
