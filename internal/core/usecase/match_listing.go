package usecase

import (
	"context"
	"regexp"
	"strings"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Имена стратегий сопоставления. Выбор делается конфигурацией,
// стратегии намеренно не смешиваются: проверка по номеру MLS - более
// слабый сигнал (наличие любого MLS-подобного номера), чем сверка
// цены и названия с конкретной эталонной записью.
const (
	StrategyPriceName = "price_name"
	StrategyMLSPage   = "mls_page"
)

// MatchStrategy решает, является ли кандидат уже представленным объявлением.
type MatchStrategy interface {
	Name() string
	Match(ctx context.Context, candidate domain.NormalizedListing, references []domain.ReferenceListing) domain.MatchResult
}

// PriceNameMatchStrategy - двухступенчатая проверка: ценовой коридор,
// затем нечеткое сходство названий. Из всех эталонных записей, прошедших
// ценовой фильтр, выбирается лучшая по сходству (а не первая попавшаяся),
// чтобы результат не зависел от порядка загрузки кэша.
type PriceNameMatchStrategy struct {
	toleranceUSD        float64
	similarityThreshold float64
}

// NewPriceNameMatchStrategy создает стратегию с заданным ценовым допуском
// и порогом сходства названий (0-100).
func NewPriceNameMatchStrategy(toleranceUSD, similarityThreshold float64) *PriceNameMatchStrategy {
	return &PriceNameMatchStrategy{
		toleranceUSD:        toleranceUSD,
		similarityThreshold: similarityThreshold,
	}
}

func (s *PriceNameMatchStrategy) Name() string { return StrategyPriceName }

func (s *PriceNameMatchStrategy) Match(ctx context.Context, candidate domain.NormalizedListing, references []domain.ReferenceListing) domain.MatchResult {
	result := domain.MatchResult{Candidate: candidate, Strategy: s.Name()}

	var best *domain.ReferenceListing
	bestScore := 0.0

	for i := range references {
		ref := references[i]
		if !priceWithinTolerance(candidate.PriceUSD, ref.PriceUSD, s.toleranceUSD) {
			continue
		}

		score := fuzzyNameSimilarity(candidate.Name, ref.Name)
		if score < s.similarityThreshold {
			continue
		}

		// Детерминированный выбор: выше сходство, при равенстве - меньший ID.
		if best == nil || score > bestScore || (score == bestScore && ref.ID < best.ID) {
			best = &references[i]
			bestScore = score
		}
	}

	if best != nil {
		result.MatchedReference = best
		result.Similarity = bestScore
	}

	return result
}

// priceWithinTolerance - ценовой фильтр. Симметричен по аргументам.
func priceWithinTolerance(priceA, priceB, tolerance float64) bool {
	diff := priceA - priceB
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// fuzzyNameSimilarity считает нечеткое сходство названий (0-100)
// по нормализованному editdistance-ratio, как fuzz.ratio.
func fuzzyNameSimilarity(nameA, nameB string) float64 {
	if nameA == "" || nameB == "" {
		return 0.0
	}
	cleanA := strings.ToLower(strings.TrimSpace(nameA))
	cleanB := strings.ToLower(strings.TrimSpace(nameB))
	return float64(fuzzy.Ratio(cleanA, cleanB))
}

// mlsPattern распознает идентификатор MLS (6+ цифр) в тексте страницы:
// "MLS#: 417042", "MLS 417042", "Multiple Listing Service: 417042" и т.п.
var mlsPattern = regexp.MustCompile(`(?i)(?:MLS[#\s-]*:?\s*|Multiple\s+Listing\s+Service\s*[#:]?\s*)(\d{6,})`)

// MLSPageMatchStrategy загружает страницу самого кандидата и ищет на ней
// MLS-номер. Наличие любого такого номера трактуется как "объявление уже
// представлено в брокерском индексе" - без сверки с конкретной записью.
// Ошибка загрузки страницы - это "нет совпадения" (fail open), пачка
// из-за нее не прерывается.
type MLSPageMatchStrategy struct {
	fetcher port.DetailPageFetcherPort
}

// NewMLSPageMatchStrategy создает стратегию проверки по странице объявления.
func NewMLSPageMatchStrategy(fetcher port.DetailPageFetcherPort) *MLSPageMatchStrategy {
	return &MLSPageMatchStrategy{fetcher: fetcher}
}

func (s *MLSPageMatchStrategy) Name() string { return StrategyMLSPage }

func (s *MLSPageMatchStrategy) Match(ctx context.Context, candidate domain.NormalizedListing, references []domain.ReferenceListing) domain.MatchResult {
	logger := contextkeys.LoggerFromContext(ctx)
	result := domain.MatchResult{Candidate: candidate, Strategy: s.Name()}

	pageText, err := s.fetcher.FetchPageText(ctx, candidate.Link)
	if err != nil {
		logger.Warn("Detail page fetch failed, keeping candidate as new", port.Fields{
			"link":  candidate.Link,
			"error": err.Error(),
		})
		return result
	}

	match := mlsPattern.FindStringSubmatch(pageText)
	if match == nil {
		return result
	}

	mlsNumber := match[1]
	logger.Info("Found MLS number on detail page, listing is already represented", port.Fields{
		"link":       candidate.Link,
		"mls_number": mlsNumber,
	})

	// Конкретной эталонной записи нет: сигналом служит сам номер.
	result.MatchedReference = &domain.ReferenceListing{
		Name:     "MLS #" + mlsNumber,
		PriceUSD: candidate.PriceUSD,
		Link:     candidate.Link,
		Source:   domain.SourceCireba,
	}
	result.Similarity = 100.0

	return result
}
