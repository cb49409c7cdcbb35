package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"

	"github.com/google/uuid"
)

// FilterListingsConfig - параметры прогона фильтрации.
type FilterListingsConfig struct {
	// IncludeMLSNumber - включать ли колонку mls_number в подготовленные строки
	// (для таблицы EcayTrade она опускается).
	IncludeMLSNumber bool
}

// FilterListingsUseCase - основной use case: разбивает пачку кандидатов
// на новые объявления и дубликаты, отправляет отчет о дубликатах и
// записывает подготовленные строки в хранилище.
type FilterListingsUseCase struct {
	cache      port.ReferenceCachePort
	strategy   MatchStrategy
	normalizer *NormalizeListingUseCase
	storage    port.ListingStoragePort
	notifier   port.DuplicateNotifierPort
	reporter   port.RunReporterPort
	config     FilterListingsConfig
}

// NewFilterListingsUseCase создает новый экземпляр use case.
func NewFilterListingsUseCase(
	cache port.ReferenceCachePort,
	strategy MatchStrategy,
	normalizer *NormalizeListingUseCase,
	storage port.ListingStoragePort,
	notifier port.DuplicateNotifierPort,
	reporter port.RunReporterPort,
	config FilterListingsConfig,
) *FilterListingsUseCase {
	return &FilterListingsUseCase{
		cache:      cache,
		strategy:   strategy,
		normalizer: normalizer,
		storage:    storage,
		notifier:   notifier,
		reporter:   reporter,
		config:     config,
	}
}

// Execute выполняет один прогон целиком.
// Фазы: загрузка эталонного кэша (фатально при ошибке) -> нормализация и
// разбиение -> отчет о дубликатах (не фатально) -> запись строк ->
// публикация итогов (не фатально).
func (uc *FilterListingsUseCase) Execute(ctx context.Context, batches map[string][]domain.RawListing, taskID uuid.UUID) (*domain.PartitionResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "FilterListings",
		"strategy": uc.strategy.Name(),
		"task_id":  taskID.String(),
	})

	ucLogger.Info("Use case started: loading reference listings cache", nil)

	// Фаза 1. Кэш загружается целиком или прогон не выполняется вовсе:
	// с частичным кэшем каждый кандидат выглядел бы новым.
	references, err := uc.cache.LoadAll(ctx)
	if err != nil {
		ucLogger.Error("Failed to load reference cache, aborting run", err, nil)
		return nil, fmt.Errorf("filter listings: failed to load reference cache: %w", err)
	}
	ucLogger.Info("Reference cache loaded", port.Fields{"reference_count": len(references)})

	// Фаза 2. Нормализация и разбиение. URL обходим в стабильном порядке.
	sourceURLs := make([]string, 0, len(batches))
	for sourceURL := range batches {
		sourceURLs = append(sourceURLs, sourceURL)
	}
	sort.Strings(sourceURLs)

	result := &domain.PartitionResult{}
	runSource := domain.SourceUnknown

	for _, sourceURL := range sourceURLs {
		rawListings := batches[sourceURL]
		result.InputCount += len(rawListings)

		// Внутрипакетные повторы убираем до проверки на межпортальные дубликаты.
		rawListings = domain.DeduplicateByLink(rawListings)
		rawListings = domain.DeduplicateByFields(rawListings)

		if source := domain.SourceFromURL(sourceURL); source != domain.SourceUnknown {
			runSource = source
		}

		ucLogger.Info("Processing listings from source URL", port.Fields{
			"source_url": sourceURL,
			"count":      len(rawListings),
		})

		for _, raw := range rawListings {
			if err := ctx.Err(); err != nil {
				ucLogger.Warn("Run cancelled, aborting without partial writes", nil)
				return nil, fmt.Errorf("filter listings: run cancelled: %w", err)
			}

			normalized, keep := uc.normalizer.Normalize(ctx, raw, sourceURL)
			if !keep {
				result.SkippedBelowMinPrice++
				continue
			}

			match := uc.strategy.Match(ctx, *normalized, references)
			if match.IsDuplicate() {
				result.Duplicates = append(result.Duplicates, match)
			} else {
				result.New = append(result.New, *normalized)
			}
		}
	}

	ucLogger.Info("Partitioning finished", port.Fields{
		"input_count":     result.InputCount,
		"new_count":       len(result.New),
		"duplicate_count": len(result.Duplicates),
		"skipped_count":   result.SkippedBelowMinPrice,
	})

	summary := domain.RunSummary{
		Source:         runSource,
		Timestamp:      time.Now(),
		TotalProcessed: len(result.New) + len(result.Duplicates),
		DuplicateCount: len(result.Duplicates),
		NewCount:       len(result.New),
		SkippedCount:   result.SkippedBelowMinPrice,
	}

	// Фаза 3. Отчет о дубликатах. Ошибка доставки не влияет ни на разбиение,
	// ни на запись.
	if len(result.Duplicates) > 0 {
		report := buildDuplicateReport(summary, result.Duplicates)
		if err := uc.notifier.ReportDuplicates(ctx, report); err != nil {
			ucLogger.Error("Duplicate report delivery failed, continuing", err, nil)
		}
	}

	// Фаза 4. Подготовка и запись строк. Запись идет только после полного
	// разбиения, частичные результаты наружу не попадают.
	result.Rows = PrepareRows(result.New, uc.config.IncludeMLSNumber)
	if len(result.Rows) > 0 {
		inserted, err := uc.storage.InsertRows(ctx, result.Rows)
		if err != nil {
			ucLogger.Error("Failed to insert prepared rows", err, nil)
			return nil, fmt.Errorf("filter listings: failed to insert %d rows: %w", len(result.Rows), err)
		}
		ucLogger.Info("Prepared rows written", port.Fields{"inserted": inserted})
	} else {
		ucLogger.Info("No new listings to write", nil)
	}

	// Фаза 5. Итоговый отчет о прогоне. Данные уже сохранены, поэтому
	// ошибку публикации только логируем - иначе пачка обработалась бы повторно.
	if uc.reporter != nil {
		if err := uc.reporter.ReportRun(ctx, taskID, summary); err != nil {
			ucLogger.Error("Failed to report run results after successful save", err, nil)
		}
	}

	ucLogger.Info("Use case finished", port.Fields{
		"total_processed": summary.TotalProcessed,
		"new":             summary.NewCount,
		"duplicates":      summary.DuplicateCount,
	})

	return result, nil
}

func buildDuplicateReport(summary domain.RunSummary, duplicates []domain.MatchResult) domain.DuplicateReport {
	entries := make([]domain.DuplicateEntry, 0, len(duplicates))
	for _, match := range duplicates {
		entries = append(entries, domain.DuplicateEntry{
			Candidate:  match.Candidate,
			Reference:  *match.MatchedReference,
			Similarity: match.Similarity,
		})
	}

	return domain.DuplicateReport{
		Summary:    summary,
		Duplicates: entries,
	}
}
