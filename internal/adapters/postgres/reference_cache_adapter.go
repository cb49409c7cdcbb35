package postgres

import (
	"context"
	"fmt"
	"strconv"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceCacheAdapter загружает эталонные объявления из таблицы Postgres.
// Имя таблицы приходит из конфигурации: эталонный индекс для Cireba и
// EcayTrade живет в разных таблицах одной схемы.
type ReferenceCacheAdapter struct {
	pool           *pgxpool.Pool
	referenceTable string
	pageSize       int
}

// NewReferenceCacheAdapter создает адаптер кэша эталонных объявлений.
func NewReferenceCacheAdapter(pool *pgxpool.Pool, referenceTable string, pageSize int) *ReferenceCacheAdapter {
	return &ReferenceCacheAdapter{
		pool:           pool,
		referenceTable: referenceTable,
		pageSize:       pageSize,
	}
}

// LoadAll читает таблицу целиком постранично, чтобы не держать один
// курсор на сотни тысяч строк. Цены приводятся к USD прямо при загрузке.
func (a *ReferenceCacheAdapter) LoadAll(ctx context.Context) ([]domain.ReferenceListing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ReferenceCacheAdapter",
		"method":    "LoadAll",
		"table":     a.referenceTable,
	})

	query := fmt.Sprintf(`
		SELECT
			id,
			COALESCE(name, ''),
			COALESCE(price::text, '0'),
			COALESCE(currency, 'US$'),
			COALESCE(link, ''),
			COALESCE(target_url, '')
		FROM %s
		ORDER BY id
		LIMIT $1 OFFSET $2;
	`, a.referenceTable)

	references, err := collectPages(a.pageSize, func(offset int) ([]domain.ReferenceListing, error) {
		return a.loadPage(ctx, query, offset)
	})
	if err != nil {
		repoLogger.Error("Failed to load reference page", err, nil)
		return nil, fmt.Errorf("ReferenceCacheAdapter: %w", err)
	}

	repoLogger.Info("Reference listings loaded", port.Fields{"count": len(references)})
	return references, nil
}

// collectPages читает страницы по pageSize строк, пока не встретит неполную.
// Последняя страница ровно в pageSize строк приводит к одному лишнему
// пустому чтению - это ожидаемое завершение.
func collectPages(pageSize int, loadPage func(offset int) ([]domain.ReferenceListing, error)) ([]domain.ReferenceListing, error) {
	var references []domain.ReferenceListing
	offset := 0

	for {
		page, err := loadPage(offset)
		if err != nil {
			return nil, fmt.Errorf("failed to load page at offset %d: %w", offset, err)
		}

		references = append(references, page...)
		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}

	return references, nil
}

func (a *ReferenceCacheAdapter) loadPage(ctx context.Context, query string, offset int) ([]domain.ReferenceListing, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	rows, err := a.pool.Query(ctx, query, a.pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference listings: %w", err)
	}
	defer rows.Close()

	page := make([]domain.ReferenceListing, 0, a.pageSize)
	for rows.Next() {
		var (
			id        int64
			name      string
			rawPrice  string
			currency  string
			link      string
			targetURL string
		)
		if err := rows.Scan(&id, &name, &rawPrice, &currency, &link, &targetURL); err != nil {
			return nil, fmt.Errorf("failed to scan reference listing: %w", err)
		}

		page = append(page, mapReferenceRow(logger, id, name, rawPrice, currency, link, targetURL))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during reference rows iteration: %w", err)
	}

	return page, nil
}

// mapReferenceRow собирает запись кэша из колонок таблицы. Строка с
// нераспознаваемой ценой сохраняется с нулевой ценой, а не выбрасывается:
// выброс укорачивал бы страницу, и цикл пагинации принял бы ее за конец
// таблицы, молча потеряв весь остаток эталонного набора.
func mapReferenceRow(logger port.LoggerPort, id int64, name, rawPrice, currency, link, targetURL string) domain.ReferenceListing {
	priceUSD, err := referencePriceUSD(rawPrice, currency)
	if err != nil {
		logger.Warn("Reference row price is unparseable, keeping row with zero price", port.Fields{
			"id":       id,
			"price":    rawPrice,
			"currency": currency,
		})
		priceUSD = 0.0
	}

	return domain.ReferenceListing{
		ID:       id,
		Name:     name,
		PriceUSD: priceUSD,
		Link:     link,
		Source:   domain.SourceFromURL(targetURL),
	}
}

// referencePriceUSD приводит цену эталонной строки к USD.
// Часть таблиц уже хранит USD числом, часть - исходную строку с валютой.
func referencePriceUSD(rawPrice, currency string) (float64, error) {
	if parsed, err := strconv.ParseFloat(rawPrice, 64); err == nil && (currency == "US$" || currency == "USD" || currency == "") {
		return domain.RoundPrice(parsed), nil
	}
	return domain.ConvertToUSD(rawPrice, currency)
}

// CountBySource считает эталонные записи в разрезе порталов.
func (a *ReferenceCacheAdapter) CountBySource(ctx context.Context) (map[domain.Source]int64, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ReferenceCacheAdapter",
		"method":    "CountBySource",
		"table":     a.referenceTable,
	})

	query := fmt.Sprintf(`
		SELECT
			CASE
				WHEN target_url LIKE '%%cireba.com%%' THEN 'cireba'
				WHEN target_url LIKE '%%ecaytrade.com%%' THEN 'ecaytrade'
				ELSE 'unknown'
			END AS source,
			COUNT(*) AS listing_count
		FROM %s
		GROUP BY source;
	`, a.referenceTable)

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		repoLogger.Error("Failed to query reference stats", err, nil)
		return nil, fmt.Errorf("ReferenceCacheAdapter: failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.Source]int64)
	for rows.Next() {
		var (
			source string
			count  int64
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("ReferenceCacheAdapter: failed to scan stats row: %w", err)
		}
		stats[domain.Source(source)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReferenceCacheAdapter: error during stats rows iteration: %w", err)
	}

	repoLogger.Info("Reference stats collected", port.Fields{"sources": len(stats)})
	return stats, nil
}
