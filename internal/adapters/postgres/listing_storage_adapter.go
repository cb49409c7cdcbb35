package postgres

import (
	"context"
	"fmt"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingStorageAdapter пишет подготовленные строки новых объявлений
// в целевую таблицу. Вся пачка идет одной транзакцией: либо записываются
// все строки, либо ни одной.
type ListingStorageAdapter struct {
	pool         *pgxpool.Pool
	resultsTable string
}

// NewListingStorageAdapter создает адаптер записи новых объявлений.
func NewListingStorageAdapter(pool *pgxpool.Pool, resultsTable string) *ListingStorageAdapter {
	return &ListingStorageAdapter{
		pool:         pool,
		resultsTable: resultsTable,
	}
}

// InsertRows вставляет строки через pgx.Batch внутри транзакции и
// возвращает количество вставленных строк.
func (a *ListingStorageAdapter) InsertRows(ctx context.Context, listingRows []domain.ListingRow) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingStorageAdapter",
		"method":    "InsertRows",
		"table":     a.resultsTable,
		"count":     len(listingRows),
	})

	if len(listingRows) == 0 {
		return 0, nil
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return 0, fmt.Errorf("ListingStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s (
			target_url, mls_number, name, sqft, beds, baths, location,
			currency, price, link, image_link, listing_type, acres
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`, a.resultsTable)

	batch := &pgx.Batch{}
	for _, row := range listingRows {
		batch.Queue(query,
			row.TargetURL, row.MLSNumber, row.Name, row.Sqft, row.Beds,
			row.Baths, row.Location, row.Currency, row.Price, row.Link,
			row.ImageLink, row.ListingType, row.Acres,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range listingRows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			repoLogger.Error("Failed to insert listing row, rolling back batch", err, port.Fields{
				"row_index": i,
				"link":      listingRows[i].Link,
			})
			return 0, fmt.Errorf("ListingStorageAdapter: failed to insert row %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("ListingStorageAdapter: failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		repoLogger.Error("Failed to commit transaction", err, nil)
		return 0, fmt.Errorf("ListingStorageAdapter: failed to commit transaction: %w", err)
	}

	repoLogger.Info("Successfully inserted listing rows", port.Fields{"inserted": len(listingRows)})
	return len(listingRows), nil
}
