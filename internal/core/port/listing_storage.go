package port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"
)

// ListingStoragePort - исходящий порт для записи подготовленных строк
// в целевую таблицу результатов.
type ListingStoragePort interface {
	// InsertRows вставляет все строки в одной транзакции и возвращает
	// количество записанных. Частичная запись недопустима.
	InsertRows(ctx context.Context, rows []domain.ListingRow) (int, error)
}
