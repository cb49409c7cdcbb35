package usecases_port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"

	"github.com/google/uuid"
)

// FilterListingsPort - входящий контракт основного use case:
// принять разобранные объявления по исходным URL, отделить новые от дубликатов
// и записать подготовленные строки в хранилище.
type FilterListingsPort interface {
	Execute(ctx context.Context, batches map[string][]domain.RawListing, taskID uuid.UUID) (*domain.PartitionResult, error)
}
