package usecases_port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"
)

// ReferenceStatsPort - входящий контракт для чтения статистики эталонного набора.
type ReferenceStatsPort interface {
	GetReferenceStats(ctx context.Context) (map[domain.Source]int64, error)
}
