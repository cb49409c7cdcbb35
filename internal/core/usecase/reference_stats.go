package usecase

import (
	"context"
	"fmt"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
)

// ReferenceStatsUseCase отдает количество эталонных записей по порталам.
type ReferenceStatsUseCase struct {
	cache port.ReferenceCachePort
}

// NewReferenceStatsUseCase создает новый экземпляр use case.
func NewReferenceStatsUseCase(cache port.ReferenceCachePort) *ReferenceStatsUseCase {
	return &ReferenceStatsUseCase{cache: cache}
}

func (uc *ReferenceStatsUseCase) GetReferenceStats(ctx context.Context) (map[domain.Source]int64, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	stats, err := uc.cache.CountBySource(ctx)
	if err != nil {
		logger.Error("Failed to count reference listings", err, nil)
		return nil, fmt.Errorf("reference stats: %w", err)
	}

	return stats, nil
}
