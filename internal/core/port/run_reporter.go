package port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"

	"github.com/google/uuid"
)

// RunReporterPort - исходящий порт для публикации итогов прогона
// (счетчики new/duplicates/skipped) во внешнюю систему задач.
type RunReporterPort interface {
	ReportRun(ctx context.Context, taskID uuid.UUID, summary domain.RunSummary) error
}
