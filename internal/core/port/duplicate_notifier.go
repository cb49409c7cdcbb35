package port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"
)

// DuplicateNotifierPort - исходящий порт для пакетного отчета о дубликатах.
// Ошибка доставки логируется и игнорируется: отчет не должен блокировать
// ни разбиение, ни запись результатов.
type DuplicateNotifierPort interface {
	ReportDuplicates(ctx context.Context, report domain.DuplicateReport) error
}
