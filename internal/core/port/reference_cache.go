package port

import (
	"context"
	"cireba-dedup-service/internal/core/domain"
)

// ReferenceCachePort - исходящий порт к хранилищу эталонного набора объявлений.
type ReferenceCachePort interface {
	// LoadAll загружает весь эталонный набор постранично.
	// Любая ошибка чтения фатальна для прогона: частичный кэш дал бы
	// ложно-отрицательные проверки (каждый кандидат выглядел бы "новым").
	LoadAll(ctx context.Context) ([]domain.ReferenceListing, error)

	// CountBySource возвращает количество эталонных записей по порталам.
	CountBySource(ctx context.Context) (map[domain.Source]int64, error)
}
