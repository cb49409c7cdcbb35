package port

import "context"

// DetailPageFetcherPort - исходящий порт для загрузки текста страницы
// конкретного объявления (стратегия проверки по номеру MLS).
type DetailPageFetcherPort interface {
	// FetchPageText возвращает отрендеренный текст страницы по ссылке.
	// Таймаут и ретраи - забота адаптера.
	FetchPageText(ctx context.Context, link string) (string, error)
}
