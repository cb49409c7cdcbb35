package detailfetcher

import (
	"context"
	"fmt"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// DetailFetcherAdapter загружает страницы объявлений для стратегии
// сопоставления по MLS-номеру.
type DetailFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector *colly.Collector
	attempts  int
}

// NewDetailFetcherAdapter - конструктор. Таймаут одного запроса задается
// конфигурацией, лимиты наследуются всеми клонами коллектора.
func NewDetailFetcherAdapter(requestTimeout time.Duration) (*DetailFetcherAdapter, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(requestTimeout)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		// задержка от 0 до 2 секунд между запросами к порталу
		RandomDelay: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("DetailFetcherAdapter: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c) // На каждый запрос подставляется User-Agent реального браузера
	extensions.Referer(c)

	return &DetailFetcherAdapter{
		collector: c,
		attempts:  3,
	}, nil
}

// FetchPageText возвращает текст страницы объявления. Повторяет запрос
// с растущей паузой, чтобы переживать кратковременные сбои портала.
func (a *DetailFetcherAdapter) FetchPageText(ctx context.Context, link string) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{
		"component": "DetailFetcherAdapter",
		"method":    "FetchPageText",
		"link":      link,
	})

	backoff := 2 * time.Second
	var lastErr error

	for attempt := 1; attempt <= a.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("DetailFetcherAdapter: fetch cancelled: %w", err)
		}

		pageText, err := a.fetchOnce(link)
		if err == nil {
			return pageText, nil
		}
		lastErr = err

		fetchLogger.Warn("Detail page fetch attempt failed", port.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < a.attempts {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("DetailFetcherAdapter: fetch cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return "", fmt.Errorf("DetailFetcherAdapter: failed to fetch %s after %d attempts: %w", link, a.attempts, lastErr)
}

func (a *DetailFetcherAdapter) fetchOnce(link string) (string, error) {
	collector := a.collector.Clone()

	var pageText string
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		pageText = string(r.Body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := collector.Visit(link); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", link, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	return pageText, nil
}
