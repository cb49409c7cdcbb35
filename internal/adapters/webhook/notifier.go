package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
)

// Notifier отправляет отчет о найденных дубликатах на внешний webhook.
// Недоступность webhook не должна ронять прогон, поэтому не-2xx ответ
// только логируется, ошибкой считается лишь транспортный сбой.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier создает webhook-нотификатор.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ReportDuplicates сериализует отчет и отправляет его одним POST-запросом.
func (n *Notifier) ReportDuplicates(ctx context.Context, report domain.DuplicateReport) error {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "WebhookNotifier",
		"method":    "ReportDuplicates",
	})

	if n.webhookURL == "" {
		clientLogger.Warn("Webhook URL is not configured, skipping duplicate report", nil)
		return nil
	}

	payload := toPayload(report)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("WebhookNotifier: failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("WebhookNotifier: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}

	clientLogger.Debug("Sending duplicate report to webhook", port.Fields{
		"url":              n.webhookURL,
		"duplicates_count": len(payload.Duplicates),
	})

	resp, err := n.httpClient.Do(req)
	if err != nil {
		clientLogger.Error("Failed to deliver duplicate report", err, nil)
		return fmt.Errorf("WebhookNotifier: failed to deliver report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		clientLogger.Warn("Webhook returned non-success status code", port.Fields{
			"status_code": resp.StatusCode,
			"response":    string(respBody),
		})
		return nil
	}

	clientLogger.Info("Duplicate report delivered", port.Fields{
		"duplicates_count": len(payload.Duplicates),
	})
	return nil
}
