package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RunResultDTO - итог прогона фильтрации для очереди отчетов по задачам.
type RunResultDTO struct {
	TaskID  uuid.UUID      `json:"task_id"`
	Source  string         `json:"source"`
	Results map[string]int `json:"results"`
}

// RunReporterAdapter публикует итоги прогона в очередь отчетов.
type RunReporterAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

// NewRunReporterAdapter создает адаптер отчетов о прогонах.
func NewRunReporterAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*RunReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RunReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// ReportRun публикует итоговую статистику прогона одной задачи.
func (a *RunReporterAdapter) ReportRun(ctx context.Context, taskID uuid.UUID, summary domain.RunSummary) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "RunReporterAdapter",
		"routing_key": a.routingKey,
		"task_id":     taskID.String(),
	})

	dto := RunResultDTO{
		TaskID: taskID,
		Source: string(summary.Source),
		Results: map[string]int{
			"total_processed": summary.TotalProcessed,
			"duplicates":      summary.DuplicateCount,
			"new_listings":    summary.NewCount,
			"skipped":         summary.SkippedCount,
		},
	}

	body, _ := json.Marshal(dto)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent, // Сообщения переживают перезапуск брокера
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adapterLogger.Info("Publishing run report for task", port.Fields{"stats": dto.Results})
	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish run report", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish report for task %s: %w", taskID, err)
	}

	adapterLogger.Info("Successfully published run report", nil)
	return nil
}
