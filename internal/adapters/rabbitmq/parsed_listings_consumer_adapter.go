package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/contracts"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
	usecases_port "cireba-dedup-service/internal/core/port/usecases_port"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_common"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ParsedListingsConsumerAdapter - входящий адаптер, который слушает очередь
// с распарсенными объявлениями и вызывает use case фильтрации дубликатов.
type ParsedListingsConsumerAdapter struct {
	consumer rabbitmq_consumer.Consumer
	useCase  usecases_port.FilterListingsPort
	logger   port.LoggerPort
}

// NewParsedListingsConsumerAdapter создает новый адаптер.
func NewParsedListingsConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.FilterListingsPort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*ParsedListingsConsumerAdapter, error) {

	adapter := &ParsedListingsConsumerAdapter{
		useCase: useCase,
		logger:  logger,
	}

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_batch_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewBatchConsumer(consumerCfg, adapter.batchMessageHandler, 10, 15*time.Second, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for parsed listings: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// batchMessageHandler разбирает пачку событий и группирует объявления
// по URL страницы поиска. Каждая задача парсера обрабатывается отдельным
// прогоном фильтрации.
func (a *ParsedListingsConsumerAdapter) batchMessageHandler(deliveries []amqp.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	traceID, _ := deliveries[0].Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	batchID := uuid.New().String()

	batchLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"batch_id":     batchID,
		"batch_size":   len(deliveries),
		"adapter_name": "ParsedListingsConsumerAdapter",
	})

	ctx := context.Background()
	ctx = contextkeys.ContextWithLogger(ctx, batchLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	batchLogger.Info("Received batch of parsed listings events.", nil)

	// Объявления группируются по задачам, внутри задачи - по URL страницы.
	batchesByTask := make(map[uuid.UUID]map[string][]domain.RawListing)

	for _, d := range deliveries {
		event, err := a.unmarshalEvent(d, batchLogger)
		if err != nil {
			// Плохое сообщение отклоняет всю пачку: частичная обработка
			// исказила бы итоговый отчет задачи.
			return err
		}

		if _, ok := batchesByTask[event.TaskID]; !ok {
			batchesByTask[event.TaskID] = make(map[string][]domain.RawListing)
		}
		for _, dto := range event.Listings {
			batchesByTask[event.TaskID][event.SourceURL] = append(
				batchesByTask[event.TaskID][event.SourceURL],
				toDomainRawListing(dto),
			)
		}
	}

	if len(batchesByTask) == 0 {
		batchLogger.Info("No listings in batch to process.", nil)
		return nil
	}

	for taskID, batches := range batchesByTask {
		taskLogger := batchLogger.WithFields(port.Fields{"task_id": taskID.String()})
		taskLogger.Info("Calling filter use case for task...", port.Fields{"source_urls": len(batches)})

		if _, err := a.useCase.Execute(ctx, batches, taskID); err != nil {
			taskLogger.Error("Filter use case failed, the entire batch will be rejected.", err, nil)
			return err
		}
	}

	batchLogger.Info("Batch processed successfully.", nil)
	return nil
}

// unmarshalEvent валидирует сообщение по схеме и разбирает его в DTO.
func (a *ParsedListingsConsumerAdapter) unmarshalEvent(d amqp.Delivery, parentLogger port.LoggerPort) (*ParsedListingsEventDTO, error) {
	msgLogger := parentLogger.WithFields(port.Fields{
		"message_id":        d.MessageId,
		"original_trace_id": d.Headers["x-trace-id"],
	})

	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return nil, err
	}

	var dto ParsedListingsEventDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parsed listings event DTO: %w", err)
	}

	return &dto, nil
}

// Start реализует EventListenerPort, запуская прослушивание очереди.
func (a *ParsedListingsConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close реализует EventListenerPort, корректно останавливая консьюмера.
func (a *ParsedListingsConsumerAdapter) Close() error {
	return a.consumer.Close()
}
