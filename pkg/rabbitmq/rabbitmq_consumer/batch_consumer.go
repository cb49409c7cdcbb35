package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer - контракт потребителя для входящих адаптеров.
type Consumer interface {
	StartConsuming(ctx context.Context) error
	Close() error
}

// BatchMessageHandler - обработчик пачки сообщений. Ошибка означает,
// что вся пачка отклоняется без возврата в очередь.
type BatchMessageHandler func(deliveries []amqp.Delivery) error

// ConsumerConfig - конфигурация потребителя.
type ConsumerConfig struct {
	rabbitmq_common.Config
	// Настройки очереди
	QueueName       string
	DeclareQueue    bool
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table
	// Настройки обменника для привязки
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	RoutingKeyForBind      string
	// Настройки QoS
	PrefetchCount int
	PrefetchSize  int
	QosGlobal     bool
	// Настройки потребителя
	ConsumerTag       string
	ExclusiveConsumer bool

	Logger rabbitmq_common.Logger
}

// BatchConsumer накапливает сообщения в пачки по размеру или таймеру
// и передает их обработчику. Пачка подтверждается одним Ack (multiple),
// при ошибке отклоняется одним Nack без requeue.
type BatchConsumer struct {
	config          ConsumerConfig
	connection      *amqp.Connection
	channel         *amqp.Channel
	actualQueueName string
	handler         BatchMessageHandler
	batchSize       int
	batchTimeout    time.Duration
	wg              sync.WaitGroup

	Logger rabbitmq_common.Logger
}

// NewBatchConsumer создает потребителя и настраивает сущности RabbitMQ.
func NewBatchConsumer(cfg ConsumerConfig, handler BatchMessageHandler, batchSize int, batchTimeout time.Duration, connManager *rabbitmq_common.ConnectionManager) (*BatchConsumer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("batch Consumer: invalid base config: %w", err)
	}
	if handler == nil {
		return nil, fmt.Errorf("batch Consumer: message handler is required")
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return nil, fmt.Errorf("batch Consumer: queue name is required if DeclareQueue is false")
	}
	if cfg.ExchangeNameForBind != "" && cfg.ExchangeTypeForBind == "" && cfg.DeclareExchangeForBind {
		return nil, fmt.Errorf("batch Consumer: exchange type is required if declaring an exchange for binding")
	}

	// Prefetch должен вмещать хотя бы одну полную пачку.
	if cfg.PrefetchCount < batchSize {
		cfg.PrefetchCount = batchSize
	}

	c := &BatchConsumer{
		config:       cfg,
		handler:      handler,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		Logger:       logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("batch Consumer: failed to get channel from manager: %w", err)
	}
	c.connection = conn
	c.channel = ch
	c.Logger.Debug("Channel obtained from ConnectionManager")

	if err := c.setup(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("batch Consumer: setup failed: %w", err)
	}

	return c, nil
}

// setup настраивает QoS, очередь и привязку.
func (c *BatchConsumer) setup() error {
	if c.config.PrefetchCount > 0 || c.config.PrefetchSize > 0 {
		c.Logger.Debug("Setting QoS",
			"prefetch_count", c.config.PrefetchCount,
			"prefetch_size", c.config.PrefetchSize,
			"global", c.config.QosGlobal,
		)
		if err := c.channel.Qos(c.config.PrefetchCount, c.config.PrefetchSize, c.config.QosGlobal); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	c.actualQueueName = c.config.QueueName
	if c.config.DeclareQueue {
		c.Logger.Debug("Declaring queue",
			"name", c.config.QueueName,
			"durable", c.config.DurableQueue,
		)
		q, err := c.channel.QueueDeclare(
			c.config.QueueName,
			c.config.DurableQueue,
			c.config.AutoDeleteQueue,
			c.config.ExclusiveQueue,
			false, // no-wait
			c.config.QueueArgs,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue '%s': %w", c.config.QueueName, err)
		}
		c.actualQueueName = q.Name
	}

	if c.config.DeclareExchangeForBind {
		c.Logger.Debug("Declaring exchange",
			"name", c.config.ExchangeNameForBind,
			"type", c.config.ExchangeTypeForBind,
		)
		err := c.channel.ExchangeDeclare(
			c.config.ExchangeNameForBind,
			c.config.ExchangeTypeForBind,
			c.config.DurableExchangeForBind,
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange '%s' for binding: %w", c.config.ExchangeNameForBind, err)
		}
	}

	if c.config.ExchangeNameForBind != "" {
		c.Logger.Debug("Binding queue to exchange",
			"queue_name", c.actualQueueName,
			"exchange_name", c.config.ExchangeNameForBind,
			"routing_key", c.config.RoutingKeyForBind,
		)
		err := c.channel.QueueBind(
			c.actualQueueName,
			c.config.RoutingKeyForBind,
			c.config.ExchangeNameForBind,
			false, // noWait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.actualQueueName, c.config.ExchangeNameForBind, err)
		}
	}

	c.Logger.Debug("Setup complete", "queue", c.actualQueueName)
	return nil
}

// StartConsuming начинает потребление и накопление сообщений.
// Блокируется до отмены контекста или разрыва соединения.
func (c *BatchConsumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.connection.IsClosed() {
		return fmt.Errorf("batch Consumer: not connected")
	}

	msgs, err := c.channel.Consume(
		c.actualQueueName,
		c.config.ConsumerTag,
		false, // auto-ack = false
		c.config.ExclusiveConsumer,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("batch Consumer: failed to register a consumer: %w", err)
	}

	c.Logger.Info("[*] Waiting for messages on queue",
		"queue_name", c.actualQueueName,
		"batch_size", c.batchSize,
		"batch_timeout", c.batchTimeout)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		batch := make([]amqp.Delivery, 0, c.batchSize)
		timer := time.NewTimer(c.batchTimeout)
		// Таймер запускается только с первым сообщением новой пачки.
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				c.Logger.Info("Context cancelled. Processing final batch...")
				c.processBatch(batch)
				return

			case msg, ok := <-msgs:
				if !ok {
					c.Logger.Info("Deliveries channel closed. Processing final batch...")
					c.processBatch(batch)
					return
				}

				if len(batch) == 0 {
					timer.Reset(c.batchTimeout)
				}
				batch = append(batch, msg)

				if len(batch) >= c.batchSize {
					c.Logger.Info("Batch size reached. Processing...", "batch_size", len(batch))
					if !timer.Stop() {
						<-timer.C
					}
					c.processBatch(batch)
					batch = make([]amqp.Delivery, 0, c.batchSize)
				}

			case <-timer.C:
				if len(batch) > 0 {
					c.Logger.Info("Timeout reached. Processing batch of messages", "batch_size", len(batch))
					c.processBatch(batch)
					batch = make([]amqp.Delivery, 0, c.batchSize)
				}
			}
		}
	}()

	notifyClose := make(chan *amqp.Error)
	c.connection.NotifyClose(notifyClose)

	select {
	case <-ctx.Done():
		c.Logger.Info("Context cancelled for consumer. Shutting down.",
			"consumer_tag", c.config.ConsumerTag)
		return nil

	case err := <-notifyClose:
		c.Logger.Error(err, "Connection closed for consumer",
			"consumer_tag", c.config.ConsumerTag)
		return err
	}
}

// processBatch вызывает обработчик и отправляет Ack/Nack на всю пачку.
func (c *BatchConsumer) processBatch(batch []amqp.Delivery) {
	if len(batch) == 0 {
		return
	}

	lastTag := batch[len(batch)-1].DeliveryTag

	if err := c.handler(batch); err != nil {
		c.Logger.Error(err, "Handler returned error for batch. Nacking without requeue.",
			"batch_size", len(batch))
		_ = c.channel.Nack(lastTag, true, false) // multiple=true, requeue=false
		return
	}

	_ = c.channel.Ack(lastTag, true)
	c.Logger.Info("Successfully Ack'd batch of messages", "batch_size", len(batch))
}

// Close дожидается обработки последней пачки и закрывает канал.
func (c *BatchConsumer) Close() error {
	c.Logger.Info("Closing consumer")

	c.Logger.Debug("Waiting for message handlers to finish...")
	c.wg.Wait()
	c.Logger.Debug("All message handlers finished")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.Logger.Error(err, "Error closing channel")
			return err
		}
		c.channel = nil
	}

	c.Logger.Info("Consumer closed")
	return nil
}
