package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cireba-dedup-service/internal/adapters/detailfetcher"
	logger_adapter "cireba-dedup-service/internal/adapters/logger"
	postgres_adapter "cireba-dedup-service/internal/adapters/postgres"
	rabbitmq_adapter "cireba-dedup-service/internal/adapters/rabbitmq"
	"cireba-dedup-service/internal/adapters/rest"
	"cireba-dedup-service/internal/adapters/webhook"
	"cireba-dedup-service/internal/configs"
	"cireba-dedup-service/internal/constants"
	"cireba-dedup-service/internal/core/port"
	"cireba-dedup-service/internal/core/usecase"
	fluentlogger "cireba-dedup-service/pkg/fluent_logger"
	"cireba-dedup-service/pkg/postgres"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_common"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_consumer"
	"cireba-dedup-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App - структура приложения.
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	parsedListingsListener port.EventListenerPort
	runReportsProducer     *rabbitmq_producer.Publisher
	connManager            *rabbitmq_common.ConnectionManager
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Postgres.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	referenceCache := postgres_adapter.NewReferenceCacheAdapter(dbPool, appConfig.Postgres.ReferenceTable, appConfig.Matching.ReferencePageSize)
	listingStorage := postgres_adapter.NewListingStorageAdapter(dbPool, appConfig.Postgres.ResultsTable)
	appLogger.Info("Postgres adapters initialized.", nil)

	connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
	connManager, err := rabbitmq_common.NewManager(appConfig.RabbitMQ.URL, rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger))
	if err != nil {
		appLogger.Error("Failed to create connection manager", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

	producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
	producerCfg := rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		ExchangeName:             constants.ScraperExchange,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,

		Logger: rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
	}
	eventProducer, err := rabbitmq_producer.NewPublisher(producerCfg, connManager)
	if err != nil {
		appLogger.Error("Failed to create event producer", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	appLogger.Info("RabbitMQ Event Producer initialized.", nil)

	runReporter, err := rabbitmq_adapter.NewRunReporterAdapter(eventProducer, constants.RoutingKeyRunReports)
	if err != nil {
		appLogger.Error("Failed to create run reporter adapter", err, nil)
		dbPool.Close()
		return nil, err
	}

	duplicateNotifier := webhook.NewNotifier(appConfig.Webhook.URL)
	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 3. USE CASES ---
	normalizer := usecase.NewNormalizeListingUseCase(appConfig.Matching.MinPriceUSD)

	var strategy usecase.MatchStrategy
	switch appConfig.Matching.Strategy {
	case usecase.StrategyMLSPage:
		fetchTimeout := time.Duration(appConfig.Matching.DetailFetchTimeoutSeconds) * time.Second
		fetcher, fetcherErr := detailfetcher.NewDetailFetcherAdapter(fetchTimeout)
		if fetcherErr != nil {
			appLogger.Error("Failed to create detail page fetcher", fetcherErr, nil)
			dbPool.Close()
			return nil, fetcherErr
		}
		strategy = usecase.NewMLSPageMatchStrategy(fetcher)
	default:
		strategy = usecase.NewPriceNameMatchStrategy(
			appConfig.Matching.PriceToleranceUSD,
			appConfig.Matching.NameSimilarityThreshold,
		)
	}

	filterListingsUseCase := usecase.NewFilterListingsUseCase(
		referenceCache,
		strategy,
		normalizer,
		listingStorage,
		duplicateNotifier,
		runReporter,
		usecase.FilterListingsConfig{IncludeMLSNumber: appConfig.Matching.IncludeMLSNumber},
	)
	referenceStatsUseCase := usecase.NewReferenceStatsUseCase(referenceCache)
	appLogger.Info("All use cases initialized.", port.Fields{"strategy": strategy.Name()})

	// --- 4. ВХОДЯЩИЕ АДАПТЕРЫ ---
	consumerCfg := rabbitmq_consumer.ConsumerConfig{
		Config:              rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		QueueName:           constants.QueueParsedListings,
		DurableQueue:        true,
		DeclareQueue:        true,
		ExchangeNameForBind: constants.ScraperExchange,
		RoutingKeyForBind:   constants.RoutingKeyParsedListings,
		PrefetchCount:       10,
		ConsumerTag:         "listings-dedup-adapter",
	}
	parsedListingsListener, err := rabbitmq_adapter.NewParsedListingsConsumerAdapter(consumerCfg, filterListingsUseCase, baseLogger, connManager)
	if err != nil {
		appLogger.Error("Failed to create Parsed Listings listener", err, nil)
		dbPool.Close()
		return nil, err
	}
	appLogger.Info("Parsed Listings Events Listener initialized.", nil)

	handlers := rest.NewDedupHandlers(filterListingsUseCase, referenceStatsUseCase)
	apiServer := rest.NewServer(appConfig.Rest.PORT, handlers, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	// --- 5. СБОРКА ПРИЛОЖЕНИЯ ---
	application := &App{
		config:                 appConfig,
		dbPool:                 dbPool,
		apiServer:              apiServer,
		parsedListingsListener: parsedListingsListener,
		runReportsProducer:     eventProducer,
		connManager:            connManager,

		fluentClient: fluentClient,
		logger:       appLogger,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		if a.parsedListingsListener != nil {
			if err := a.parsedListingsListener.Close(); err != nil {
				a.logger.Error("Error closing parsed listings listener", err, nil)
			}
		}

		if a.runReportsProducer != nil {
			if err := a.runReportsProducer.Close(); err != nil {
				a.logger.Error("Error closing event producer", err, nil)
			}
		}

		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Пишем в stdout: fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)

	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			errorsCh <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	wg.Add(1)
	go startListener("Parsed Listings Events Listener", a.parsedListingsListener)

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
