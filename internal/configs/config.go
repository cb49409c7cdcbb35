package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// PostgresConfig хранит конфигурацию подключения к базе.
type PostgresConfig struct {
	URL            string
	ReferenceTable string
	ResultsTable   string
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ.
type RabbitMQConfig struct {
	URL string
}

type RESTconfig struct {
	PORT string
}

// MatchingConfig - параметры бизнес-логики фильтрации.
type MatchingConfig struct {
	// Strategy - "price_name" или "mls_page".
	Strategy string
	// PriceToleranceUSD - допустимая разница цен при сопоставлении.
	PriceToleranceUSD float64
	// NameSimilarityThreshold - порог нечеткого сходства названий (0-100).
	NameSimilarityThreshold float64
	// MinPriceUSD - объявления дешевле порога отбрасываются.
	MinPriceUSD float64
	// ReferencePageSize - размер страницы при загрузке эталонного набора.
	ReferencePageSize int
	// IncludeMLSNumber - писать ли колонку mls_number в целевую таблицу.
	IncludeMLSNumber bool
	// DetailFetchTimeoutSeconds - таймаут загрузки страницы объявления.
	DetailFetchTimeoutSeconds int
}

// WebhookConfig - адрес доставки отчетов о дубликатах.
type WebhookConfig struct {
	URL string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения.
type AppConfig struct {
	Postgres     PostgresConfig
	RabbitMQ     RabbitMQConfig
	Rest         RESTconfig
	Matching     MatchingConfig
	Webhook      WebhookConfig
	FluentBit    FluentBitConfig
	AppName      string
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// .env необязателен: в контейнере окружение приходит снаружи.
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "cireba-dedup-service")

	cfg.Postgres.URL = os.Getenv("DATABASE_URL")
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.Postgres.ReferenceTable = getEnvAsString("REFERENCE_TABLE", "cireba_listings")
	cfg.Postgres.ResultsTable = getEnvAsString("RESULTS_TABLE", "ecaytrade_filtered")

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
	}

	cfg.Rest.PORT = getEnvAsString("HTTP_PORT", "5000")

	cfg.Matching.Strategy = getEnvAsString("MATCH_STRATEGY", "price_name")
	if cfg.Matching.Strategy != "price_name" && cfg.Matching.Strategy != "mls_page" {
		return nil, fmt.Errorf("MATCH_STRATEGY must be 'price_name' or 'mls_page', got %q", cfg.Matching.Strategy)
	}
	cfg.Matching.PriceToleranceUSD = getEnvAsFloat("PRICE_MATCH_TOLERANCE_USD", 100)
	cfg.Matching.NameSimilarityThreshold = getEnvAsFloat("NAME_SIMILARITY_THRESHOLD", 85)
	cfg.Matching.MinPriceUSD = getEnvAsFloat("MIN_PRICE_USD", 200000)
	cfg.Matching.ReferencePageSize = getEnvAsInt("REFERENCE_PAGE_SIZE", 1000)
	cfg.Matching.IncludeMLSNumber = getEnvAsBool("INCLUDE_MLS_NUMBER", false)
	cfg.Matching.DetailFetchTimeoutSeconds = getEnvAsInt("DETAIL_FETCH_TIMEOUT_SECONDS", 30)

	cfg.Webhook.URL = getEnvAsString("WEBHOOK_URL", "")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsFloat читает переменную окружения как float64 или возвращает значение по умолчанию.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueFloat, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %f\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueFloat
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию.
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
