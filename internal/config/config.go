package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию сервиса проекций
type Config struct {
	Port            int
	MaxPrice        float64
	MaxMonths       int
	MaxRate         float64
	MaxBalanceCap   float64
	DBDriver        string
	DBDSN           string
	DelegateURL     string
	DelegateTimeout time.Duration
	OTELEndpoint    string
	OTELServiceName string
	LogLevel        string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8000),
		MaxPrice:        getEnvFloat("MAX_PRICE", 1e9),
		MaxMonths:       getEnvInt("MAX_MONTHS", 600),
		MaxRate:         getEnvFloat("MAX_RATE", 200),
		MaxBalanceCap:   getEnvFloat("MAX_BALANCE_CAP", 1e12),
		DBDriver:        getEnvString("DB_DRIVER", "sqlite3"),
		DBDSN:           getEnvString("DB_DSN", "projections.db"),
		DelegateURL:     getEnvString("COMPUTE_DELEGATE_URL", ""),
		DelegateTimeout: getEnvDuration("COMPUTE_DELEGATE_TIMEOUT_MS", 10*time.Second),
		OTELEndpoint:    getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName: getEnvString("OTEL_SERVICE_NAME", "realty-projection"),
		LogLevel:        getEnvString("LOG_LEVEL", "INFO"),
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration читает значение в миллисекундах
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// BalanceCap возвращает максимальный остаток долга для защиты от переполнения
func (c *Config) BalanceCap() float64 {
	return c.MaxBalanceCap
}
