package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass        string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	IncidentCacheTTL time.Duration `env:"INCIDENT_CACHE_TTL" envDefault:"5m"`

	// Alert engine
	PollInterval           time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	DetectorLookback       int64         `env:"DETECTOR_LOOKBACK" envDefault:"64"`
	DetectorRecentCapacity int           `env:"DETECTOR_RECENT_CAPACITY" envDefault:"4096"`
	SessionQueueSize       int           `env:"SESSION_QUEUE_SIZE" envDefault:"128"`
	DeliveryTimeout        time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"5s"`

	// Push source (live event bridge)
	PushURL            string        `env:"PUSH_URL"`
	PushReconnectDelay time.Duration `env:"PUSH_RECONNECT_DELAY" envDefault:"3s"`

	// OS push gateway (system notifications)
	PushGatewayURL        string        `env:"PUSH_GATEWAY_URL"`
	PushGatewaySecret     string        `env:"PUSH_GATEWAY_SECRET"`
	PushGatewayTimeout    time.Duration `env:"PUSH_GATEWAY_TIMEOUT" envDefault:"5s"`
	PushGatewayMaxRetries int           `env:"PUSH_GATEWAY_MAX_RETRIES" envDefault:"3"`
	PushGatewayBaseDelay  time.Duration `env:"PUSH_GATEWAY_BASE_DELAY" envDefault:"1s"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             int32(getEnvAsInt("DB_MAX_CONNS", 20)),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		IncidentCacheTTL:       getEnvAsDuration("INCIDENT_CACHE_TTL", 5*time.Minute),
		PollInterval:           getEnvAsDuration("POLL_INTERVAL", 5*time.Second),
		DetectorLookback:       int64(getEnvAsInt("DETECTOR_LOOKBACK", 64)),
		DetectorRecentCapacity: getEnvAsInt("DETECTOR_RECENT_CAPACITY", 4096),
		SessionQueueSize:       getEnvAsInt("SESSION_QUEUE_SIZE", 128),
		DeliveryTimeout:        getEnvAsDuration("DELIVERY_TIMEOUT", 5*time.Second),
		PushURL:                os.Getenv("PUSH_URL"),
		PushReconnectDelay:     getEnvAsDuration("PUSH_RECONNECT_DELAY", 3*time.Second),
		PushGatewayURL:         os.Getenv("PUSH_GATEWAY_URL"),
		PushGatewaySecret:      os.Getenv("PUSH_GATEWAY_SECRET"),
		PushGatewayTimeout:     getEnvAsDuration("PUSH_GATEWAY_TIMEOUT", 5*time.Second),
		PushGatewayMaxRetries:  getEnvAsInt("PUSH_GATEWAY_MAX_RETRIES", 3),
		PushGatewayBaseDelay:   getEnvAsDuration("PUSH_GATEWAY_BASE_DELAY", time.Second),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.DetectorLookback < 0 {
		cfg.DetectorLookback = 0
	}
	if cfg.DetectorRecentCapacity < 1 {
		cfg.DetectorRecentCapacity = 4096
	}
	if cfg.SessionQueueSize < 1 {
		cfg.SessionQueueSize = 128
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
