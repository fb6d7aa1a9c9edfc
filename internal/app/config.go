package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Драйверы каталога.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Драйверы хранилища сессий.
const (
	SessionDriverMemory = "memory"
	SessionDriverRedis  = "redis"
)

// Config описывает настройки запуска витрины.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// GRPCAddr — адрес gRPC health; пустая строка отключает сервер.
	GRPCAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	SessionDriver string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	SecureCookies bool

	WhatsAppNumber string

	AdminEmail        string
	AdminPasswordHash string
	AdminPassword     string
	AdminSessionTTL   time.Duration

	KafkaBrokers  string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, выше которого /healthz сообщает degraded.
	OutboxMaxPending int

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		GRPCAddr:                    ":50051",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		SessionDriver:               SessionDriverMemory,
		SessionTTL:                  24 * time.Hour,
		WhatsAppNumber:              "1234567890",
		AdminSessionTTL:             12 * time.Hour,
		KafkaTopic:                  "store.catalog.events",
		KafkaDLQTopic:               "store.catalog.dlq",
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            100 * time.Millisecond,
		OutboxMaxPending:            1000,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,
		RequestTimeout:              15 * time.Second,
		ShutdownTimeout:             5 * time.Second,
	}
}

// Validate отклоняет несовместимые комбинации настроек.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	if strings.TrimSpace(c.MetricsAddr) == "" {
		errs = append(errs, errors.New("metrics addr is required"))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.SessionDriver {
	case SessionDriverMemory:
	case SessionDriverRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("redis addr is required for redis session driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported session driver %q", c.SessionDriver))
	}

	if strings.TrimSpace(c.AdminEmail) == "" {
		errs = append(errs, errors.New("admin email is required"))
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		errs = append(errs, errors.New("admin password hash or password is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.WhatsAppNumber == "" || strings.Trim(c.WhatsAppNumber, "0123456789") != "" {
		errs = append(errs, fmt.Errorf("whatsapp number %q must contain digits only", c.WhatsAppNumber))
	}

	return errors.Join(errs...)
}
