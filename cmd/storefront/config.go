package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dasieloski/dasieloski-store/internal/app"
)

const (
	envHTTPAddr                    = "STORE_HTTP_ADDR"
	envMetricsAddr                 = "STORE_METRICS_ADDR"
	envGRPCAddr                    = "STORE_GRPC_ADDR"
	envStorageDriver               = "STORE_STORAGE_DRIVER"
	envPostgresDSN                 = "STORE_POSTGRES_DSN"
	envPostgresAutoMigrate         = "STORE_POSTGRES_AUTO_MIGRATE"
	envSessionDriver               = "STORE_SESSION_DRIVER"
	envRedisAddr                   = "STORE_REDIS_ADDR"
	envRedisPassword               = "STORE_REDIS_PASSWORD"
	envRedisDB                     = "STORE_REDIS_DB"
	envSessionTTL                  = "STORE_SESSION_TTL"
	envSecureCookies               = "STORE_SECURE_COOKIES"
	envWhatsAppNumber              = "STORE_WHATSAPP_NUMBER"
	envAdminEmail                  = "STORE_ADMIN_EMAIL"
	envAdminPasswordHash           = "STORE_ADMIN_PASSWORD_HASH"
	envAdminPassword               = "STORE_ADMIN_PASSWORD"
	envAdminSessionTTL             = "STORE_ADMIN_SESSION_TTL"
	envKafkaBrokers                = "KAFKA_BROKERS"
	envKafkaTopic                  = "STORE_KAFKA_TOPIC"
	envKafkaDLQTopic               = "STORE_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval          = "STORE_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "STORE_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "STORE_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "STORE_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending            = "STORE_OUTBOX_MAX_PENDING"
	envIdempotencyTTL              = "STORE_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "STORE_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "STORE_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envRequestTimeout              = "STORE_REQUEST_TIMEOUT"
	envLogLevel                    = "STORE_LOG_LEVEL"
)

// envLookup совпадает по сигнатуре с os.LookupEnv.
type envLookup func(key string) (string, bool)

func positiveInt(v int) bool { return v > 0 }

func nonNegativeInt(v int) bool { return v >= 0 }

func positiveDuration(v time.Duration) bool { return v > 0 }

func nonNegativeDuration(v time.Duration) bool { return v >= 0 }

// readConfigFromEnv накладывает переменные окружения на app.DefaultConfig.
// Некорректные значения не роняют запуск: остаётся значение по умолчанию,
// а описание проблемы попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = parsed
	}
	integer := func(key string, dst *int, valid func(int) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = parsed
	}
	duration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = parsed
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	// Пустой STORE_GRPC_ADDR явно отключает gRPC health.
	if v, ok := lookup(envGRPCAddr); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}
	str(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	str(envPostgresDSN, &cfg.PostgresDSN)
	boolean(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)

	str(envSessionDriver, &cfg.SessionDriver)
	cfg.SessionDriver = strings.ToLower(cfg.SessionDriver)
	str(envRedisAddr, &cfg.RedisAddr)
	str(envRedisPassword, &cfg.RedisPassword)
	integer(envRedisDB, &cfg.RedisDB, nonNegativeInt, "must be >= 0")
	duration(envSessionTTL, &cfg.SessionTTL, positiveDuration, "must be > 0")
	boolean(envSecureCookies, &cfg.SecureCookies)

	str(envWhatsAppNumber, &cfg.WhatsAppNumber)
	str(envAdminEmail, &cfg.AdminEmail)
	str(envAdminPasswordHash, &cfg.AdminPasswordHash)
	if v, ok := lookup(envAdminPassword); ok {
		cfg.AdminPassword = v
	}
	duration(envAdminSessionTTL, &cfg.AdminSessionTTL, positiveDuration, "must be > 0")

	str(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envKafkaTopic, &cfg.KafkaTopic)
	str(envKafkaDLQTopic, &cfg.KafkaDLQTopic)

	duration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	integer(envOutboxBatchSize, &cfg.OutboxBatchSize, positiveInt, "must be > 0")
	integer(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positiveInt, "must be > 0")
	duration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	integer(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegativeInt, "must be >= 0")

	duration(envIdempotencyTTL, &cfg.IdempotencyTTL, positiveDuration, "must be > 0")
	duration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	integer(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positiveInt, "must be > 0")
	duration(envRequestTimeout, &cfg.RequestTimeout, positiveDuration, "must be > 0")

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
