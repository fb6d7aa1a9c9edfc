package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/Dasieloski/dasieloski-store/internal/health"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
	}, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(memory) failed: %v", err)
	}
	if deps.categories == nil || deps.products == nil || deps.currencies == nil {
		t.Fatal("catalog repositories should not be nil for memory storage")
	}
	if deps.outboxRepo == nil || deps.idempotencyRepo == nil {
		t.Fatal("outbox and idempotency repositories should not be nil for memory storage")
	}
	if deps.closeFn != nil {
		t.Fatal("memory storage has nothing to close")
	}
	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy memory storage, got %+v", check)
	}
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "sqlite",
	}, log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}

func TestInitSessionStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, closeFn, err := initSessionStore(context.Background(), Config{
		SessionDriver: SessionDriverRedis,
		RedisAddr:     mr.Addr(),
	}, log.WithField("test", "redis-session"))
	if err != nil {
		t.Fatalf("initSessionStore(redis) failed: %v", err)
	}
	defer func() { _ = closeFn() }()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("expected reachable redis, got %v", err)
	}
}

func TestInitSessionStore_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := initSessionStore(context.Background(), Config{
		SessionDriver: SessionDriverRedis,
		RedisAddr:     addr,
	}, log.WithField("test", "redis-down"))
	if err == nil {
		t.Fatal("expected ping error for stopped redis")
	}
}

func TestInitSessionStore_Memory(t *testing.T) {
	store, closeFn, err := initSessionStore(context.Background(), Config{}, log.WithField("test", "memory-session"))
	if err != nil {
		t.Fatalf("initSessionStore(memory) failed: %v", err)
	}
	if store == nil || closeFn() != nil {
		t.Fatal("memory session store must be usable and closable")
	}
}
