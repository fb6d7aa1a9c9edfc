// Package app собирает витрину: хранилища, сервисы, HTTP API, метрики и воркеры.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/checkout"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	healthcheck "github.com/Dasieloski/dasieloski-store/internal/health"
	"github.com/Dasieloski/dasieloski-store/internal/httpapi"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
	"github.com/Dasieloski/dasieloski-store/internal/service/idempotency"
	"github.com/Dasieloski/dasieloski-store/internal/service/outbox"
	"github.com/Dasieloski/dasieloski-store/internal/version"
)

// Run запускает витрину и блокируется до отмены ctx или ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if deps.closeFn != nil {
		defer func() {
			if err := deps.closeFn(); err != nil {
				logger.WithError(err).Warn("failed to close storage")
			}
		}()
	}

	sessions, closeSessions, err := initSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.WithError(err).Warn("failed to close session store")
		}
	}()

	storeMetrics := metrics.NewStoreMetrics()

	catalogSvc := catalog.NewService(
		deps.categories,
		deps.products,
		deps.currencies,
		catalog.WithOutbox(deps.outboxRepo),
		catalog.WithMetrics(storeMetrics),
	)
	if err := catalogSvc.EnsureSeedCurrencies(ctx); err != nil {
		return fmt.Errorf("seed currencies: %w", err)
	}

	carts := cart.NewService(sessions, catalogSvc, cart.WithTTL(cfg.SessionTTL), cart.WithMetrics(storeMetrics))
	checkoutSvc := checkout.NewService(carts, checkout.NewWhatsAppDispatcher(cfg.WhatsAppNumber), checkout.WithMetrics(storeMetrics))

	credentials, err := buildCredentialStore(cfg)
	if err != nil {
		return err
	}
	authenticator := auth.NewSessionAuthenticator(credentials, sessions, auth.WithSessionTTL(cfg.AdminSessionTTL))

	api := httpapi.NewServer(
		catalogSvc,
		carts,
		checkoutSvc,
		authenticator,
		httpapi.WithIdempotency(deps.idempotencyRepo, cfg.IdempotencyTTL),
		httpapi.WithMetrics(storeMetrics),
		httpapi.WithSessionTTL(cfg.SessionTTL),
		httpapi.WithSecureCookies(cfg.SecureCookies),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
	)

	healthHandler := newHealthHandler(cfg, deps, sessions)

	publisher, dlqPublisher, producer := initOutboxPublishers(cfg, logger)
	defer closeKafka(producer, logger)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := startWorkers(workersCtx, cfg, deps, publisher, dlqPublisher)

	metricsSrv, err := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	if err != nil {
		stopWorkers()
		<-workersDone
		return err
	}

	grpcSrv, err := startGRPCHealth(cfg.GRPCAddr, logger)
	if err != nil {
		stopWorkers()
		<-workersDone
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopWorkers()
		<-workersDone
		grpcSrv.stop(cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, logger)
		return err
	}
	httpSrv := &http.Server{Handler: api.Routes(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("version", version.String()).Infof("HTTP API слушает %s", lis.Addr())
		errCh <- httpSrv.Serve(lis)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем витрину")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownHTTP(httpSrv, logger)
	grpcSrv.stop(cfg.ShutdownTimeout, logger)
	stopWorkers()
	<-workersDone
	shutdownHTTP(metricsSrv, logger)
	return runErr
}

func buildCredentialStore(cfg Config) (auth.CredentialStore, error) {
	if cfg.AdminPasswordHash != "" {
		store, err := auth.NewStaticCredentialStore(cfg.AdminEmail, []byte(cfg.AdminPasswordHash))
		if err != nil {
			return nil, fmt.Errorf("admin credentials: %w", err)
		}
		return store, nil
	}
	store, err := auth.NewStaticCredentialStoreFromPassword(cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	return store, nil
}

func newHealthHandler(cfg Config, deps runtimeDependencies, sessions domain.SessionStore) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.GetVersion())
	handler.RegisterChecker("storage", deps.storageChecker)
	handler.RegisterChecker("sessions", healthcheck.NewSimpleChecker("sessions", sessions.Ping))
	handler.RegisterChecker("outbox", healthcheck.NewThresholdChecker("outbox", cfg.OutboxMaxPending, func(ctx context.Context) (int, error) {
		stats, err := deps.outboxRepo.Stats(ctx)
		return stats.PendingCount, err
	}))
	return handler
}

// startWorkers запускает outbox и очистку idempotency; канал закрывается,
// когда оба воркера завершились.
func startWorkers(ctx context.Context, cfg Config, deps runtimeDependencies, publisher, dlq domain.OutboxPublisher) <-chan struct{} {
	outboxOpts := []outbox.Option{
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if dlq != nil {
		outboxOpts = append(outboxOpts, outbox.WithDLQPublisher(dlq))
	}
	outboxWorker := outbox.NewWorker(deps.outboxRepo, publisher, outboxOpts...)
	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outboxWorker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanupWorker.Run(ctx)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// startMetricsServer обслуживает /metrics, /healthz, /livez и /readyz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv, nil
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
