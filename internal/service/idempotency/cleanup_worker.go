// Package idempotency удаляет просроченные ключи Idempotency-Key административного API.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const (
	defaultInterval  = 10 * time.Minute
	defaultBatchSize = 500
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_idempotency_cleanup_runs_total",
		Help: "Idempotency cleanup runs grouped by result.",
	}, []string{"result"})
	sweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_idempotency_cleanup_deleted_total",
		Help: "Expired idempotency records removed.",
	})
	sweepLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_idempotency_cleanup_last_deleted",
		Help: "Records removed by the last cleanup run.",
	})
)

// SweepResult — итог одного прохода очистки.
type SweepResult struct {
	Cutoff  time.Time
	Deleted int
	Batches int
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithInterval задаёт паузу между проходами; неположительное значение игнорируется.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize ограничивает число записей, удаляемых одним запросом.
func WithBatchSize(size int) CleanupOption {
	return func(w *CleanupWorker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) CleanupOption {
	return func(w *CleanupWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// CleanupWorker периодически удаляет записи, чей TTL истёк.
type CleanupWorker struct {
	repo      domain.IdempotencyRepository
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewCleanupWorker создаёт воркер очистки.
func NewCleanupWorker(repo domain.IdempotencyRepository, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:      repo,
		logger:    log.WithField("component", "idempotency-cleanup"),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup disabled: no repository")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.report(w.Sweep(ctx))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CleanupWorker) report(res SweepResult, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		sweepRuns.WithLabelValues("error").Inc()
		w.logger.WithError(err).WithField("deleted", res.Deleted).Warn("idempotency cleanup failed")
		return
	}

	sweepRuns.WithLabelValues("ok").Inc()
	sweepLastDeleted.Set(float64(res.Deleted))
	if res.Deleted > 0 {
		w.logger.WithFields(log.Fields{
			"deleted": res.Deleted,
			"batches": res.Batches,
			"cutoff":  res.Cutoff.Format(time.RFC3339),
		}).Info("expired idempotency keys removed")
	}
}

// Sweep удаляет все записи с TTL не позже текущего момента.
// Порция короче batchSize означает, что просроченных записей больше нет.
func (w *CleanupWorker) Sweep(ctx context.Context) (SweepResult, error) {
	res := SweepResult{Cutoff: w.now()}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		deleted, err := w.repo.DeleteExpired(ctx, res.Cutoff, w.batchSize)
		if err != nil {
			return res, err
		}
		res.Batches++
		res.Deleted += deleted
		sweepDeleted.Add(float64(deleted))

		if deleted < w.batchSize {
			return res, nil
		}
	}
}
