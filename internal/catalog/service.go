// Package catalog реализует административные и витринные операции каталога:
// категории, товары и валюты.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
)

// Service — точка входа для операций над каталогом.
type Service struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
	currencies domain.CurrencyRepository
	outbox     domain.OutboxRepository
	metrics    *metrics.StoreMetrics
	logger     *log.Entry

	now          func() time.Time
	newID        func() string
	pickGradient func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает публикацию событий изменения каталога через outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = repo
	}
}

// WithMetrics задаёт метрики операций каталога.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator подменяет генератор идентификаторов товаров, изображений и валют.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithGradientPicker подменяет выбор градиента новой категории.
func WithGradientPicker(pick func() string) Option {
	return func(s *Service) {
		s.pickGradient = pick
	}
}

// NewService собирает сервис каталога поверх репозиториев.
func NewService(
	categories domain.CategoryRepository,
	products domain.ProductRepository,
	currencies domain.CurrencyRepository,
	opts ...Option,
) *Service {
	s := &Service{
		categories: categories,
		products:   products,
		currencies: currencies,
		logger:     log.WithField("component", "catalog"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		pickGradient: func() string {
			return domain.CategoryGradients[rand.IntN(len(domain.CategoryGradients))]
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record фиксирует результат операции в метриках и возвращает err без изменений.
func (s *Service) record(entity, op string, err error) error {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case domain.IsValidation(err), domain.IsNotFound(err), domain.IsConflict(err):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
		s.logger.WithError(err).WithFields(log.Fields{"entity": entity, "op": op}).Error("catalog operation failed")
	}
	s.metrics.RecordCatalogOperation(entity, op, result)
	return err
}

// emit ставит событие в outbox. Ошибка outbox не отменяет уже выполненную запись.
func (s *Service) emit(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) {
	if s.outbox == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to encode catalog event")
		return
	}

	_, err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     s.now(),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type":   eventType,
			"aggregate_id": aggregateID,
		}).Warn("failed to enqueue catalog event")
	}
}

func validationErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
