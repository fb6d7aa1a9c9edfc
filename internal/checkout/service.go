package checkout

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
)

// CartReader читает корзину сессии без изменения.
type CartReader interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
}

// Result — итог оформления: ссылка, текст сообщения и сумма.
type Result struct {
	Link    Link      `json:"link"`
	Message string    `json:"message"`
	Cart    cart.View `json:"cart"`
}

// Service оформляет заказ: проверяет форму, собирает сообщение и строит ссылку.
// Корзина после оформления не очищается.
type Service struct {
	carts      CartReader
	dispatcher Dispatcher
	metrics    *metrics.StoreMetrics
	logger     *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics задаёт метрики оформления заказа.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService создаёт сервис оформления заказа.
func NewService(carts CartReader, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		carts:      carts,
		dispatcher: dispatcher,
		logger:     log.WithField("component", "checkout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview возвращает корзину, которую увидит оформление заказа.
func (s *Service) Preview(ctx context.Context, sessionID string) (cart.View, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return cart.View{}, err
	}
	return cart.NewView(c), nil
}

// PlaceOrder проверяет данные покупателя, читает корзину и строит ссылку на чат.
// Ошибка построения ссылки только логируется и возвращается вызывающему.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, customer domain.Customer) (Result, error) {
	customer = customer.Normalize()
	if errs := customer.Validate(); len(errs) > 0 {
		s.metrics.RecordCheckoutRejected()
		return Result{}, errors.Join(errs...)
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("read cart: %w", err)
	}

	message := ComposeOrderMessage(customer, c)
	link, err := s.dispatcher.Dispatch(ctx, message)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("order dispatch failed")
		return Result{}, err
	}

	total := c.Total()
	s.metrics.RecordCheckoutDispatched(total, c.Len())
	s.logger.WithFields(log.Fields{
		"session_id": sessionID,
		"lines":      c.Len(),
		"total":      total.StringFixed(2),
	}).Info("order dispatched")

	return Result{Link: link, Message: message, Cart: cart.NewView(c)}, nil
}
