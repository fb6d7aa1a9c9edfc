// Package cart хранит корзину покупателя в слоте сессии "cart".
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
)

const (
	defaultTTL = 24 * time.Hour
	lockShards = 64
)

// ProductLookup находит товар каталога по id.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// Service читает и изменяет корзину сессии. Каждая мутация сразу сохраняется в слот,
// поэтому оформление заказа видит то же содержимое, что и витрина.
type Service struct {
	sessions domain.SessionStore
	products ProductLookup
	metrics  *metrics.StoreMetrics
	logger   *log.Entry
	ttl      time.Duration

	// locks сериализуют read-modify-write одной сессии внутри процесса.
	locks [lockShards]sync.Mutex
}

// Option настраивает Service.
type Option func(*Service)

// WithTTL задаёт срок хранения слота корзины.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithMetrics задаёт метрики корзины.
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

// NewService создаёт сервис корзины.
func NewService(sessions domain.SessionStore, products ProductLookup, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		products: products,
		ttl:      defaultTTL,
		logger:   log.WithField("component", "cart"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get возвращает корзину сессии; пустой или истёкший слот даёт пустую корзину.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionRequired
	}

	data, err := s.sessions.Load(ctx, sessionID, domain.SlotCart)
	if errors.Is(err, domain.ErrSlotEmpty) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// Испорченный слот не должен блокировать покупателя: начинаем с пустой корзины.
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("discarding unreadable cart slot")
		return domain.Cart{}, nil
	}
	return cart, nil
}

// Add добавляет товар каталога новой позицией. Товар без изображения отклоняется
// с domain.ErrProductMediaRequired, корзина при этом не меняется.
func (s *Service) Add(ctx context.Context, sessionID, productID string) (domain.Cart, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}

	return s.mutate(ctx, sessionID, func(cart *domain.Cart) (bool, error) {
		if err := cart.AddItem(product); err != nil {
			s.metrics.RecordCartAddRejected()
			return false, err
		}
		s.metrics.RecordCartItemAdded()
		return true, nil
	})
}

// Remove удаляет первую позицию товара. Отсутствующий товар не считается ошибкой.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) (bool, error) {
		removed := cart.RemoveItem(productID)
		if removed {
			s.metrics.RecordCartItemRemoved()
		}
		return removed, nil
	})
}

// Clear очищает слот корзины.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	return s.sessions.Delete(ctx, sessionID, domain.SlotCart)
}

func (s *Service) mutate(ctx context.Context, sessionID string, apply func(*domain.Cart) (bool, error)) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionRequired
	}
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	changed, err := apply(&cart)
	if err != nil || !changed {
		return cart, err
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.sessions.Save(ctx, sessionID, domain.SlotCart, data, s.ttl); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockShards]
}
