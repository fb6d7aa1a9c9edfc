package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

type currencyRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Currency
	order []string
}

// NewCurrencyRepository возвращает in-memory репозиторий валют.
func NewCurrencyRepository() domain.CurrencyRepository {
	return &currencyRepositoryInMemory{
		items: make(map[string]domain.Currency),
	}
}

// Create сохраняет валюту; код сравнивается без учёта регистра.
func (r *currencyRepositoryInMemory) Create(_ context.Context, currency domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[currency.ID]; exists {
		return domain.ErrDuplicateCurrency
	}
	if r.codeTakenLocked(currency.Code, currency.ID) {
		return domain.ErrDuplicateCurrency
	}
	if currency.IsDefault {
		r.clearDefaultLocked()
	}
	r.items[currency.ID] = currency
	r.order = append(r.order, currency.ID)
	return nil
}

func (r *currencyRepositoryInMemory) Get(_ context.Context, id string) (domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	currency, ok := r.items[id]
	if !ok {
		return domain.Currency{}, domain.ErrCurrencyNotFound
	}
	return currency, nil
}

func (r *currencyRepositoryInMemory) List(_ context.Context) ([]domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Currency, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.items[id])
	}
	return result, nil
}

// Update меняет код, символ и курс; флаг по умолчанию меняется только через SetDefault.
func (r *currencyRepositoryInMemory) Update(_ context.Context, currency domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[currency.ID]
	if !ok {
		return domain.ErrCurrencyNotFound
	}
	if r.codeTakenLocked(currency.Code, currency.ID) {
		return domain.ErrDuplicateCurrency
	}
	current.Code = currency.Code
	current.Symbol = currency.Symbol
	current.ExchangeRate = currency.ExchangeRate
	current.UpdatedAt = currency.UpdatedAt
	r.items[currency.ID] = current
	return nil
}

func (r *currencyRepositoryInMemory) SetDefault(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currency, ok := r.items[id]
	if !ok {
		return domain.ErrCurrencyNotFound
	}
	r.clearDefaultLocked()
	currency.IsDefault = true
	r.items[id] = currency
	return nil
}

func (r *currencyRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currency, ok := r.items[id]
	if !ok {
		return domain.ErrCurrencyNotFound
	}
	if currency.IsDefault {
		return domain.ErrDefaultCurrencyDelete
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *currencyRepositoryInMemory) codeTakenLocked(code, exceptID string) bool {
	for id, existing := range r.items {
		if id != exceptID && strings.EqualFold(existing.Code, code) {
			return true
		}
	}
	return false
}

func (r *currencyRepositoryInMemory) clearDefaultLocked() {
	for id, existing := range r.items {
		if existing.IsDefault {
			existing.IsDefault = false
			r.items[id] = existing
		}
	}
}

var _ domain.CurrencyRepository = (*currencyRepositoryInMemory)(nil)
