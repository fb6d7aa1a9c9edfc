package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// CurrencyInput — поля валюты. При обновлении nil сохраняет текущее значение.
type CurrencyInput struct {
	Code         *string          `json:"code"`
	Symbol       *string          `json:"symbol"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate"`
	IsDefault    bool             `json:"isDefault"`
}

// EnsureSeedCurrencies заполняет пустой справочник валютами CUP и USD.
func (s *Service) EnsureSeedCurrencies(ctx context.Context) error {
	existing, err := s.currencies.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range domain.SeedCurrencies() {
		now := s.now()
		seed.ID = strings.ToLower(seed.Code)
		seed.CreatedAt, seed.UpdatedAt = now, now
		if err := s.currencies.Create(ctx, seed); err != nil {
			return err
		}
	}
	s.logger.Info("seeded default currencies")
	return nil
}

// ListCurrencies возвращает валюты в порядке создания.
func (s *Service) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.currencies.List(ctx)
}

// CreateCurrency добавляет валюту. Первая валюта справочника становится валютой по умолчанию.
func (s *Service) CreateCurrency(ctx context.Context, in CurrencyInput) (domain.Currency, error) {
	currency, err := s.createCurrency(ctx, in)
	return currency, s.record(domain.AggregateCurrency, "create", err)
}

func (s *Service) createCurrency(ctx context.Context, in CurrencyInput) (domain.Currency, error) {
	now := s.now()
	currency := domain.Currency{
		ID:        s.newID(),
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyCurrencyInput(&currency, in)
	if err := validationErrors(currency.Validate()); err != nil {
		return domain.Currency{}, err
	}

	existing, err := s.currencies.List(ctx)
	if err != nil {
		return domain.Currency{}, err
	}
	if len(existing) == 0 {
		currency.IsDefault = true
	}

	if err := s.currencies.Create(ctx, currency); err != nil {
		return domain.Currency{}, err
	}

	s.emit(ctx, domain.AggregateCurrency, currency.ID, EventCurrencyCreated, currency)
	return currency, nil
}

// UpdateCurrency меняет код, символ и курс валюты.
func (s *Service) UpdateCurrency(ctx context.Context, id string, in CurrencyInput) (domain.Currency, error) {
	currency, err := s.updateCurrency(ctx, id, in)
	return currency, s.record(domain.AggregateCurrency, "update", err)
}

func (s *Service) updateCurrency(ctx context.Context, id string, in CurrencyInput) (domain.Currency, error) {
	current, err := s.currencies.Get(ctx, id)
	if err != nil {
		return domain.Currency{}, err
	}

	applyCurrencyInput(&current, in)
	current.UpdatedAt = s.now()
	if err := validationErrors(current.Validate()); err != nil {
		return domain.Currency{}, err
	}
	if err := s.currencies.Update(ctx, current); err != nil {
		return domain.Currency{}, err
	}
	if in.IsDefault && !current.IsDefault {
		if err := s.currencies.SetDefault(ctx, id); err != nil {
			return domain.Currency{}, err
		}
	}

	stored, err := s.currencies.Get(ctx, id)
	if err != nil {
		return domain.Currency{}, err
	}
	s.emit(ctx, domain.AggregateCurrency, id, EventCurrencyUpdated, stored)
	return stored, nil
}

// SetDefaultCurrency делает валюту единственной валютой по умолчанию.
func (s *Service) SetDefaultCurrency(ctx context.Context, id string) (domain.Currency, error) {
	currency, err := s.setDefaultCurrency(ctx, id)
	return currency, s.record(domain.AggregateCurrency, "set_default", err)
}

func (s *Service) setDefaultCurrency(ctx context.Context, id string) (domain.Currency, error) {
	if err := s.currencies.SetDefault(ctx, id); err != nil {
		return domain.Currency{}, err
	}
	currency, err := s.currencies.Get(ctx, id)
	if err != nil {
		return domain.Currency{}, err
	}
	s.emit(ctx, domain.AggregateCurrency, id, EventCurrencyDefaultChanged, currency)
	return currency, nil
}

// DeleteCurrency удаляет валюту; валюту по умолчанию удалить нельзя.
func (s *Service) DeleteCurrency(ctx context.Context, id string) error {
	err := s.currencies.Delete(ctx, id)
	if err == nil {
		s.emit(ctx, domain.AggregateCurrency, id, EventCurrencyDeleted, deletedPayload{ID: id})
	}
	return s.record(domain.AggregateCurrency, "delete", err)
}

func applyCurrencyInput(c *domain.Currency, in CurrencyInput) {
	if in.Code != nil {
		c.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.Symbol != nil {
		c.Symbol = strings.TrimSpace(*in.Symbol)
	}
	if in.ExchangeRate != nil {
		c.ExchangeRate = *in.ExchangeRate
	}
}
