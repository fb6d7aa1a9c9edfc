package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const currencyColumns = `id, code, symbol, exchange_rate, is_default, created_at, updated_at`

type currencyRepository struct {
	db *sql.DB
}

// NewCurrencyRepository создаёт PostgreSQL-реализацию CurrencyRepository.
// Единственность валюты по умолчанию гарантирует частичный уникальный индекс.
func NewCurrencyRepository(store *Store) domain.CurrencyRepository {
	return &currencyRepository{db: store.DB()}
}

func (r *currencyRepository) Create(ctx context.Context, currency domain.Currency) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if currency.IsDefault {
			if err := clearDefault(ctx, tx, currency.UpdatedAt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO currencies (`+currencyColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			currency.ID,
			currency.Code,
			currency.Symbol,
			currency.ExchangeRate,
			currency.IsDefault,
			currency.CreatedAt.UTC(),
			currency.UpdatedAt.UTC(),
		)
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCurrency
		}
		if err != nil {
			return fmt.Errorf("insert currency: %w", err)
		}
		return nil
	})
}

func (r *currencyRepository) Get(ctx context.Context, id string) (domain.Currency, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	currency, err := scanCurrency(r.db.QueryRowContext(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Currency{}, domain.ErrCurrencyNotFound
	}
	return currency, err
}

func (r *currencyRepository) List(ctx context.Context) ([]domain.Currency, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Currency, 0)
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, currency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	return result, nil
}

// Update меняет код, символ и курс; флаг по умолчанию меняется только через SetDefault.
func (r *currencyRepository) Update(ctx context.Context, currency domain.Currency) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE currencies
		SET code = $2,
		    symbol = $3,
		    exchange_rate = $4,
		    updated_at = $5
		WHERE id = $1
	`, currency.ID, currency.Code, currency.Symbol, currency.ExchangeRate, currency.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return domain.ErrDuplicateCurrency
	}
	if err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	return rowsAffectedOr(res, domain.ErrCurrencyNotFound)
}

func (r *currencyRepository) SetDefault(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM currencies WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check currency: %w", err)
		}
		if !exists {
			return domain.ErrCurrencyNotFound
		}
		if err := clearDefault(ctx, tx, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE currencies SET is_default = TRUE, updated_at = $2 WHERE id = $1
		`, id, now); err != nil {
			return fmt.Errorf("set default currency: %w", err)
		}
		return nil
	})
}

// Delete удаляет валюту; валюту по умолчанию удалить нельзя.
func (r *currencyRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var isDefault bool
		err := tx.QueryRowContext(ctx, `SELECT is_default FROM currencies WHERE id = $1 FOR UPDATE`, id).Scan(&isDefault)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCurrencyNotFound
		}
		if err != nil {
			return fmt.Errorf("lock currency: %w", err)
		}
		if isDefault {
			return domain.ErrDefaultCurrencyDelete
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM currencies WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete currency: %w", err)
		}
		return nil
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE currencies SET is_default = FALSE, updated_at = $1 WHERE is_default
	`, at.UTC()); err != nil {
		return fmt.Errorf("clear default currency: %w", err)
	}
	return nil
}

func scanCurrency(row rowScanner) (domain.Currency, error) {
	var c domain.Currency
	if err := row.Scan(&c.ID, &c.Code, &c.Symbol, &c.ExchangeRate, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Currency{}, err
		}
		return domain.Currency{}, fmt.Errorf("scan currency: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

var _ domain.CurrencyRepository = (*currencyRepository)(nil)
