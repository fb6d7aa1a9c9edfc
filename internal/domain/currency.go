package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency — валюта магазина с курсом относительно базовой (CUP).
type Currency struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Symbol       string          `json:"symbol"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	IsDefault    bool            `json:"isDefault"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// MarshalJSON кодирует курс JSON-числом.
func (c Currency) MarshalJSON() ([]byte, error) {
	type plain Currency
	return json.Marshal(struct {
		plain
		ExchangeRate json.Number `json:"exchangeRate"`
	}{plain(c), JSONNumber(c.ExchangeRate)})
}

// Validate проверяет обязательные поля валюты.
func (c *Currency) Validate() []error {
	var errs []error
	if strings.TrimSpace(c.Code) == "" {
		errs = append(errs, NewValidationError("code", "is required"))
	}
	if strings.TrimSpace(c.Symbol) == "" {
		errs = append(errs, NewValidationError("symbol", "is required"))
	}
	if !c.ExchangeRate.IsPositive() {
		errs = append(errs, NewValidationError("exchangeRate", "must be greater than zero"))
	}
	return errs
}

// SeedCurrencies — валюты, с которыми магазин стартует на пустом хранилище.
func SeedCurrencies() []Currency {
	return []Currency{
		{Code: "CUP", Symbol: "$", ExchangeRate: decimal.NewFromInt(1), IsDefault: true},
		{Code: "USD", Symbol: "$", ExchangeRate: decimal.NewFromInt(120)},
	}
}
