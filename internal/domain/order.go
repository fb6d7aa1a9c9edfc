package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Customer — контактные данные покупателя из формы оформления заказа.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Normalize обрезает пробелы по краям всех полей.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

// Validate проверяет только наличие полей: формат не проверяется.
func (c Customer) Validate() []error {
	var errs []error
	fields := []struct {
		name, value string
	}{
		{"name", c.Name},
		{"phone", c.Phone},
		{"email", c.Email},
		{"address", c.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, NewValidationError(f.name, "is required"))
		}
	}
	return errs
}

// OrderSummary — производное представление заказа для сообщения. Нигде не хранится.
type OrderSummary struct {
	Customer Customer
	Lines    []CartLine
	Total    decimal.Decimal
}

// NewOrderSummary собирает сводку по текущему содержимому корзины.
func NewOrderSummary(customer Customer, cart Cart) OrderSummary {
	return OrderSummary{
		Customer: customer,
		Lines:    cart.Lines(),
		Total:    cart.Total(),
	}
}
