package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultWhatsAppNumber — номер получателя заказов по умолчанию.
const DefaultWhatsAppNumber = "1234567890"

const whatsAppBaseURL = "https://wa.me/"

var (
	// ErrDispatch — ссылку на чат не удалось построить.
	ErrDispatch = errors.New("order dispatch failed")
	// ErrInvalidDestination — номер получателя пуст или содержит не только цифры.
	ErrInvalidDestination = fmt.Errorf("%w: destination must contain digits only", ErrDispatch)
)

// Link — ссылка, которую клиент открывает в новой вкладке.
type Link struct {
	URL string `json:"url"`
}

// Dispatcher передаёт готовое сообщение во внешний канал.
type Dispatcher interface {
	Dispatch(ctx context.Context, message string) (Link, error)
}

// WhatsAppDispatcher строит ссылку https://wa.me/<номер>?text=<сообщение>.
// Сообщение никуда не отправляется: клиент сам открывает ссылку.
type WhatsAppDispatcher struct {
	number string
}

// NewWhatsAppDispatcher создаёт dispatcher; пустой номер заменяется DefaultWhatsAppNumber.
func NewWhatsAppDispatcher(number string) *WhatsAppDispatcher {
	number = strings.TrimSpace(number)
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	return &WhatsAppDispatcher{number: number}
}

// Number возвращает номер получателя.
func (d *WhatsAppDispatcher) Number() string {
	return d.number
}

// Dispatch кодирует сообщение и возвращает ссылку. Повторных попыток нет.
func (d *WhatsAppDispatcher) Dispatch(ctx context.Context, message string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if !digitsOnly(d.number) {
		return Link{}, ErrInvalidDestination
	}
	return Link{URL: whatsAppBaseURL + d.number + "?text=" + encodeURIComponent(message)}, nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
