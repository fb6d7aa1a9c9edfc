package domain

import (
	"errors"
	"fmt"
)

// Классы ошибок. HTTP-слой сопоставляет их со статусами ответа.
var (
	// ErrValidation — отсутствует обязательное поле или значение вне допустимого диапазона.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — операция адресована идентификатору, которого нет в каталоге.
	ErrNotFound = errors.New("not found")
	// ErrConflict — нарушение уникальности (например, совпадение slug категории).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized — нет действующей административной сессии или неверные учётные данные.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError описывает ошибку проверки конкретного поля.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var (
	// ErrCategoryNotFound возвращается, если категории с таким id нет.
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	// ErrProductNotFound возвращается, если товара с таким id нет.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCurrencyNotFound возвращается, если валюты с таким id нет.
	ErrCurrencyNotFound = fmt.Errorf("currency %w", ErrNotFound)

	// ErrDuplicateCategory — категория с производным id уже существует.
	ErrDuplicateCategory = fmt.Errorf("%w: category with this name already exists", ErrConflict)
	// ErrCategoryNameTaken — имя уже занято другой категорией.
	ErrCategoryNameTaken = fmt.Errorf("%w: another category already uses this name", ErrConflict)
	// ErrCategoryInUse — категорию нельзя удалить, пока на неё ссылаются товары.
	ErrCategoryInUse = fmt.Errorf("%w: category still has products", ErrConflict)
	// ErrDuplicateProduct — товар с таким id уже сохранён.
	ErrDuplicateProduct = fmt.Errorf("%w: product already exists", ErrConflict)
	// ErrDuplicateCurrency — валюта с таким кодом уже существует.
	ErrDuplicateCurrency = fmt.Errorf("%w: currency code already exists", ErrConflict)
	// ErrDefaultCurrencyDelete — валюту по умолчанию удалять нельзя.
	ErrDefaultCurrencyDelete = fmt.Errorf("%w: default currency cannot be deleted", ErrConflict)

	// ErrProductMediaRequired — товар без изображения нельзя положить в корзину.
	ErrProductMediaRequired = NewValidationError("images", "product has no display image")

	// ErrInvalidCredentials — email или пароль администратора не совпали.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	// ErrAdminSessionRequired — запрос к админке без действующего токена.
	ErrAdminSessionRequired = fmt.Errorf("admin session required: %w", ErrUnauthorized)

	// ErrSessionRequired — в контексте запроса нет сессии покупателя.
	ErrSessionRequired = errors.New("session is required")
	// ErrSlotEmpty — в слоте сессии ещё ничего не сохранено (или запись истекла).
	ErrSlotEmpty = errors.New("session slot is empty")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsValidation проверяет, относится ли ошибка к классу ошибок валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound проверяет, относится ли ошибка к классу "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict проверяет, относится ли ошибка к конфликтам уникальности.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized проверяет, относится ли ошибка к ошибкам авторизации.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
