package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductImage — изображение товара; первое изображение используется витриной.
type ProductImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Product — товар каталога вместе с категорией и изображениями.
type Product struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Emoji               string          `json:"emoji"`
	Description         string          `json:"description"`
	DetailedDescription string          `json:"detailedDescription"`
	Specifications      []string        `json:"specifications"`
	Stock               int             `json:"stock"`
	// Quantity — необязательный множитель количества для корзины (0 означает 1).
	Quantity   int            `json:"quantity,omitempty"`
	CategoryID string         `json:"categoryId"`
	Category   *Category      `json:"category,omitempty"`
	Images     []ProductImage `json:"images"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// MarshalJSON кодирует цену JSON-числом.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(p), JSONNumber(p.Price)})
}

// HasDisplayMedia сообщает, есть ли у товара хотя бы одно изображение с адресом.
func (p Product) HasDisplayMedia() bool {
	for _, img := range p.Images {
		if strings.TrimSpace(img.URL) != "" {
			return true
		}
	}
	return false
}

// Validate проверяет инварианты товара и возвращает список замечаний.
func (p *Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, NewValidationError("name", "is required"))
	}
	if p.Price.IsNegative() {
		errs = append(errs, NewValidationError("price", "must be non-negative"))
	}
	if strings.TrimSpace(p.CategoryID) == "" {
		errs = append(errs, NewValidationError("categoryId", "is required"))
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, NewValidationError("description", "is required"))
	}
	if strings.TrimSpace(p.Emoji) == "" {
		errs = append(errs, NewValidationError("emoji", "is required"))
	}
	if p.Stock < 0 {
		errs = append(errs, NewValidationError("stock", "must be non-negative"))
	}
	if p.Quantity < 0 {
		errs = append(errs, NewValidationError("quantity", "must be non-negative"))
	}
	return errs
}

// ProductFilter — условия выборки витрины.
type ProductFilter struct {
	// CategoryID ограничивает выборку категорией; пусто или "todos" — все категории.
	CategoryID string
	// Search — подстрока имени или описания без учёта регистра.
	Search string
}

// Matches проверяет товар на соответствие фильтру.
func (f ProductFilter) Matches(p Product) bool {
	if f.CategoryID != "" && f.CategoryID != AllCategoriesID && p.CategoryID != f.CategoryID {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}
