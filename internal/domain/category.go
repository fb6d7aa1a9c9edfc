package domain

import (
	"strings"
	"time"
)

// AllCategoriesID — идентификатор псевдокатегории витрины "все товары".
const AllCategoriesID = "todos"

// CategoryGradients — фиксированная палитра градиентов, из которой случайно
// выбирается оформление новой категории.
var CategoryGradients = []string{
	"from-pink-500 to-purple-500",
	"from-blue-500 to-cyan-500",
	"from-green-500 to-emerald-500",
	"from-orange-500 to-red-500",
	"from-violet-500 to-purple-500",
	"from-yellow-500 to-orange-500",
	"from-indigo-500 to-blue-500",
	"from-red-500 to-pink-500",
	"from-gray-500 to-gray-700",
	"from-teal-500 to-green-500",
}

// Category — раздел каталога. ID выводится из имени через Slugify.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	Description string    `json:"description"`
	Gradient    string    `json:"gradient"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AllCategories возвращает псевдокатегорию "Todos", которую витрина ставит первой.
func AllCategories() Category {
	return Category{
		ID:       AllCategoriesID,
		Name:     "Todos",
		Emoji:    "🌟",
		Gradient: CategoryGradients[0],
	}
}

// IsCategoryGradient сообщает, входит ли значение в палитру.
func IsCategoryGradient(gradient string) bool {
	for _, g := range CategoryGradients {
		if g == gradient {
			return true
		}
	}
	return false
}

// Validate проверяет обязательные поля категории.
func (c *Category) Validate() []error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, NewValidationError("name", "is required"))
	}
	if strings.TrimSpace(c.Emoji) == "" {
		errs = append(errs, NewValidationError("emoji", "is required"))
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, NewValidationError("description", "is required"))
	}
	switch c.ID {
	case "":
		errs = append(errs, NewValidationError("name", "must contain at least one letter or digit"))
	case AllCategoriesID:
		errs = append(errs, NewValidationError("name", "is reserved for the all-products category"))
	}
	return errs
}
