package domain

import "context"

// CategoryRepository описывает требования к хранилищу категорий.
type CategoryRepository interface {
	// Create сохраняет новую категорию или возвращает ErrDuplicateCategory, если id занят.
	Create(ctx context.Context, category Category) error
	// Get возвращает категорию по id или ErrCategoryNotFound.
	Get(ctx context.Context, id string) (Category, error)
	// GetByName ищет категорию по точному имени или возвращает ErrCategoryNotFound.
	GetByName(ctx context.Context, name string) (Category, error)
	// List возвращает категории в порядке создания.
	List(ctx context.Context) ([]Category, error)
	// Update перезаписывает изменяемые поля (name, emoji, description).
	Update(ctx context.Context, category Category) error
	// Delete удаляет категорию или возвращает ErrCategoryNotFound.
	Delete(ctx context.Context, id string) error
}

// ProductRepository описывает требования к хранилищу товаров.
// Выборки возвращают товары с вложенной категорией и изображениями.
type ProductRepository interface {
	Create(ctx context.Context, product Product) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
}

// CurrencyRepository описывает требования к хранилищу валют.
type CurrencyRepository interface {
	// Create сохраняет валюту; код должен быть уникален (ErrDuplicateCurrency).
	Create(ctx context.Context, currency Currency) error
	Get(ctx context.Context, id string) (Currency, error)
	List(ctx context.Context) ([]Currency, error)
	Update(ctx context.Context, currency Currency) error
	// SetDefault делает валюту единственной валютой по умолчанию.
	SetDefault(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
