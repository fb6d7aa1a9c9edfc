package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// productRepositoryInMemory хранит товары в памяти; категория подставляется при чтении.
type productRepositoryInMemory struct {
	mu         sync.RWMutex
	items      map[string]domain.Product
	order      []string
	categories domain.CategoryRepository
}

// NewProductRepository возвращает in-memory репозиторий товаров.
// categories используется для заполнения Product.Category в выборках.
func NewProductRepository(categories domain.CategoryRepository) domain.ProductRepository {
	return &productRepositoryInMemory{
		items:      make(map[string]domain.Product),
		categories: categories,
	}
}

func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrDuplicateProduct
	}
	r.items[product.ID] = cloneProduct(product)
	r.order = append(r.order, product.ID)
	return nil
}

func (r *productRepositoryInMemory) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	product, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return r.withCategory(ctx, cloneProduct(product))
}

// List возвращает товары, подходящие под фильтр, в порядке создания.
func (r *productRepositoryInMemory) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		if product := r.items[id]; filter.Matches(product) {
			matched = append(matched, cloneProduct(product))
		}
	}
	r.mu.RUnlock()

	for i := range matched {
		product, err := r.withCategory(ctx, matched[i])
		if err != nil {
			return nil, err
		}
		matched[i] = product
	}
	return matched, nil
}

// Update перезаписывает товар целиком, сохраняя исходный createdAt.
func (r *productRepositoryInMemory) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.CreatedAt = current.CreatedAt
	r.items[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
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

func (r *productRepositoryInMemory) withCategory(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r.categories == nil {
		return product, nil
	}
	category, err := r.categories.Get(ctx, product.CategoryID)
	switch {
	case err == nil:
		product.Category = &category
	case errors.Is(err, domain.ErrCategoryNotFound):
		product.Category = nil
	default:
		return domain.Product{}, err
	}
	return product, nil
}

func cloneProduct(src domain.Product) domain.Product {
	dst := src
	dst.Specifications = append(make([]string, 0, len(src.Specifications)), src.Specifications...)
	dst.Images = append(make([]domain.ProductImage, 0, len(src.Images)), src.Images...)
	dst.Category = nil
	return dst
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
