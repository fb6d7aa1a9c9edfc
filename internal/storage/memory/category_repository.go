package memory

import (
	"context"
	"sync"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// categoryRepositoryInMemory хранит категории в памяти процесса в порядке создания.
type categoryRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Category
	order []string
}

// NewCategoryRepository возвращает in-memory репозиторий категорий.
func NewCategoryRepository() domain.CategoryRepository {
	return &categoryRepositoryInMemory{
		items: make(map[string]domain.Category),
	}
}

// Create сохраняет категорию, если id ещё не занят.
func (r *categoryRepositoryInMemory) Create(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[category.ID]; exists {
		return domain.ErrDuplicateCategory
	}
	r.items[category.ID] = category
	r.order = append(r.order, category.ID)
	return nil
}

func (r *categoryRepositoryInMemory) Get(_ context.Context, id string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.items[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (r *categoryRepositoryInMemory) GetByName(_ context.Context, name string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if category := r.items[id]; category.Name == name {
			return category, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (r *categoryRepositoryInMemory) List(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.items[id])
	}
	return result, nil
}

// Update перезаписывает изменяемые поля; id, gradient и createdAt остаются прежними.
func (r *categoryRepositoryInMemory) Update(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[category.ID]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	current.Name = category.Name
	current.Emoji = category.Emoji
	current.Description = category.Description
	current.UpdatedAt = category.UpdatedAt
	r.items[category.ID] = current
	return nil
}

func (r *categoryRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCategoryNotFound
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

var _ domain.CategoryRepository = (*categoryRepositoryInMemory)(nil)
