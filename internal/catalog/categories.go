package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// CategoryInput — поля категории, которые задаёт администратор.
type CategoryInput struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

func (in CategoryInput) normalize() CategoryInput {
	return CategoryInput{
		Name:        strings.TrimSpace(in.Name),
		Emoji:       strings.TrimSpace(in.Emoji),
		Description: strings.TrimSpace(in.Description),
	}
}

// CreateCategory создаёт категорию с id = Slugify(name) и случайным градиентом.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	category, err := s.createCategory(ctx, in)
	return category, s.record(domain.AggregateCategory, "create", err)
}

func (s *Service) createCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	in = in.normalize()
	now := s.now()
	category := domain.Category{
		ID:          domain.Slugify(in.Name),
		Name:        in.Name,
		Emoji:       in.Emoji,
		Description: in.Description,
		Gradient:    s.pickGradient(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validationErrors(category.Validate()); err != nil {
		return domain.Category{}, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return domain.Category{}, err
	}

	s.emit(ctx, domain.AggregateCategory, category.ID, EventCategoryCreated, category)
	return category, nil
}

// UpdateCategory меняет имя, эмодзи и описание. Пустые поля оставляют прежние значения;
// id не пересчитывается.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	category, err := s.updateCategory(ctx, id, in)
	return category, s.record(domain.AggregateCategory, "update", err)
}

func (s *Service) updateCategory(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	in = in.normalize()
	current, err := s.categories.Get(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}

	if in.Name != "" && in.Name != current.Name {
		other, err := s.categories.GetByName(ctx, in.Name)
		switch {
		case err == nil && other.ID != current.ID:
			return domain.Category{}, domain.ErrCategoryNameTaken
		case err != nil && !errors.Is(err, domain.ErrCategoryNotFound):
			return domain.Category{}, err
		}
		current.Name = in.Name
	}
	if in.Emoji != "" {
		current.Emoji = in.Emoji
	}
	if in.Description != "" {
		current.Description = in.Description
	}
	current.UpdatedAt = s.now()

	if err := s.categories.Update(ctx, current); err != nil {
		return domain.Category{}, err
	}

	s.emit(ctx, domain.AggregateCategory, current.ID, EventCategoryUpdated, current)
	return current, nil
}

// DeleteCategory удаляет категорию, на которую не ссылается ни один товар.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.record(domain.AggregateCategory, "delete", s.deleteCategory(ctx, id))
}

func (s *Service) deleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.Get(ctx, id); err != nil {
		return err
	}

	products, err := s.products.List(ctx, domain.ProductFilter{CategoryID: id})
	if err != nil {
		return err
	}
	if len(products) > 0 {
		return domain.ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, domain.AggregateCategory, id, EventCategoryDeleted, deletedPayload{ID: id})
	return nil
}

// GetCategory возвращает категорию по id.
func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.categories.Get(ctx, id)
}

// ListCategories возвращает категории в порядке создания.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// StorefrontCategories возвращает навигацию витрины: "Todos" и затем все категории.
func (s *Service) StorefrontCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Category{domain.AllCategories()}, categories...), nil
}
