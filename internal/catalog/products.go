package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// ProductInput — поля товара из административной формы. Nil означает "поле не передано":
// при создании обязательные поля должны быть заданы, при обновлении nil сохраняет
// текущее значение.
type ProductInput struct {
	Name                *string                `json:"name"`
	Price               *decimal.Decimal       `json:"price"`
	Emoji               *string                `json:"emoji"`
	Description         *string                `json:"description"`
	DetailedDescription *string                `json:"detailedDescription"`
	Specifications      *[]string              `json:"specifications"`
	Stock               *int                   `json:"stock"`
	CategoryID          *string                `json:"categoryId"`
	Images              *[]domain.ProductImage `json:"images"`
	// Image — адрес единственного изображения; становится первым в Images.
	Image *string `json:"image"`
}

// CreateProduct создаёт товар. detailedDescription по умолчанию равно description,
// specifications — пустой список, stock — 0.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	product, err := s.createProduct(ctx, in)
	return product, s.record(domain.AggregateProduct, "create", err)
}

func (s *Service) createProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	var errs []error
	required := []struct {
		field string
		value *string
	}{
		{"name", in.Name},
		{"description", in.Description},
		{"emoji", in.Emoji},
		{"categoryId", in.CategoryID},
	}
	for _, r := range required {
		if r.value == nil || strings.TrimSpace(*r.value) == "" {
			errs = append(errs, domain.NewValidationError(r.field, "is required"))
		}
	}
	if in.Price == nil {
		errs = append(errs, domain.NewValidationError("price", "is required"))
	}
	if err := validationErrors(errs); err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product := domain.Product{
		ID:             s.newID(),
		Specifications: []string{},
		Images:         []domain.ProductImage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.applyProductInput(&product, in)
	if product.DetailedDescription == "" {
		product.DetailedDescription = product.Description
	}

	if err := s.validateProduct(ctx, &product); err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	stored, err := s.products.Get(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}
	s.emit(ctx, domain.AggregateProduct, stored.ID, EventProductCreated, stored)
	return stored, nil
}

// UpdateProduct частично обновляет товар: переданные поля заменяют сохранённые.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	product, err := s.updateProduct(ctx, id, in)
	return product, s.record(domain.AggregateProduct, "update", err)
}

func (s *Service) updateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	s.applyProductInput(&current, in)
	current.Category = nil
	current.UpdatedAt = s.now()

	if err := s.validateProduct(ctx, &current); err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Update(ctx, current); err != nil {
		return domain.Product{}, err
	}

	stored, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.emit(ctx, domain.AggregateProduct, stored.ID, EventProductUpdated, stored)
	return stored, nil
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if err == nil {
		s.emit(ctx, domain.AggregateProduct, id, EventProductDeleted, deletedPayload{ID: id})
	}
	return s.record(domain.AggregateProduct, "delete", err)
}

// GetProduct возвращает товар с категорией и изображениями.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

// ListProducts возвращает товары витрины по фильтру категории и строке поиска.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.CategoryID = strings.TrimSpace(filter.CategoryID)
	filter.Search = strings.TrimSpace(filter.Search)
	return s.products.List(ctx, filter)
}

func (s *Service) applyProductInput(p *domain.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Emoji != nil {
		p.Emoji = strings.TrimSpace(*in.Emoji)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.DetailedDescription != nil {
		p.DetailedDescription = strings.TrimSpace(*in.DetailedDescription)
	}
	if in.Specifications != nil {
		p.Specifications = compactStrings(*in.Specifications)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.Images != nil {
		p.Images = append([]domain.ProductImage{}, *in.Images...)
	}
	if in.Image != nil {
		if url := strings.TrimSpace(*in.Image); url != "" {
			p.Images = append([]domain.ProductImage{{URL: url}}, withoutURL(p.Images, url)...)
		}
	}
	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = s.newID()
		}
		if p.Images[i].Alt == "" {
			p.Images[i].Alt = p.Name
		}
	}
}

func (s *Service) validateProduct(ctx context.Context, p *domain.Product) error {
	errs := p.Validate()
	if p.CategoryID != "" {
		_, err := s.categories.Get(ctx, p.CategoryID)
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			errs = append(errs, domain.NewValidationError("categoryId", "unknown category"))
		case err != nil:
			return err
		}
	}
	return validationErrors(errs)
}

func compactStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func withoutURL(images []domain.ProductImage, url string) []domain.ProductImage {
	out := make([]domain.ProductImage, 0, len(images))
	for _, img := range images {
		if img.URL != url {
			out = append(out, img)
		}
	}
	return out
}
