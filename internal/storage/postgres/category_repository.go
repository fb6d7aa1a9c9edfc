package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const categoryColumns = `id, name, emoji, description, gradient, created_at, updated_at`

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository создаёт PostgreSQL-реализацию CategoryRepository.
func NewCategoryRepository(store *Store) domain.CategoryRepository {
	return &categoryRepository{db: store.DB()}
}

func (r *categoryRepository) Create(ctx context.Context, category domain.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		category.ID,
		category.Name,
		category.Emoji,
		category.Description,
		category.Gradient,
		category.CreatedAt.UTC(),
		category.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCategory
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Get(ctx context.Context, id string) (domain.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (domain.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name)
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return result, nil
}

// Update меняет name, emoji и description; id и gradient не трогаются.
func (r *categoryRepository) Update(ctx context.Context, category domain.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $2,
		    emoji = $3,
		    description = $4,
		    updated_at = $5
		WHERE id = $1
	`, category.ID, category.Name, category.Emoji, category.Description, category.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCategoryNameTaken
		}
		return fmt.Errorf("update category: %w", err)
	}
	return rowsAffectedOr(res, domain.ErrCategoryNotFound)
}

// Delete удаляет категорию; ссылающиеся товары блокируют удаление (ON DELETE RESTRICT).
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return rowsAffectedOr(res, domain.ErrCategoryNotFound)
}

func (r *categoryRepository) getOne(ctx context.Context, query string, arg string) (domain.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Emoji, &c.Description, &c.Gradient, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, err
		}
		return domain.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

var _ domain.CategoryRepository = (*categoryRepository)(nil)
