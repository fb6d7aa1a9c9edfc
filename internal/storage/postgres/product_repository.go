package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const productSelect = `
	SELECT p.id, p.name, p.price, p.emoji, p.description, p.detailed_description,
	       p.specifications, p.stock, p.quantity, p.category_id, p.created_at, p.updated_at,
	       c.id, c.name, c.emoji, c.description, c.gradient, c.created_at, c.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
// Изображения хранятся в product_images и пишутся в одной транзакции с товаром.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	specs, err := encodeSpecifications(product.Specifications)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (
				id, name, price, emoji, description, detailed_description,
				specifications, stock, quantity, category_id, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8,$9,$10,$11,$12)
		`,
			product.ID,
			product.Name,
			product.Price,
			product.Emoji,
			product.Description,
			product.DetailedDescription,
			specs,
			product.Stock,
			product.Quantity,
			product.CategoryID,
			product.CreatedAt.UTC(),
			product.UpdatedAt.UTC(),
		)
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicateProduct
		case isForeignKeyViolation(err):
			return domain.ErrCategoryNotFound
		case err != nil:
			return fmt.Errorf("insert product: %w", err)
		}
		return insertImages(ctx, tx, product.ID, product.Images)
	})
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	products, err := r.query(ctx, productSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return products[0], nil
}

// List применяет фильтр витрины на стороне базы; "todos" снимает ограничение по категории.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	category := filter.CategoryID
	if category == domain.AllCategoriesID {
		category = ""
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	return r.query(ctx, productSelect+`
		WHERE ($1 = '' OR p.category_id = $1)
		  AND ($2 = '' OR strpos(lower(p.name), $2) > 0 OR strpos(lower(p.description), $2) > 0)
		ORDER BY p.created_at, p.id
	`, category, search)
}

// Update перезаписывает товар и его изображения; created_at сохраняется.
func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	specs, err := encodeSpecifications(product.Specifications)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2,
			    price = $3,
			    emoji = $4,
			    description = $5,
			    detailed_description = $6,
			    specifications = $7::jsonb,
			    stock = $8,
			    quantity = $9,
			    category_id = $10,
			    updated_at = $11
			WHERE id = $1
		`,
			product.ID,
			product.Name,
			product.Price,
			product.Emoji,
			product.Description,
			product.DetailedDescription,
			specs,
			product.Stock,
			product.Quantity,
			product.CategoryID,
			product.UpdatedAt.UTC(),
		)
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := rowsAffectedOr(res, domain.ErrProductNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("replace product images: %w", err)
		}
		return insertImages(ctx, tx, product.ID, product.Images)
	})
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return rowsAffectedOr(res, domain.ErrProductNotFound)
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}
	if err := r.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// attachImages дочитывает изображения одним запросом для всей выборки.
func (r *productRepository) attachImages(ctx context.Context, products []domain.Product) error {
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, id, url, alt
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("query product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			img       domain.ProductImage
		)
		if err := rows.Scan(&productID, &img.ID, &img.URL, &img.Alt); err != nil {
			return fmt.Errorf("scan product image: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate product images: %w", err)
	}
	return nil
}

func insertImages(ctx context.Context, tx *sql.Tx, productID string, images []domain.ProductImage) error {
	for position, img := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (id, product_id, position, url, alt)
			VALUES ($1,$2,$3,$4,$5)
		`, img.ID, productID, position, img.URL, img.Alt); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		c        domain.Category
		rawSpecs []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Emoji, &p.Description, &p.DetailedDescription,
		&rawSpecs, &p.Stock, &p.Quantity, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.Name, &c.Emoji, &c.Description, &c.Gradient, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	p.Specifications = []string{}
	if len(rawSpecs) > 0 {
		if err := json.Unmarshal(rawSpecs, &p.Specifications); err != nil {
			return domain.Product{}, fmt.Errorf("decode specifications of %s: %w", p.ID, err)
		}
	}
	p.Images = []domain.ProductImage{}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	p.Category = &c
	return p, nil
}

func encodeSpecifications(specs []string) (string, error) {
	if specs == nil {
		specs = []string{}
	}
	raw, err := json.Marshal(specs)
	if err != nil {
		return "", errors.Join(domain.NewValidationError("specifications", "must be a list of strings"), err)
	}
	return string(raw), nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
