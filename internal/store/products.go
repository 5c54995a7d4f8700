package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"commerce-api/internal/models"

	"github.com/google/uuid"
)

// GetProductByID retrieves a product by ID. Returns (nil, nil) when absent.
func (s *Store) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductBySKU retrieves a product by SKU. Returns (nil, nil) when absent.
func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE sku = $1", sku)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, sku, internal_code, name, description, current_unit_price, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		product.ID, product.SKU, product.InternalCode, product.Name, product.Description,
		product.CurrentUnitPrice, product.StockQuantity, product.IsActive,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

// UpdateProduct persists all mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET sku = $1, internal_code = $2, name = $3, description = $4,
		    current_unit_price = $5, stock_quantity = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8`,
		product.SKU, product.InternalCode, product.Name, product.Description,
		product.CurrentUnitPrice, product.StockQuantity, product.IsActive, product.ID)
	return err
}

// DeleteProduct removes a product row. The normal flow disables
// products instead; this is the plain repository delete.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

// SearchProducts returns the products matching the filter and the
// total match count before pagination.
func (s *Store) SearchProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}

	switch filter.Status {
	case models.ProductStatusEnabled:
		conds = append(conds, "is_active = TRUE")
	case models.ProductStatusDisabled:
		conds = append(conds, "is_active = FALSE")
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM products WHERE "+where, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM products WHERE " + where + " ORDER BY name"
	if filter.Page != nil && filter.PageSize != nil {
		offset := (*filter.Page - 1) * *filter.PageSize
		args = append(args, *filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
