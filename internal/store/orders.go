package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"commerce-api/internal/models"

	"github.com/google/uuid"
)

// ErrStockConflict is returned by CreateOrderTx when a concurrent
// order consumed the stock between validation and commit.
var ErrStockConflict = errors.New("stock changed concurrently")

// CreateOrderTx persists an order with its items and decrements the
// stock of every ordered product in a single transaction. Each
// product row is locked before the decrement, so stock can never go
// negative even under concurrent orders for the last units.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		var stock int
		err := tx.GetContext(ctx, &stock,
			"SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE", item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to lock product %s: %w", item.ProductID, err)
		}

		if stock < item.Quantity {
			return fmt.Errorf("%w: product %s has %d, requested %d",
				ErrStockConflict, item.ProductID, stock, item.Quantity)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW() WHERE id = $2",
			item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO orders (id, customer_id, shipping_address, billing_address, notes, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		order.ID, order.CustomerID, order.ShippingAddress, order.BillingAddress,
		order.Notes, order.TotalAmount, order.Status,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID. Returns (nil, nil) when absent.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all items for an order with the
// current product names joined in.
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name AS product_name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1`, orderID)
	return items, err
}

// UpdateOrderStatus updates an order's status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	return err
}

// ListOrders returns the orders matching the filter and the total
// match count before pagination. Customer names are joined in for the
// name-aware listing.
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conds = append(conds, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if filter.CustomerName != "" {
		args = append(args, "%"+filter.CustomerName+"%")
		conds = append(conds, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}

	where := strings.Join(conds, " AND ")
	from := "FROM orders o JOIN customers c ON c.id = o.customer_id WHERE " + where

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) "+from, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT o.*, c.name AS customer_name " + from + " ORDER BY o.created_at DESC"
	if filter.Page != nil && filter.PageSize != nil {
		offset := (*filter.Page - 1) * *filter.PageSize
		args = append(args, *filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountOrders returns the total number of orders
func (s *Store) CountOrders(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM orders")
	return count, err
}
