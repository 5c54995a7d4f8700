package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer owns orders. Email is unique.
type Customer struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	Name        string    `db:"name" json:"name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewCustomer builds a customer with a fresh identity.
func NewCustomer(email, name, phoneNumber string) *Customer {
	return &Customer{
		ID:          uuid.New(),
		Email:       email,
		Name:        name,
		PhoneNumber: phoneNumber,
	}
}

// Product is a catalog entry. SKU is unique across active and
// inactive products; products are disabled via IsActive, not deleted.
type Product struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	SKU              string          `db:"sku" json:"sku"`
	InternalCode     string          `db:"internal_code" json:"internal_code"`
	Name             string          `db:"name" json:"name"`
	Description      string          `db:"description" json:"description"`
	CurrentUnitPrice decimal.Decimal `db:"current_unit_price" json:"current_unit_price"`
	StockQuantity    int             `db:"stock_quantity" json:"stock_quantity"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewProduct builds an active product with a fresh identity.
func NewProduct(sku, internalCode, name, description string, price decimal.Decimal, stock int) *Product {
	return &Product{
		ID:               uuid.New(),
		SKU:              sku,
		InternalCode:     internalCode,
		Name:             name,
		Description:      description,
		CurrentUnitPrice: price,
		StockQuantity:    stock,
		IsActive:         true,
	}
}

// Order is created together with its items in one workflow call.
// CustomerID and CreatedAt never change after creation; TotalAmount
// is derived from the item subtotals.
type Order struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	CustomerID      uuid.UUID       `db:"customer_id" json:"customer_id"`
	CustomerName    string          `db:"customer_name" json:"customer_name,omitempty"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	BillingAddress  string          `db:"billing_address" json:"billing_address"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status          string          `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is one line of an order. ProductID and OrderID are fixed
// at creation, and UnitPrice is the product's price at purchase time;
// it is never recomputed from the product afterwards.
type OrderItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	ProductID   uuid.UUID       `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Subtotal is quantity times the historical unit price.
func (oi OrderItem) Subtotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Order statuses. The set is flat: any defined status may follow any other.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

var orderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValidOrderStatus reports whether s is a defined order status.
func IsValidOrderStatus(s string) bool {
	_, ok := orderStatuses[s]
	return ok
}

// OrderFilter holds the optional criteria for listing orders. The
// conditions are combined with AND; pagination applies only when both
// Page and PageSize are set (Page is 1-based).
type OrderFilter struct {
	Status       *string
	CustomerID   *uuid.UUID
	CustomerName string
	Page         *int
	PageSize     *int
}

// Product status filter values accepted by the catalog search.
const (
	ProductStatusEnabled  = "enabled"
	ProductStatusDisabled = "disabled"
)

// ProductFilter holds the optional criteria for catalog search.
type ProductFilter struct {
	Status   string
	Search   string
	Page     *int
	PageSize *int
}

// User is an authentication account linked to a domain customer.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CustomerID   uuid.UUID `db:"customer_id" json:"customer_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// User roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// ProcessedEvent records a consumed domain event for the audit trail.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
