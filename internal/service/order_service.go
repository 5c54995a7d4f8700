package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce-api/internal/models"
	"commerce-api/internal/store"
	"commerce-api/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the order workflow needs.
// *store.Store satisfies it; tests substitute a fake.
type OrderStore interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	CountOrders(ctx context.Context) (int, error)
}

// OrderEvents publishes order lifecycle events. May be nil when the
// broker is not configured; publish failures never fail the request.
type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles the order placement workflow, status updates
// and order queries.
type OrderService struct {
	store  OrderStore
	events OrderEvents
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, events OrderEvents) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		logger: util.Named("orders"),
	}
}

// PlaceOrderRequest is a request to create an order.
type PlaceOrderRequest struct {
	CustomerID      uuid.UUID         `json:"customer_id"`
	ShippingAddress string            `json:"shipping_address"`
	BillingAddress  string            `json:"billing_address"`
	Notes           string            `json:"notes,omitempty"`
	Items           []LineItemRequest `json:"items"`
}

// LineItemRequest is one requested (product, quantity) pair. Name is
// supplied by the caller and only used in error messages.
type LineItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity"`
}

// OrderItemSummary is the read-facing projection of an order line.
type OrderItemSummary struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderSummary is the read-facing projection of a persisted order.
type OrderSummary struct {
	OrderID         uuid.UUID          `json:"order_id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	CustomerName    string             `json:"customer_name,omitempty"`
	Date            time.Time          `json:"date"`
	ShippingAddress string             `json:"shipping_address"`
	BillingAddress  string             `json:"billing_address"`
	Notes           string             `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Items           []OrderItemSummary `json:"items"`
	Status          string             `json:"status"`
}

// OrderList is a page of order summaries with the pre-pagination total.
type OrderList struct {
	Total int            `json:"total"`
	Items []OrderSummary `json:"items"`
}

// PlaceOrder validates a purchase request against current customer
// and product state and creates the order. Validation runs over every
// line item before any stock is touched: a failing item leaves no
// stock decrement observable for the whole order.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	customer, err := s.store.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil {
		util.OrdersFailedTotal.WithLabelValues("customer_not_found").Inc()
		return nil, Errf(ErrNotFound, "customer %s does not exist", req.CustomerID)
	}

	if strings.TrimSpace(req.ShippingAddress) == "" || strings.TrimSpace(req.BillingAddress) == "" {
		util.OrdersFailedTotal.WithLabelValues("invalid_address").Inc()
		return nil, Errf(ErrInvalidArgument, "shipping and billing addresses must not be blank")
	}

	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_order").Inc()
		return nil, Errf(ErrEmptyOrder, "order has no line items")
	}

	// Validation pass over every item, in request order, before any
	// stock mutation.
	products := make([]*models.Product, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.store.GetProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product: %w", err)
		}
		if product == nil {
			util.OrdersFailedTotal.WithLabelValues("product_not_found").Inc()
			// The message names the product as supplied by the caller.
			return nil, Errf(ErrNotFound, "product %q does not exist", line.Name)
		}
		if !product.IsActive {
			util.OrdersFailedTotal.WithLabelValues("product_inactive").Inc()
			return nil, Errf(ErrInvalidArgument, "product %q is not active", product.Name)
		}
		if product.StockQuantity < line.Quantity {
			util.StockRejectionsTotal.Inc()
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, Errf(ErrInsufficientStock, "insufficient stock for product %q", product.Name)
		}
		products = append(products, product)
	}

	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		Status:          models.OrderStatusPending,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		product := products[i]
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.CurrentUnitPrice,
		}
		items = append(items, item)
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
	}

	start := time.Now()
	if err := s.store.CreateOrderTx(ctx, order, items); err != nil {
		if errors.Is(err, store.ErrStockConflict) {
			util.StockRejectionsTotal.Inc()
			util.OrdersFailedTotal.WithLabelValues("stock_conflict").Inc()
			return nil, Errf(ErrInsufficientStock, "insufficient stock: a concurrent order consumed it")
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	util.OrderCommitLatency.Observe(time.Since(start).Seconds())
	util.OrdersPlacedTotal.Inc()

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.Int("items", len(items)),
		zap.String("total", order.TotalAmount.String()))

	s.publishOrderPlaced(ctx, order, items)

	return summarize(order, items), nil
}

// UpdateStatus sets an order's status to any of the defined statuses.
// The status set is a flat enumeration; no transition graph is enforced.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		return nil, Errf(ErrNotFound, "order %s does not exist", orderID)
	}

	if !models.IsValidOrderStatus(status) {
		return nil, Errf(ErrInvalidStatus, "order status %q is not valid", status)
	}

	oldStatus := order.Status
	order.Status = status
	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", oldStatus),
		zap.String("to", status))

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	if s.events != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:   orderID,
			OldStatus: oldStatus,
			NewStatus: status,
		}
		if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}

	return summarize(order, items), nil
}

// GetOrder retrieves an order projection by ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderSummary, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		return nil, Errf(ErrNotFound, "order %s does not exist", orderID)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	return summarize(order, items), nil
}

// ListOrders returns the orders matching the filter. Total counts all
// matches before pagination; without both page and page size the full
// filtered set is returned.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) (*OrderList, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if filter.Status != nil && !models.IsValidOrderStatus(*filter.Status) {
		return nil, Errf(ErrInvalidStatus, "order status %q is not valid", *filter.Status)
	}

	orders, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	list := &OrderList{Total: total, Items: make([]OrderSummary, 0, len(orders))}
	for i := range orders {
		items, err := s.store.GetOrderItemsByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order items: %w", err)
		}
		list.Items = append(list.Items, *summarize(&orders[i], items))
	}
	return list, nil
}

// CountOrders returns the total number of orders.
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	return s.store.CountOrders(ctx)
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.events == nil {
		return
	}

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}

	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

// summarize projects a persisted order into its response form.
func summarize(order *models.Order, items []models.OrderItem) *OrderSummary {
	summary := &OrderSummary{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		Date:            order.CreatedAt,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		Notes:           order.Notes,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		Items:           make([]OrderItemSummary, 0, len(items)),
	}
	for _, item := range items {
		summary.Items = append(summary.Items, OrderItemSummary{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}
	return summary
}
