package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"commerce-api/internal/models"
	"commerce-api/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderStore is an in-memory OrderStore mirroring the store
// contract, including the all-or-nothing stock decrement in
// CreateOrderTx.
type fakeOrderStore struct {
	customers map[uuid.UUID]*models.Customer
	products  map[uuid.UUID]*models.Product
	orders    map[uuid.UUID]*models.Order
	items     map[uuid.UUID][]models.OrderItem
	orderSeq  []uuid.UUID
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		customers: make(map[uuid.UUID]*models.Customer),
		products:  make(map[uuid.UUID]*models.Product),
		orders:    make(map[uuid.UUID]*models.Order),
		items:     make(map[uuid.UUID][]models.OrderItem),
	}
}

func (f *fakeOrderStore) GetCustomerByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.customers[id], nil
}

func (f *fakeOrderStore) GetProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return f.products[id], nil
}

func (f *fakeOrderStore) CreateOrderTx(_ context.Context, order *models.Order, items []models.OrderItem) error {
	for _, item := range items {
		if f.products[item.ProductID].StockQuantity < item.Quantity {
			return fmt.Errorf("%w: product %s", store.ErrStockConflict, item.ProductID)
		}
	}
	for _, item := range items {
		f.products[item.ProductID].StockQuantity -= item.Quantity
	}
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	f.items[order.ID] = items
	f.orderSeq = append(f.orderSeq, order.ID)
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return f.orders[id], nil
}

func (f *fakeOrderStore) GetOrderItemsByOrderID(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status string) error {
	f.orders[orderID].Status = status
	return nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	matched := []models.Order{}
	for _, id := range f.orderSeq {
		o := f.orders[id]
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.CustomerName != "" {
			c := f.customers[o.CustomerID]
			if c == nil || !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.CustomerName)) {
				continue
			}
		}
		matched = append(matched, *o)
	}

	total := len(matched)
	if filter.Page != nil && filter.PageSize != nil {
		skip := (*filter.Page - 1) * *filter.PageSize
		if skip >= total {
			return []models.Order{}, total, nil
		}
		end := skip + *filter.PageSize
		if end > total {
			end = total
		}
		matched = matched[skip:end]
	}
	return matched, total, nil
}

func (f *fakeOrderStore) CountOrders(_ context.Context) (int, error) {
	return len(f.orders), nil
}

func (f *fakeOrderStore) addCustomer(name string) *models.Customer {
	c := models.NewCustomer(name+"@example.com", name, "12345")
	f.customers[c.ID] = c
	return c
}

func (f *fakeOrderStore) addProduct(name string, price float64, stock int) *models.Product {
	p := models.NewProduct("SKU-"+name, "INT-"+name, name, "", decimal.NewFromFloat(price), stock)
	f.products[p.ID] = p
	return p
}

func placeRequest(customerID uuid.UUID, items ...LineItemRequest) *PlaceOrderRequest {
	return &PlaceOrderRequest{
		CustomerID:      customerID,
		ShippingAddress: "123 Shipping St",
		BillingAddress:  "456 Billing Av",
		Items:           items,
	}
}

func TestPlaceOrder_CustomerNotFound(t *testing.T) {
	fs := newFakeOrderStore()
	p := fs.addProduct("widget", 10, 5)
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(),
		placeRequest(uuid.New(), LineItemRequest{ProductID: p.ID, Quantity: 1}))

	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
	assert.Empty(t, fs.orders)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestPlaceOrder_BlankAddress(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 5)
	svc := NewOrderService(fs, nil)

	req := placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1})
	req.BillingAddress = "   "

	_, err := svc.PlaceOrder(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, KindOf(err))
	assert.Empty(t, fs.orders)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(), placeRequest(c.ID))

	require.Error(t, err)
	assert.Equal(t, ErrEmptyOrder, KindOf(err))
}

func TestPlaceOrder_ProductNotFoundNamesRequest(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(),
		placeRequest(c.ID, LineItemRequest{ProductID: uuid.New(), Name: "Ghost Gadget", Quantity: 1}))

	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "Ghost Gadget")
}

func TestPlaceOrder_InactiveProduct(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 5)
	p.IsActive = false
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(),
		placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))

	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, KindOf(err))
	assert.Equal(t, 5, p.StockQuantity)
}

func TestPlaceOrder_InsufficientStockIsAtomic(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p1 := fs.addProduct("widget", 10, 5)
	p2 := fs.addProduct("gizmo", 5, 1)
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(), placeRequest(c.ID,
		LineItemRequest{ProductID: p1.ID, Quantity: 2},
		LineItemRequest{ProductID: p2.ID, Quantity: 3},
	))

	require.Error(t, err)
	assert.Equal(t, ErrInsufficientStock, KindOf(err))
	// No stock mutation observable for any product in the order.
	assert.Equal(t, 5, p1.StockQuantity)
	assert.Equal(t, 1, p2.StockQuantity)
	assert.Empty(t, fs.orders)
}

func TestPlaceOrder_Success(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p1 := fs.addProduct("widget", 10, 7)
	p2 := fs.addProduct("gizmo", 5, 4)
	svc := NewOrderService(fs, nil)

	summary, err := svc.PlaceOrder(context.Background(), placeRequest(c.ID,
		LineItemRequest{ProductID: p1.ID, Quantity: 2},
		LineItemRequest{ProductID: p2.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(25)),
		"total = 2×10 + 1×5, got %s", summary.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, summary.Status)
	assert.Len(t, summary.Items, 2)
	assert.Equal(t, "widget", summary.Items[0].ProductName)

	// Stock decremented exactly once.
	assert.Equal(t, 5, p1.StockQuantity)
	assert.Equal(t, 3, p2.StockQuantity)

	// Later price changes never touch the historical unit price.
	p1.CurrentUnitPrice = decimal.NewFromInt(99)
	persisted, err := svc.GetOrder(context.Background(), summary.OrderID)
	require.NoError(t, err)
	assert.True(t, persisted.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, persisted.TotalAmount.Equal(decimal.NewFromInt(25)))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	fs := newFakeOrderStore()
	svc := NewOrderService(fs, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), models.OrderStatusShipped)

	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 5)
	svc := NewOrderService(fs, nil)

	summary, err := svc.PlaceOrder(context.Background(),
		placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), summary.OrderID, "TELEPORTED")

	require.Error(t, err)
	assert.Equal(t, ErrInvalidStatus, KindOf(err))
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 5)
	svc := NewOrderService(fs, nil)

	summary, err := svc.PlaceOrder(context.Background(),
		placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	// The status set is flat: DELIVERED back to PENDING is legal.
	for _, status := range []string{models.OrderStatusDelivered, models.OrderStatusPending} {
		updated, err := svc.UpdateStatus(context.Background(), summary.OrderID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

func TestListOrders_Pagination(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 1000)
	svc := NewOrderService(fs, nil)

	for i := 0; i < 25; i++ {
		_, err := svc.PlaceOrder(context.Background(),
			placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	page, pageSize := 2, 10
	list, err := svc.ListOrders(context.Background(), models.OrderFilter{Page: &page, PageSize: &pageSize})
	require.NoError(t, err)

	assert.Equal(t, 25, list.Total)
	assert.Len(t, list.Items, 10)
	assert.Equal(t, fs.orderSeq[10], list.Items[0].OrderID)
	assert.Equal(t, fs.orderSeq[19], list.Items[9].OrderID)
}

func TestListOrders_NoPaginationReturnsAll(t *testing.T) {
	fs := newFakeOrderStore()
	c := fs.addCustomer("alice")
	p := fs.addProduct("widget", 10, 100)
	svc := NewOrderService(fs, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.PlaceOrder(context.Background(),
			placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	page := 1
	// Page without page size: pagination is ignored.
	list, err := svc.ListOrders(context.Background(), models.OrderFilter{Page: &page})
	require.NoError(t, err)
	assert.Equal(t, 5, list.Total)
	assert.Len(t, list.Items, 5)
}

func TestListOrders_InvalidStatusFilter(t *testing.T) {
	fs := newFakeOrderStore()
	svc := NewOrderService(fs, nil)

	bad := "TELEPORTED"
	_, err := svc.ListOrders(context.Background(), models.OrderFilter{Status: &bad})

	require.Error(t, err)
	assert.Equal(t, ErrInvalidStatus, KindOf(err))
}

func TestListOrders_FilterByCustomerName(t *testing.T) {
	fs := newFakeOrderStore()
	alice := fs.addCustomer("Alice Johnson")
	bob := fs.addCustomer("Bob Smith")
	p := fs.addProduct("widget", 10, 100)
	svc := NewOrderService(fs, nil)

	for _, c := range []*models.Customer{alice, bob} {
		_, err := svc.PlaceOrder(context.Background(),
			placeRequest(c.ID, LineItemRequest{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	list, err := svc.ListOrders(context.Background(), models.OrderFilter{CustomerName: "johnson"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, alice.ID, list.Items[0].CustomerID)
}
