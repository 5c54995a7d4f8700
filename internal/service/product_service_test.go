package service

import (
	"context"
	"strings"
	"testing"

	"commerce-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products map[uuid.UUID]*models.Product
	seq      []uuid.UUID
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*models.Product)}
}

func (f *fakeProductStore) GetProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return f.products[id], nil
}

func (f *fakeProductStore) GetProductBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) CreateProduct(_ context.Context, product *models.Product) error {
	f.products[product.ID] = product
	f.seq = append(f.seq, product.ID)
	return nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, product *models.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) SearchProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	matched := []models.Product{}
	for _, id := range f.seq {
		p, ok := f.products[id]
		if !ok {
			continue
		}
		if filter.Status == models.ProductStatusEnabled && !p.IsActive {
			continue
		}
		if filter.Status == models.ProductStatusDisabled && p.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *p)
	}

	total := len(matched)
	if filter.Page != nil && filter.PageSize != nil {
		skip := (*filter.Page - 1) * *filter.PageSize
		if skip >= total {
			return []models.Product{}, total, nil
		}
		end := skip + *filter.PageSize
		if end > total {
			end = total
		}
		matched = matched[skip:end]
	}
	return matched, total, nil
}

func productRequest(sku, name string) *ProductRequest {
	return &ProductRequest{
		SKU:          sku,
		InternalCode: "INT-" + sku,
		Name:         name,
		Description:  "a product",
		Price:        decimal.NewFromInt(10),
		Stock:        5,
	}
}

func TestProductCreate(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	product, err := svc.Create(context.Background(), productRequest("SKU1", "Widget"))
	require.NoError(t, err)
	assert.True(t, product.IsActive)
	assert.Equal(t, "SKU1", product.SKU)
}

func TestProductCreate_Validation(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	tests := []struct {
		name   string
		mutate func(*ProductRequest)
	}{
		{"blank sku", func(r *ProductRequest) { r.SKU = "  " }},
		{"blank name", func(r *ProductRequest) { r.Name = "" }},
		{"zero price", func(r *ProductRequest) { r.Price = decimal.Zero }},
		{"negative price", func(r *ProductRequest) { r.Price = decimal.NewFromInt(-1) }},
		{"zero stock", func(r *ProductRequest) { r.Stock = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := productRequest("SKU1", "Widget")
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidArgument, KindOf(err))
		})
	}
}

func TestProductCreate_DuplicateSKU(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	_, err := svc.Create(context.Background(), productRequest("SKU1", "Widget"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), productRequest("SKU1", "Other Widget"))
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateEntity, KindOf(err))
}

func TestProductModify_DuplicateSKUExcludesSelf(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	first, err := svc.Create(context.Background(), productRequest("SKU1", "Widget"))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), productRequest("SKU2", "Gizmo"))
	require.NoError(t, err)

	// Taking another product's SKU is a conflict.
	_, err = svc.Modify(context.Background(), second.ID, productRequest("SKU1", "Gizmo"))
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateEntity, KindOf(err))

	// Keeping your own SKU is not.
	updated, err := svc.Modify(context.Background(), first.ID, productRequest("SKU1", "Widget v2"))
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)
}

func TestProductToggle_TwiceRestoresOriginal(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	product, err := svc.Create(context.Background(), productRequest("SKU1", "Widget"))
	require.NoError(t, err)
	require.True(t, product.IsActive)

	toggled, err := svc.ToggleActive(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleActive(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func TestProductSearch(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	_, err := svc.Create(context.Background(), productRequest("SKU1", "Red Widget"))
	require.NoError(t, err)
	gizmo, err := svc.Create(context.Background(), productRequest("SKU2", "Blue Gizmo"))
	require.NoError(t, err)
	_, err = svc.ToggleActive(context.Background(), gizmo.ID)
	require.NoError(t, err)

	list, err := svc.Search(context.Background(), models.ProductFilter{Search: "widget"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Red Widget", list.Items[0].Name)

	list, err = svc.Search(context.Background(), models.ProductFilter{Status: models.ProductStatusDisabled})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Blue Gizmo", list.Items[0].Name)

	_, err = svc.Search(context.Background(), models.ProductFilter{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, KindOf(err))
}

func TestProductGet_NotFound(t *testing.T) {
	fs := newFakeProductStore()
	svc := NewProductService(fs, nil)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, ErrNotFound, KindOf(err))
}

// fakeProductCache records cache traffic.
type fakeProductCache struct {
	entries     map[uuid.UUID]*models.Product
	invalidated int
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{entries: make(map[uuid.UUID]*models.Product)}
}

func (f *fakeProductCache) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return f.entries[id], nil
}

func (f *fakeProductCache) SetProduct(_ context.Context, product *models.Product) error {
	f.entries[product.ID] = product
	return nil
}

func (f *fakeProductCache) InvalidateProduct(_ context.Context, id uuid.UUID) error {
	delete(f.entries, id)
	f.invalidated++
	return nil
}

func TestProductGet_CachePopulatedAndInvalidated(t *testing.T) {
	fs := newFakeProductStore()
	cache := newFakeProductCache()
	svc := NewProductService(fs, cache)

	product, err := svc.Create(context.Background(), productRequest("SKU1", "Widget"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Contains(t, cache.entries, product.ID)

	_, err = svc.ToggleActive(context.Background(), product.ID)
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, product.ID)
	assert.Equal(t, 1, cache.invalidated)
}
