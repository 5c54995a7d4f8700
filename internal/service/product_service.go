package service

import (
	"context"
	"fmt"
	"strings"

	"commerce-api/internal/models"
	"commerce-api/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductStore is the persistence surface the catalog needs.
type ProductStore interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
}

// ProductCache is a read-through cache for product lookups. May be
// nil; cache errors are logged, never surfaced.
type ProductCache interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	InvalidateProduct(ctx context.Context, id uuid.UUID) error
}

// ProductService handles catalog reads and guarded mutations.
type ProductService struct {
	store  ProductStore
	cache  ProductCache
	logger *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store ProductStore, cache ProductCache) *ProductService {
	return &ProductService{
		store:  store,
		cache:  cache,
		logger: util.Named("catalog"),
	}
}

// ProductRequest carries the fields for creating or modifying a product.
type ProductRequest struct {
	SKU          string          `json:"sku"`
	InternalCode string          `json:"internal_code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
}

// ProductList is a page of products with the pre-pagination total.
type ProductList struct {
	Total int              `json:"total"`
	Items []models.Product `json:"items"`
}

// Create adds a product to the catalog. SKU must be unique across
// active and inactive products.
func (s *ProductService) Create(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	if err := validateProduct(req); err != nil {
		return nil, err
	}

	existing, err := s.store.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}
	if existing != nil {
		return nil, Errf(ErrDuplicateEntity, "a product with SKU %q already exists", req.SKU)
	}

	product := models.NewProduct(req.SKU, req.InternalCode, req.Name, req.Description, req.Price, req.Stock)
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))
	return product, nil
}

// Modify updates an existing product. The duplicate-SKU check
// excludes the product itself, so keeping the same SKU succeeds.
func (s *ProductService) Modify(ctx context.Context, id uuid.UUID, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Modify")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, Errf(ErrNotFound, "product %s does not exist", id)
	}

	if err := validateProduct(req); err != nil {
		return nil, err
	}

	existing, err := s.store.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}
	if existing != nil && existing.ID != product.ID {
		return nil, Errf(ErrDuplicateEntity, "a product with SKU %q already exists", req.SKU)
	}

	product.SKU = req.SKU
	product.InternalCode = req.InternalCode
	product.Name = req.Name
	product.Description = req.Description
	product.CurrentUnitPrice = req.Price
	product.StockQuantity = req.Stock

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.invalidate(ctx, id)

	return product, nil
}

// ToggleActive flips the product's active flag. Toggling twice
// restores the original value.
func (s *ProductService) ToggleActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, Errf(ErrNotFound, "product %s does not exist", id)
	}

	product.IsActive = !product.IsActive
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to toggle product: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.Info("Product active flag toggled",
		zap.String("product_id", id.String()),
		zap.Bool("is_active", product.IsActive))
	return product, nil
}

// Get retrieves a product by ID, consulting the cache first.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, id)
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Error(err))
		} else if cached != nil {
			util.ProductCacheHits.Inc()
			return cached, nil
		} else {
			util.ProductCacheMisses.Inc()
		}
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, Errf(ErrNotFound, "product %s does not exist", id)
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed", zap.Error(err))
		}
	}
	return product, nil
}

// GetBySKU retrieves a product by its SKU.
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, Errf(ErrNotFound, "product with SKU %q does not exist", sku)
	}
	return product, nil
}

// Delete removes a product outright. Not part of the guarded flow;
// the catalog normally disables via ToggleActive.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return Errf(ErrNotFound, "product %s does not exist", id)
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Search lists products with a case-insensitive name substring match,
// an enabled/disabled status filter and optional pagination.
func (s *ProductService) Search(ctx context.Context, filter models.ProductFilter) (*ProductList, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Search")
	defer span.End()

	if filter.Status != "" &&
		filter.Status != models.ProductStatusEnabled &&
		filter.Status != models.ProductStatusDisabled {
		return nil, Errf(ErrInvalidArgument, "status must be %q or %q",
			models.ProductStatusEnabled, models.ProductStatusDisabled)
	}

	products, total, err := s.store.SearchProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return &ProductList{Total: total, Items: products}, nil
}

func (s *ProductService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed",
			zap.String("product_id", id.String()),
			zap.Error(err))
	}
}

// validateProduct enforces the catalog invariants shared by create
// and modify.
func validateProduct(req *ProductRequest) error {
	if strings.TrimSpace(req.SKU) == "" || strings.TrimSpace(req.Name) == "" {
		return Errf(ErrInvalidArgument, "product SKU and name must not be blank")
	}
	if req.Price.Sign() <= 0 {
		return Errf(ErrInvalidArgument, "product price must be positive")
	}
	if req.Stock < 1 {
		return Errf(ErrInvalidArgument, "product stock must be at least 1")
	}
	return nil
}
