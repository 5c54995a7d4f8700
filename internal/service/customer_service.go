package service

import (
	"context"
	"fmt"
	"strings"

	"commerce-api/internal/models"
	"commerce-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerStore is the persistence surface for customers.
type CustomerStore interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomers(ctx context.Context) ([]models.Customer, error)
}

// CustomerService handles customer lookups and creation. No
// cross-entity workflow lives here.
type CustomerService struct {
	store  CustomerStore
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store CustomerStore) *CustomerService {
	return &CustomerService{
		store:  store,
		logger: util.Named("customers"),
	}
}

// Create registers a new customer. Email must be unique.
func (s *CustomerService) Create(ctx context.Context, email, name, phoneNumber string) (*models.Customer, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
		return nil, Errf(ErrInvalidArgument, "customer email and name must not be blank")
	}

	existing, err := s.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer email: %w", err)
	}
	if existing != nil {
		return nil, Errf(ErrDuplicateEntity, "a customer with email %q already exists", email)
	}

	customer := models.NewCustomer(email, name, phoneNumber)
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// Get retrieves a customer by ID.
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.store.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil {
		return nil, Errf(ErrNotFound, "customer %s does not exist", id)
	}
	return customer, nil
}

// List retrieves all customers.
func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.store.GetCustomers(ctx)
}
