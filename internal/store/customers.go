package store

import (
	"context"
	"database/sql"

	"commerce-api/internal/models"

	"github.com/google/uuid"
)

// GetCustomerByID retrieves a customer by ID. Returns (nil, nil) when absent.
func (s *Store) GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerByEmail retrieves a customer by email. Returns (nil, nil) when absent.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer inserts a new customer
func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO customers (id, email, name, phone_number)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		customer.ID, customer.Email, customer.Name, customer.PhoneNumber,
	).Scan(&customer.CreatedAt)
}

// GetCustomers retrieves all customers
func (s *Store) GetCustomers(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	err := s.db.SelectContext(ctx, &customers, "SELECT * FROM customers ORDER BY created_at")
	return customers, err
}
