package store

import (
	"context"
	"fmt"
	"log"

	"commerce-api/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Seed creates the admin account and a couple of sample products when
// the database is empty. Safe to run on every startup.
func (s *Store) Seed(ctx context.Context, adminUsername, adminPassword string) error {
	admin, err := s.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	if admin == nil {
		customer := models.NewCustomer("admin@example.com", "Administrator", "000000000")
		if err := s.CreateCustomer(ctx, customer); err != nil {
			return fmt.Errorf("failed to seed admin customer: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		user := &models.User{
			ID:           customer.ID,
			Username:     adminUsername,
			Email:        customer.Email,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			CustomerID:   customer.ID,
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		log.Printf("Seeded admin user %q", adminUsername)
	}

	var productCount int
	if err := s.db.GetContext(ctx, &productCount, "SELECT COUNT(*) FROM products"); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return nil
	}

	samples := []*models.Product{
		models.NewProduct("SKU001", "INT001", "Sample Product 1", "Seeded sample product", decimal.NewFromFloat(100.50), 50),
		models.NewProduct("SKU002", "INT002", "Sample Product 2", "Seeded sample product", decimal.NewFromFloat(200.00), 30),
	}
	for _, p := range samples {
		if err := s.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.SKU, err)
		}
	}
	log.Printf("Seeded %d sample products", len(samples))
	return nil
}
