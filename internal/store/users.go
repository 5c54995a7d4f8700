package store

import (
	"context"
	"database/sql"

	"commerce-api/internal/models"
)

// GetUserByUsername retrieves a user account. Returns (nil, nil) when absent.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE username = $1", username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user account
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CustomerID,
	).Scan(&user.CreatedAt)
}
