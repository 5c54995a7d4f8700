package service

import (
	"context"
	"fmt"
	"time"

	"commerce-api/internal/models"
	"commerce-api/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface for authentication accounts.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// AuthService registers user accounts tied to domain customers and
// issues HS256 JWTs carrying the caller's role.
type AuthService struct {
	users     UserStore
	customers *CustomerService
	secret    []byte
	issuer    string
	expiry    time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, customers *CustomerService, secret, issuer string, expireInMinutes int) *AuthService {
	return &AuthService{
		users:     users,
		customers: customers,
		secret:    []byte(secret),
		issuer:    issuer,
		expiry:    time.Duration(expireInMinutes) * time.Minute,
		logger:    util.Named("auth"),
	}
}

// RegisterRequest carries the fields for creating an account.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Register creates a domain customer plus a user account with the
// default customer role.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, Errf(ErrInvalidArgument, "username and password are required")
	}

	existing, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, Errf(ErrDuplicateEntity, "username %q is already taken", req.Username)
	}

	customer, err := s.customers.Create(ctx, req.Email, req.Name, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		CustomerID:   customer.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("username", user.Username),
		zap.String("customer_id", customer.ID.String()))
	return user, nil
}

// Login verifies the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", Errf(ErrInvalidArgument, "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		util.AuthFailuresTotal.Inc()
		return "", Errf(ErrUnauthenticated, "invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.AuthFailuresTotal.Inc()
		return "", Errf(ErrUnauthenticated, "invalid username or password")
	}

	return s.generateToken(user)
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"cid":  user.CustomerID.String(),
		"jti":  uuid.New().String(),
		"iss":  s.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
