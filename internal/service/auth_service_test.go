package service

import (
	"context"
	"testing"

	"commerce-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return f.users[username], nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.users[user.Username] = user
	return nil
}

type fakeCustomerStore struct {
	customers map[uuid.UUID]*models.Customer
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{customers: make(map[uuid.UUID]*models.Customer)}
}

func (f *fakeCustomerStore) GetCustomerByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.customers[id], nil
}

func (f *fakeCustomerStore) GetCustomerByEmail(_ context.Context, email string) (*models.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerStore) CreateCustomer(_ context.Context, customer *models.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerStore) GetCustomers(_ context.Context) ([]models.Customer, error) {
	out := make([]models.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, nil
}

const testSecret = "test-secret"

func newTestAuthService() (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	customers := NewCustomerService(newFakeCustomerStore())
	return NewAuthService(users, customers, testSecret, "commerce-api-test", 60), users
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Username:    "alice",
		Password:    "s3cret-pass",
		Email:       "alice@example.com",
		Name:        "Alice",
		PhoneNumber: "12345",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newTestAuthService()

	user, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, err := svc.Login(context.Background(), "alice", "s3cret-pass")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, models.RoleCustomer, claims["role"])
	assert.Equal(t, users.users["alice"].CustomerID.String(), claims["cid"])
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "other@example.com"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateEntity, KindOf(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Username = "alice2"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateEntity, KindOf(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, ErrUnauthenticated, KindOf(err))
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	require.Error(t, err)
	assert.Equal(t, ErrUnauthenticated, KindOf(err))
}
