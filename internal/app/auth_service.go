package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"creditmemo/internal/model"
	"creditmemo/internal/pkg/jwtutil"
)

var (
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrNoTenant          = errors.New("user has no tenant membership")
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type TenantStore interface {
	CreateWithOwner(ctx context.Context, user *model.User, tenant *model.Tenant) error
	TenantForUser(ctx context.Context, userID string) (*model.Tenant, error)
}

type AuthService struct {
	users         UserStore
	tenants       TenantStore
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Organization string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token  string
	User   *model.User
	Tenant *model.Tenant
}

func NewAuthService(users UserStore, tenants TenantStore, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		tenants:       tenants,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates the user together with a new tenant the user owns.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if username == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	orgName := strings.TrimSpace(input.Organization)
	if orgName == "" {
		orgName = username + "'s organization"
	}
	tenant := &model.Tenant{Name: orgName}
	if err := s.tenants.CreateWithOwner(ctx, user, tenant); err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, Tenant: tenant}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.users.GetByID(ctx, id)
}

// ResolveTenant maps an authenticated user to the scope every tenant-owned
// operation requires.
func (s *AuthService) ResolveTenant(ctx context.Context, userID string) (model.TenantScope, error) {
	if userID == "" {
		return model.TenantScope{}, ErrInvalidInput
	}
	tenant, err := s.tenants.TenantForUser(ctx, userID)
	if err != nil {
		return model.TenantScope{}, err
	}
	if tenant == nil {
		return model.TenantScope{}, ErrNoTenant
	}
	return model.NewTenantScope(tenant.ID)
}
