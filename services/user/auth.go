package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userRepo "tradepost/database/repository/user"
	"tradepost/models"
	"tradepost/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenDuration matches the 30-day sessions the web client expects.
const tokenDuration = 30 * 24 * time.Hour

// ErrInvalidCredentials is returned on any login failure. The message never
// reveals whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DuplicateAccountError reports a registration clash on email or username.
type DuplicateAccountError struct {
	Field string
}

func (e DuplicateAccountError) Error() string {
	return fmt.Sprintf("an account with this %s already exists", e.Field)
}

// RegisterRequest carries a new account's fields.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// AuthResult bundles the account and its freshly issued token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UserService issues credentials and authenticates accounts.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo userRepo.UserRepository
}

// Register creates an account with a bcrypt password hash and issues a token.
func (s *DefaultUserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, errors.New("username, email and password are required")
	}

	if existing, err := s.Repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, DuplicateAccountError{Field: "email"}
	}
	if existing, err := s.Repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, DuplicateAccountError{Field: "username"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Role:         models.RoleUser,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(u.ID, u.Email, u.Role, tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// Authenticate verifies credentials and issues a token.
func (s *DefaultUserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(u.ID, u.Email, u.Role, tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// GetByID retrieves an account by id.
func (s *DefaultUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.Repo.GetByID(ctx, id)
}
