package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/models"
	"github.com/charlesng35/storefront/pkg/crypto"
)

// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// AuthenticateInput contains the credentials presented at login.
type AuthenticateInput struct {
	Email    string
	Password string
}

// LocalProvider implements email/password authentication against user rows.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider builds a provider backed by the given database handle.
func NewLocalProvider(db *gorm.DB) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("local provider: db is required")
	}
	return &LocalProvider{db: db}, nil
}

// Authenticate verifies the supplied credentials and returns the associated user when successful.
// Accounts provisioned through Google carry no password hash and can never
// authenticate locally.
func (p *LocalProvider) Authenticate(ctx context.Context, input AuthenticateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := p.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: query user: %w", err)
	}

	if user.Password == "" || !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}
