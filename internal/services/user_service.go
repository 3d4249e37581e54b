package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/models"
	"github.com/charlesng35/storefront/pkg/crypto"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
	"github.com/charlesng35/storefront/pkg/mail"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken signals a registration attempt with an already-used email.
	ErrEmailTaken = apperrors.NewConflict("Email already registered")
)

// RegisterInput describes the fields accepted when registering a user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// UserService manages registration, email confirmation, and account lookups.
type UserService struct {
	db           *gorm.DB
	verification *EmailVerificationService
	dispatcher   *MailDispatcher
}

// NewUserService constructs a UserService instance. The dispatcher may be nil
// when outbound mail is disabled.
func NewUserService(db *gorm.DB, verification *EmailVerificationService, dispatcher *MailDispatcher) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if verification == nil {
		return nil, errors.New("user service: verification service is required")
	}
	return &UserService{
		db:           db,
		verification: verification,
		dispatcher:   dispatcher,
	}, nil
}

// Register provisions a pending user with a hashed password and queues the
// verification email. The returned user is unconfirmed until ConfirmEmail
// succeeds; mail delivery happens in the background and never delays or
// fails the registration itself.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Name:           name,
		Email:          email,
		Password:       hashed,
		Phone:          strings.TrimSpace(input.Phone),
		Address:        strings.TrimSpace(input.Address),
		Role:           models.RoleCustomer,
		EmailConfirmed: false,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	_, link, err := s.verification.CreateToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Enqueue(mail.Message{
			To:      []string{user.Email},
			Subject: "Confirm your email",
			Body:    verificationBody(user.Name, link),
		})
	}

	return user, nil
}

// ConfirmEmail consumes a verification token: the owning user is marked
// confirmed and every token issued to them is deleted, so a second call with
// the same token fails.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) error {
	ctx = ensureContext(ctx)

	verification, err := s.verification.Lookup(ctx, token)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", verification.UserID).
		Update("email_confirmed", true).Error; err != nil {
		return fmt.Errorf("user service: confirm email: %w", err)
	}

	return s.verification.DeleteForUser(ctx, verification.UserID)
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// EnsureGoogleUser returns the account matching the verified Google identity,
// creating a passwordless customer account on first sign-in.
func (s *UserService) EnsureGoogleUser(ctx context.Context, email, name string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user service: lookup google user: %w", err)
	}

	user = models.User{
		Name:  strings.TrimSpace(name),
		Email: email,
		Role:  models.RoleCustomer,
		// Google already verified ownership of the address.
		EmailConfirmed: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent first sign-in; fetch the winner.
			if lookupErr := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; lookupErr == nil {
				return &user, nil
			}
		}
		return nil, fmt.Errorf("user service: create google user: %w", err)
	}

	return &user, nil
}

func verificationBody(name, link string) string {
	return fmt.Sprintf("Hi %s,\n\nPlease confirm your email address by visiting the link below:\n%s\n\nThe link expires in 24 hours. If you did not create an account, you can ignore this message.\n", name, link)
}
