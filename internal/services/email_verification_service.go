package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/models"
	"github.com/charlesng35/storefront/pkg/crypto"
)

const (
	defaultVerificationExpiry     = 24 * time.Hour
	defaultVerificationTokenBytes = 32
)

// ErrVerificationInvalid covers both unknown and expired tokens; callers must
// not be able to distinguish the two cases.
var ErrVerificationInvalid = errors.New("email verification: invalid or expired token")

// VerificationOption customises the EmailVerificationService.
type VerificationOption func(*EmailVerificationService)

// WithVerificationBaseURL sets the base URL used in confirmation links.
func WithVerificationBaseURL(url string) VerificationOption {
	return func(s *EmailVerificationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithVerificationExpiry overrides the token lifetime.
func WithVerificationExpiry(d time.Duration) VerificationOption {
	return func(s *EmailVerificationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *EmailVerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// EmailVerificationService manages verification tokens for local registrations.
type EmailVerificationService struct {
	db      *gorm.DB
	baseURL string
	expiry  time.Duration
	now     func() time.Time
}

// NewEmailVerificationService constructs a verification service with the provided dependencies.
func NewEmailVerificationService(db *gorm.DB, opts ...VerificationOption) (*EmailVerificationService, error) {
	if db == nil {
		return nil, errors.New("email verification service: db is required")
	}

	service := &EmailVerificationService{
		db:     db,
		expiry: defaultVerificationExpiry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateToken issues a fresh verification token for the given user, replacing
// any previously issued tokens. It returns the raw token and the confirmation
// link to embed in the verification email.
func (s *EmailVerificationService) CreateToken(ctx context.Context, userID string) (string, string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", "", errors.New("email verification service: user id is required")
	}

	token, err := crypto.GenerateToken(defaultVerificationTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("email verification service: generate token: %w", err)
	}

	verification := models.EmailVerification{
		UserID:    userID,
		TokenHash: verificationHash(token),
		ExpiresAt: s.now().Add(s.expiry),
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.EmailVerification{}).Error; err != nil {
		return "", "", fmt.Errorf("email verification service: cleanup existing: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&verification).Error; err != nil {
		return "", "", fmt.Errorf("email verification service: create token: %w", err)
	}

	return token, s.confirmationLink(token), nil
}

// Lookup resolves an unexpired verification token. Unknown and expired tokens
// are indistinguishable to the caller.
func (s *EmailVerificationService) Lookup(ctx context.Context, token string) (*models.EmailVerification, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrVerificationInvalid
	}

	var verification models.EmailVerification
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", verificationHash(token)).
		First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("email verification service: find token: %w", err)
	}

	if verification.ExpiresAt.Before(s.now()) {
		return nil, ErrVerificationInvalid
	}

	return &verification, nil
}

// DeleteForUser removes every verification token issued to the user.
func (s *EmailVerificationService) DeleteForUser(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.EmailVerification{}).Error; err != nil {
		return fmt.Errorf("email verification service: delete tokens: %w", err)
	}
	return nil
}

// PurgeExpired deletes tokens past their expiry and reports how many were removed.
func (s *EmailVerificationService) PurgeExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.EmailVerification{})
	if result.Error != nil {
		return 0, fmt.Errorf("email verification service: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *EmailVerificationService) confirmationLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s/confirm-email?token=%s", s.baseURL, token)
}

func verificationHash(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
