package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/models"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
)

// ErrCartItemNotFound indicates the requested cart line does not exist.
var ErrCartItemNotFound = apperrors.New("CART_ITEM_NOT_FOUND", "Cart item not found", http.StatusNotFound)

// AddCartItemInput describes a new cart line.
type AddCartItemInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

// CartService manages per-user cart line items.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs a CartService instance.
func NewCartService(db *gorm.DB) (*CartService, error) {
	if db == nil {
		return nil, errors.New("cart service: db is required")
	}
	return &CartService{db: db}, nil
}

// List returns every cart line in the system.
func (s *CartService) List(ctx context.Context) ([]models.CartItem, error) {
	ctx = ensureContext(ctx)

	var items []models.CartItem
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cart service: list: %w", err)
	}
	return items, nil
}

// Get loads a single cart line by identifier.
func (s *CartService) Get(ctx context.Context, id string) (*models.CartItem, error) {
	ctx = ensureContext(ctx)

	var item models.CartItem
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart service: get: %w", err)
	}
	return &item, nil
}

// ListForUser returns the user's cart with current product name, price, and
// images resolved, so clients never issue follow-up product lookups.
func (s *CartService) ListForUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	ctx = ensureContext(ctx)

	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("cart service: list for user: %w", err)
	}
	return items, nil
}

// Add creates a new cart line. Stock levels are deliberately not checked
// here; over-subscription is resolved downstream at fulfilment.
func (s *CartService) Add(ctx context.Context, input AddCartItemInput) (*models.CartItem, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.UserID) == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, apperrors.NewBadRequest("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.NewBadRequest("quantity must be greater than zero")
	}

	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("cart service: add: %w", err)
	}
	return item, nil
}

// UpdateQuantity changes the quantity of one of the user's cart lines.
// Lines owned by a different user are reported as missing, never touched.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, id string, quantity int) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(userID) == "" {
		return apperrors.NewBadRequest("user id is required")
	}
	if quantity <= 0 {
		return apperrors.NewBadRequest("quantity must be greater than zero")
	}

	// Existence is checked explicitly rather than via RowsAffected: MySQL
	// counts changed rows, so a same-value update would look like a miss.
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return fmt.Errorf("cart service: update quantity: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&item).
		Update("quantity", quantity).Error; err != nil {
		return fmt.Errorf("cart service: update quantity: %w", err)
	}
	return nil
}

// RemoveByUserAndProduct deletes the cart line matching the (user, product) pair.
func (s *CartService) RemoveByUserAndProduct(ctx context.Context, userID, productID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("cart service: remove: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}
