package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/storefront/internal/models"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
)

var (
	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = apperrors.New("CATEGORY_NOT_FOUND", "Category not found", http.StatusNotFound)
	// ErrCategoryNameTaken signals a duplicate category name.
	ErrCategoryNameTaken = apperrors.NewConflict("Category name already exists")
)

// CreateCategoryInput describes the fields accepted when creating a category.
type CreateCategoryInput struct {
	Name        string
	Description string
	ImageURL    string
}

// UpdateCategoryInput enumerates mutable category attributes.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	ImageURL    *string
}

// CategoryService manages categories and the product/category assignment set.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService constructs a CategoryService instance.
func NewCategoryService(db *gorm.DB) (*CategoryService, error) {
	if db == nil {
		return nil, errors.New("category service: db is required")
	}
	return &CategoryService{db: db}, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category service: list: %w", err)
	}
	return categories, nil
}

// Get loads a category by identifier.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	ctx = ensureContext(ctx)

	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category service: get: %w", err)
	}
	return &category, nil
}

// ListWithProducts returns every category with its assigned products resolved
// in a single round trip.
func (s *CategoryService) ListWithProducts(ctx context.Context) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).Preload("Products").Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category service: list with products: %w", err)
	}
	return categories, nil
}

// Create adds a new category.
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	category := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrCategoryNameTaken
		}
		return nil, fmt.Errorf("category service: create: %w", err)
	}
	return category, nil
}

// Update applies the provided changes to an existing category.
func (s *CategoryService) Update(ctx context.Context, id string, input UpdateCategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}

	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrCategoryNameTaken
		}
		return nil, fmt.Errorf("category service: update: %w", err)
	}
	return category, nil
}

// Delete removes a category after clearing its assignment rows. No
// database-enforced cascade is assumed.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("category service: delete: %w", err)
	}
	return nil
}

// CategoriesForProduct returns the categories currently assigned to a product.
func (s *CategoryService) CategoriesForProduct(ctx context.Context, productID string) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	err := s.db.WithContext(ctx).
		Joins("JOIN product_categories pc ON pc.category_id = categories.id").
		Where("pc.product_id = ?", productID).
		Order("categories.name").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("category service: categories for product: %w", err)
	}
	return categories, nil
}

// Assign adds a single assignment row, ignoring the insert when the pair
// already exists.
func (s *CategoryService) Assign(ctx context.Context, productID, categoryID string) error {
	ctx = ensureContext(ctx)

	row := models.ProductCategory{ProductID: productID, CategoryID: categoryID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("category service: assign: %w", err)
	}
	return nil
}

// Unassign removes a single assignment row if present.
func (s *CategoryService) Unassign(ctx context.Context, productID, categoryID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).
		Where("product_id = ? AND category_id = ?", productID, categoryID).
		Delete(&models.ProductCategory{}).Error
	if err != nil {
		return fmt.Errorf("category service: unassign: %w", err)
	}
	return nil
}

// SetForProduct atomically replaces the product's entire assignment set.
// Both steps run in one transaction: if the bulk insert fails the delete is
// rolled back and the prior set remains intact.
func (s *CategoryService) SetForProduct(ctx context.Context, productID string, categoryIDs []string) error {
	ctx = ensureContext(ctx)

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return apperrors.NewBadRequest("product id is required")
	}

	ids := normaliseIDs(categoryIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		rows := make([]models.ProductCategory, 0, len(ids))
		for _, categoryID := range ids {
			rows = append(rows, models.ProductCategory{ProductID: productID, CategoryID: categoryID})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("category service: set for product: %w", err)
	}
	return nil
}
