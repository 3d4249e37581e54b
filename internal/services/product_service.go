package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/models"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
)

// ErrProductNotFound indicates the requested product does not exist.
var ErrProductNotFound = apperrors.New("PRODUCT_NOT_FOUND", "Product not found", http.StatusNotFound)

// CreateProductInput describes the fields accepted when creating a product.
type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CategoryID    *string
	ImageURL      string
	ImageURL1     string
	ImageURL2     string
	ImageURL3     string
	ImageURL4     string
}

// UpdateProductInput enumerates mutable product attributes. Nil fields are
// left unchanged.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	CategoryID    *string
	ImageURL      *string
	ImageURL1     *string
	ImageURL2     *string
	ImageURL3     *string
	ImageURL4     *string
}

// ProductService manages the product catalog.
type ProductService struct {
	db *gorm.DB
}

// NewProductService constructs a ProductService instance.
func NewProductService(db *gorm.DB) (*ProductService, error) {
	if db == nil {
		return nil, errors.New("product service: db is required")
	}
	return &ProductService{db: db}, nil
}

// List returns all products, newest first.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	ctx = ensureContext(ctx)

	var products []models.Product
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("product service: list: %w", err)
	}
	return products, nil
}

// Get loads a product with its assigned categories.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	ctx = ensureContext(ctx)

	var product models.Product
	err := s.db.WithContext(ctx).Preload("Categories").First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("product service: get: %w", err)
	}
	return &product, nil
}

// SearchByName returns products whose name contains the given fragment.
func (s *ProductService) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	ctx = ensureContext(ctx)

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("name LIKE ?", "%"+strings.TrimSpace(name)+"%").
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("product service: search: %w", err)
	}
	return products, nil
}

// ByCategory returns products carrying the direct category reference.
func (s *ProductService) ByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	ctx = ensureContext(ctx)

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("product service: by category: %w", err)
	}
	return products, nil
}

// Create adds a new product.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if input.Price.IsNegative() {
		return nil, apperrors.NewBadRequest("price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, apperrors.NewBadRequest("stock quantity cannot be negative")
	}

	product := &models.Product{
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		ImageURL:      input.ImageURL,
		ImageURL1:     input.ImageURL1,
		ImageURL2:     input.ImageURL2,
		ImageURL3:     input.ImageURL3,
		ImageURL4:     input.ImageURL4,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("product service: create: %w", err)
	}
	return product, nil
}

// Update applies the provided changes and reports which image references were
// replaced so the caller can remove the superseded files.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*models.Product, []string, error) {
	ctx = ensureContext(ctx)

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	updates := map[string]any{}
	var replaced []string

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, nil, apperrors.NewBadRequest("price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, nil, apperrors.NewBadRequest("stock quantity cannot be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *input.CategoryID
		}
	}

	imageFields := []struct {
		column   string
		incoming *string
		current  string
	}{
		{"image_url", input.ImageURL, product.ImageURL},
		{"image_url1", input.ImageURL1, product.ImageURL1},
		{"image_url2", input.ImageURL2, product.ImageURL2},
		{"image_url3", input.ImageURL3, product.ImageURL3},
		{"image_url4", input.ImageURL4, product.ImageURL4},
	}
	for _, field := range imageFields {
		if field.incoming == nil {
			continue
		}
		updates[field.column] = *field.incoming
		if field.current != "" && field.current != *field.incoming {
			replaced = append(replaced, field.current)
		}
	}

	if len(updates) == 0 {
		return product, nil, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("product service: update: %w", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, replaced, nil
}

// Delete removes a product together with its assignment rows and returns the
// deleted record so the caller can clean up its image files.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	ctx = ensureContext(ctx)

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("product service: delete: %w", err)
	}
	return product, nil
}
