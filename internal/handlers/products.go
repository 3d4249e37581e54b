package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/charlesng35/storefront/internal/services"
	"github.com/charlesng35/storefront/internal/storage"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
	"github.com/charlesng35/storefront/pkg/response"
)

// maxProductImages bounds how many files a single product upload may carry.
const maxProductImages = 5

// imageFields names the multipart file fields, in column order.
var imageFields = [maxProductImages]string{"image", "image1", "image2", "image3", "image4"}

// ProductHandler exposes the product catalog. Admin mutations accept
// multipart forms carrying up to five image files alongside the scalar
// fields.
type ProductHandler struct {
	products   *services.ProductService
	categories *services.CategoryService
	images     *storage.ImageStore
}

func NewProductHandler(products *services.ProductService, categories *services.CategoryService, images *storage.ImageStore) *ProductHandler {
	return &ProductHandler{products: products, categories: categories, images: images}
}

// GET /api/products
//
// Supports optional name and category_id query filters.
func (h *ProductHandler) List(c *gin.Context) {
	ctx := requestContext(c)

	if name := strings.TrimSpace(c.Query("name")); name != "" {
		products, err := h.products.SearchByName(ctx, name)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"products": products})
		return
	}

	if categoryID := strings.TrimSpace(c.Query("category_id")); categoryID != "" {
		// An unknown category is a 404, not an empty listing.
		if _, err := h.categories.Get(ctx, categoryID); err != nil {
			response.Error(c, err)
			return
		}
		products, err := h.products.ByCategory(ctx, categoryID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"products": products})
		return
	}

	products, err := h.products.List(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"products": products})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"product": product})
}

// POST /api/admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("multipart form is required"))
		return
	}

	input := services.CreateProductInput{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
	}

	price, err := parsePrice(formValue(form, "price"))
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Price = price

	if raw := formValue(form, "stock_quantity"); raw != "" {
		stock, convErr := strconv.Atoi(raw)
		if convErr != nil {
			response.Error(c, apperrors.NewBadRequest("stock_quantity must be an integer"))
			return
		}
		input.StockQuantity = stock
	}

	if categoryID := formValue(form, "category_id"); categoryID != "" {
		input.CategoryID = &categoryID
	}

	paths, err := h.saveImages(form)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.ImageURL = paths[0]
	input.ImageURL1 = paths[1]
	input.ImageURL2 = paths[2]
	input.ImageURL3 = paths[3]
	input.ImageURL4 = paths[4]

	product, err := h.products.Create(requestContext(c), input)
	if err != nil {
		// The record was rejected, so the stored files are orphans.
		h.removeSaved(paths[:])
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"product": product})
}

// PUT /api/admin/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("multipart form is required"))
		return
	}

	var input services.UpdateProductInput

	if raw, ok := firstValue(form, "name"); ok {
		input.Name = &raw
	}
	if raw, ok := firstValue(form, "description"); ok {
		input.Description = &raw
	}
	if raw, ok := firstValue(form, "price"); ok {
		price, convErr := parsePrice(raw)
		if convErr != nil {
			response.Error(c, convErr)
			return
		}
		input.Price = &price
	}
	if raw, ok := firstValue(form, "stock_quantity"); ok {
		stock, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil {
			response.Error(c, apperrors.NewBadRequest("stock_quantity must be an integer"))
			return
		}
		input.StockQuantity = &stock
	}
	if raw, ok := firstValue(form, "category_id"); ok {
		input.CategoryID = &raw
	}

	var saved []string
	targets := [maxProductImages]**string{
		&input.ImageURL, &input.ImageURL1, &input.ImageURL2, &input.ImageURL3, &input.ImageURL4,
	}
	for i, field := range imageFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		path, saveErr := h.saveImage(headers[0])
		if saveErr != nil {
			h.removeSaved(saved)
			response.Error(c, saveErr)
			return
		}
		saved = append(saved, path)
		stored := path
		*targets[i] = &stored
	}

	product, replaced, err := h.products.Update(requestContext(c), c.Param("id"), input)
	if err != nil {
		h.removeSaved(saved)
		response.Error(c, err)
		return
	}

	// Superseded files are only removed once the row update has stuck.
	h.removeSaved(replaced)

	response.Success(c, http.StatusOK, gin.H{"product": product})
}

// DELETE /api/admin/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	product, err := h.products.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.removeSaved(product.ImageURLs())

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *ProductHandler) saveImages(form *multipart.Form) ([maxProductImages]string, error) {
	var paths [maxProductImages]string
	var saved []string

	for i, field := range imageFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		path, err := h.saveImage(headers[0])
		if err != nil {
			h.removeSaved(saved)
			return paths, err
		}
		saved = append(saved, path)
		paths[i] = path
	}

	return paths, nil
}

func (h *ProductHandler) saveImage(header *multipart.FileHeader) (string, error) {
	path, err := h.images.Save(header)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImageType) {
			return "", apperrors.NewBadRequest("unsupported image type")
		}
		return "", err
	}
	return path, nil
}

func (h *ProductHandler) removeSaved(paths []string) {
	if h.images == nil {
		return
	}
	h.images.RemoveAll(paths)
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func firstValue(form *multipart.Form, key string) (string, bool) {
	values := form.Value[key]
	if len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperrors.NewBadRequest("price is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewBadRequest("price must be a decimal number")
	}
	return price, nil
}
