package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storefront/internal/services"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
	"github.com/charlesng35/storefront/pkg/response"
)

// CategoryHandler exposes category CRUD and product assignment management.
type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// GET /api/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categories.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"category": category})
}

// GET /api/categories/with-products
func (h *CategoryHandler) ListWithProducts(c *gin.Context) {
	categories, err := h.categories.ListWithProducts(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=255"`
}

// POST /api/admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categories.Create(requestContext(c), services.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"category": category})
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=255"`
}

// PUT /api/admin/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	var req updateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categories.Update(requestContext(c), c.Param("id"), services.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"category": category})
}

// DELETE /api/admin/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/products/:id/categories
func (h *CategoryHandler) ListForProduct(c *gin.Context) {
	categories, err := h.categories.CategoriesForProduct(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

type setCategoriesRequest struct {
	CategoryIDs []string `json:"category_ids"`
}

// PUT /api/admin/products/:id/categories
//
// Replaces the product's entire category set atomically. An empty list clears
// every assignment.
func (h *CategoryHandler) SetForProduct(c *gin.Context) {
	var req setCategoriesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.categories.SetForProduct(requestContext(c), c.Param("id"), req.CategoryIDs); err != nil {
		response.Error(c, err)
		return
	}

	categories, err := h.categories.CategoriesForProduct(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

type assignCategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
}

// POST /api/admin/products/:id/categories
func (h *CategoryHandler) AssignToProduct(c *gin.Context) {
	var req assignCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.categories.Assign(requestContext(c), c.Param("id"), req.CategoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": true})
}

// DELETE /api/admin/products/:id/categories/:categoryId
func (h *CategoryHandler) UnassignFromProduct(c *gin.Context) {
	categoryID := c.Param("categoryId")
	if categoryID == "" {
		response.Error(c, apperrors.NewBadRequest("category id is required"))
		return
	}

	if err := h.categories.Unassign(requestContext(c), c.Param("id"), categoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unassigned": true})
}
