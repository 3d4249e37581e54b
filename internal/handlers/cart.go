package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storefront/internal/middleware"
	"github.com/charlesng35/storefront/internal/services"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
	"github.com/charlesng35/storefront/pkg/response"
)

// CartHandler manages the signed-in customer's cart.
type CartHandler struct {
	cart *services.CartService
}

func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// GET /api/cart
func (h *CartHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.cart.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// GET /api/cart/:id
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	item, err := h.cart.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// Items are private to their owner.
	if item.UserID != userID {
		response.Error(c, services.ErrCartItemNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": item})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// POST /api/cart
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req addCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.cart.Add(requestContext(c), services.AddCartItemInput{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"item": item})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// PUT /api/cart/:id
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.cart.UpdateQuantity(requestContext(c), userID, c.Param("id"), req.Quantity); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// DELETE /api/cart/products/:productId
//
// Removes the pair identified by the signed-in user and product.
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.cart.RemoveByUserAndProduct(requestContext(c), userID, c.Param("productId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
