package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/middleware"
)

func registerCartRoutes(r *gin.Engine, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Cart)

	cart := r.Group("/api/cart")
	cart.Use(middleware.Auth(deps.SessionJWT))
	{
		cart.GET("", cartHandler.List)
		cart.GET("/:id", cartHandler.Get)
		cart.POST("", cartHandler.Add)
		cart.PUT("/:id", cartHandler.UpdateQuantity)
		cart.DELETE("/products/:productId", cartHandler.Remove)
	}
}
