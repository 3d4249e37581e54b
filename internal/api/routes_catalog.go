package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/middleware"
)

func registerCatalogRoutes(r *gin.Engine, deps Dependencies) {
	categoryHandler := handlers.NewCategoryHandler(deps.Categories)
	productHandler := handlers.NewProductHandler(deps.Products, deps.Categories, deps.Images)

	// Public browsing surface
	api := r.Group("/api")
	{
		api.GET("/categories", categoryHandler.List)
		api.GET("/categories/with-products", categoryHandler.ListWithProducts)
		api.GET("/categories/:id", categoryHandler.Get)

		api.GET("/products", productHandler.List)
		api.GET("/products/:id", productHandler.Get)
		api.GET("/products/:id/categories", categoryHandler.ListForProduct)
	}

	// Back-office surface gated by the admin token
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAdmin(deps.AdminJWT))
	{
		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.POST("/products", productHandler.Create)
		admin.PUT("/products/:id", productHandler.Update)
		admin.DELETE("/products/:id", productHandler.Delete)

		admin.GET("/products/:id/categories", categoryHandler.ListForProduct)
		admin.PUT("/products/:id/categories", categoryHandler.SetForProduct)
		admin.POST("/products/:id/categories", categoryHandler.AssignToProduct)
		admin.DELETE("/products/:id/categories/:categoryId", categoryHandler.UnassignFromProduct)
	}
}
