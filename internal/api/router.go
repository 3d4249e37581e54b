package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/storefront/internal/auth"
	"github.com/charlesng35/storefront/internal/auth/providers"
	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/middleware"
	"github.com/charlesng35/storefront/internal/services"
	"github.com/charlesng35/storefront/internal/storage"
)

// Dependencies bundles everything the router mounts. Google may be nil when
// Google sign-in is not configured.
type Dependencies struct {
	Users      *services.UserService
	Categories *services.CategoryService
	Products   *services.ProductService
	Cart       *services.CartService
	Local      *providers.LocalProvider
	Google     providers.IDTokenVerifier
	SessionJWT *iauth.JWTService
	AdminJWT   *iauth.JWTService
	Admin      handlers.AdminIdentity
	Images     *storage.ImageStore
}

func (d Dependencies) validate() error {
	switch {
	case d.Users == nil:
		return fmt.Errorf("user service must be provided")
	case d.Categories == nil:
		return fmt.Errorf("category service must be provided")
	case d.Products == nil:
		return fmt.Errorf("product service must be provided")
	case d.Cart == nil:
		return fmt.Errorf("cart service must be provided")
	case d.Local == nil:
		return fmt.Errorf("local auth provider must be provided")
	case d.SessionJWT == nil:
		return fmt.Errorf("session jwt service must be provided")
	case d.AdminJWT == nil:
		return fmt.Errorf("admin jwt service must be provided")
	case d.Images == nil:
		return fmt.Errorf("image store must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	r.NoRoute(middleware.NotFoundHandler)

	// Public operational endpoints
	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded product images
	r.Static("/assets/images", deps.Images.Dir())

	registerAuthRoutes(r, deps)
	registerCatalogRoutes(r, deps)
	registerCartRoutes(r, deps)

	return r, nil
}
