package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/middleware"
)

func registerAuthRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(
		deps.Users,
		deps.Local,
		deps.Google,
		deps.SessionJWT,
		deps.AdminJWT,
		deps.Admin,
	)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.GET("/confirm-email", authHandler.ConfirmEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/google", authHandler.GoogleLogin)
		auth.POST("/admin/login", authHandler.AdminLogin)
		auth.GET("/me", middleware.Auth(deps.SessionJWT), authHandler.Me)
	}
}
