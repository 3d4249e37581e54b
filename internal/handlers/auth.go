package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/storefront/internal/auth"
	"github.com/charlesng35/storefront/internal/auth/providers"
	"github.com/charlesng35/storefront/internal/middleware"
	"github.com/charlesng35/storefront/internal/models"
	"github.com/charlesng35/storefront/internal/services"
	"github.com/charlesng35/storefront/pkg/crypto"
	apperrors "github.com/charlesng35/storefront/pkg/errors"
	"github.com/charlesng35/storefront/pkg/metrics"
	"github.com/charlesng35/storefront/pkg/response"
)

// AdminIdentity carries the configured back-office account. The password is a
// bcrypt hash supplied through configuration.
type AdminIdentity struct {
	Email        string
	PasswordHash string
}

// AuthHandler manages registration, email confirmation, and the three login flows.
type AuthHandler struct {
	users      *services.UserService
	local      *providers.LocalProvider
	google     providers.IDTokenVerifier
	sessionJWT *iauth.JWTService
	adminJWT   *iauth.JWTService
	admin      AdminIdentity
}

// NewAuthHandler wires the identity services. The google verifier may be nil
// when Google sign-in is not configured.
func NewAuthHandler(
	users *services.UserService,
	local *providers.LocalProvider,
	google providers.IDTokenVerifier,
	sessionJWT, adminJWT *iauth.JWTService,
	admin AdminIdentity,
) *AuthHandler {
	return &AuthHandler{
		users:      users,
		local:      local,
		google:     google,
		sessionJWT: sessionJWT,
		adminJWT:   adminJWT,
		admin:      admin,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Address  string `json:"address" validate:"omitempty,max=255"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	response.Success(c, http.StatusCreated, gin.H{"user": userPayload(user)})
}

// GET /api/auth/confirm-email?token=...
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, apperrors.NewBadRequest("token is required"))
		return
	}

	if err := h.users.ConfirmEmail(requestContext(c), token); err != nil {
		if errors.Is(err, services.ErrVerificationInvalid) {
			response.Error(c, apperrors.NewBadRequest("invalid or expired verification token"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"confirmed": true})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.local.Authenticate(requestContext(c), providers.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Normalise all authentication failures to the same 401
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := h.sessionJWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("password", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

// POST /api/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.EqualFold(email, h.admin.Email) ||
		!crypto.VerifyPassword(h.admin.PasswordHash, req.Password) {
		metrics.AuthAttempts.WithLabelValues("admin", "failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := h.adminJWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: h.admin.Email,
		Role:   models.RoleAdmin,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("admin", "failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("admin", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{"token": token})
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// POST /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		response.Error(c, apperrors.New("GOOGLE_DISABLED", "Google sign-in is not configured", http.StatusNotImplemented))
		return
	}

	var req googleLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	identity, err := h.google.Verify(requestContext(c), req.IDToken)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	user, err := h.users.EnsureGoogleUser(requestContext(c), identity.Email, identity.Name)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		response.Error(c, err)
		return
	}

	token, err := h.sessionJWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("google", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": userPayload(user)})
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"phone":           user.Phone,
		"address":         user.Address,
		"role":            user.Role,
		"email_confirmed": user.EmailConfirmed,
	}
}
