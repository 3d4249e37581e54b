package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/api"
	iauth "github.com/charlesng35/storefront/internal/auth"
	"github.com/charlesng35/storefront/internal/auth/providers"
	sharedtestutil "github.com/charlesng35/storefront/internal/database/testutil"
	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/models"
	"github.com/charlesng35/storefront/internal/services"
	"github.com/charlesng35/storefront/internal/storage"
	"github.com/charlesng35/storefront/pkg/crypto"
	"github.com/charlesng35/storefront/pkg/mail"
	"github.com/charlesng35/storefront/pkg/response"
)

// AdminEmail is the back-office identity every test environment is configured with.
const AdminEmail = "admin@example.com"

// AdminPassword is the clear text counterpart of the configured bcrypt hash.
const AdminPassword = "super-secret-admin"

// CaptureMailer records outbound messages instead of delivering them.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *CaptureMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Sent returns a copy of the captured messages.
func (m *CaptureMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// GoogleStub satisfies the ID token verifier with a programmable callback.
type GoogleStub struct {
	VerifyFunc func(ctx context.Context, rawToken string) (providers.GoogleIdentity, error)
}

func (s *GoogleStub) Verify(ctx context.Context, rawToken string) (providers.GoogleIdentity, error) {
	if s.VerifyFunc == nil {
		return providers.GoogleIdentity{}, providers.ErrGoogleTokenInvalid
	}
	return s.VerifyFunc(ctx, rawToken)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	SessionJWT *iauth.JWTService
	AdminJWT   *iauth.JWTService
	Mailer     *CaptureMailer
	Google     *GoogleStub
	Users      *services.UserService
	Dispatcher *services.MailDispatcher
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t)

	sessionJWT, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-session-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	adminJWT, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-admin-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	mailer := &CaptureMailer{}
	dispatcher, err := services.NewMailDispatcher(mailer)
	require.NoError(t, err)
	t.Cleanup(dispatcher.Close)

	verifications, err := services.NewEmailVerificationService(db,
		services.WithVerificationBaseURL("https://shop.example.com"),
	)
	require.NoError(t, err)

	userSvc, err := services.NewUserService(db, verifications, dispatcher)
	require.NoError(t, err)
	categorySvc, err := services.NewCategoryService(db)
	require.NoError(t, err)
	productSvc, err := services.NewProductService(db)
	require.NoError(t, err)
	cartSvc, err := services.NewCartService(db)
	require.NoError(t, err)

	localProvider, err := providers.NewLocalProvider(db)
	require.NoError(t, err)

	google := &GoogleStub{}

	adminHash, err := crypto.HashPassword(AdminPassword)
	require.NoError(t, err)

	images, err := storage.NewImageStore(t.TempDir(), "assets/images")
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		Users:      userSvc,
		Categories: categorySvc,
		Products:   productSvc,
		Cart:       cartSvc,
		Local:      localProvider,
		Google:     google,
		SessionJWT: sessionJWT,
		AdminJWT:   adminJWT,
		Admin: handlers.AdminIdentity{
			Email:        AdminEmail,
			PasswordHash: adminHash,
		},
		Images: images,
	})
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Router:     router,
		SessionJWT: sessionJWT,
		AdminJWT:   adminJWT,
		Mailer:     mailer,
		Google:     google,
		Users:      userSvc,
		Dispatcher: dispatcher,
	}
}

// CreateUser inserts a confirmed customer account and returns it.
func (e *Env) CreateUser(email, password string) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	user := &models.User{
		Name:           "Test Shopper",
		Email:          email,
		Password:       hashed,
		Role:           models.RoleCustomer,
		EmailConfirmed: true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// SessionToken issues a customer session token for the given user.
func (e *Env) SessionToken(user *models.User) string {
	e.T.Helper()

	token, err := e.SessionJWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	require.NoError(e.T, err)
	return token
}

// AdminToken logs in with the configured admin identity and returns its token.
func (e *Env) AdminToken() string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/admin/login", map[string]string{
		"email":    AdminEmail,
		"password": AdminPassword,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	var result struct {
		Token string `json:"token"`
	}
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Token)
	return result.Token
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// WaitForMail polls until the capture mailer holds at least count messages.
func (e *Env) WaitForMail(count int) []mail.Message {
	e.T.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := e.Mailer.Sent(); len(msgs) >= count {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.T.Fatalf("timed out waiting for %d mail message(s)", count)
	return nil
}
