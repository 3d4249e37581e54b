package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer is the OIDC issuer that signs Google ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// ErrGoogleTokenInvalid is returned when an ID token fails verification or
// carries incomplete identity data.
var ErrGoogleTokenInvalid = errors.New("google provider: invalid id token")

// GoogleIdentity is the subset of ID-token claims the storefront consumes.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// IDTokenVerifier abstracts ID-token verification so tests can supply a stub.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (GoogleIdentity, error)
}

// GoogleOptions configures the Google provider.
type GoogleOptions struct {
	ClientID   string
	Issuer     string // defaults to GoogleIssuer
	HTTPClient *http.Client
	Timeout    time.Duration
}

// GoogleProvider verifies externally-issued Google ID tokens against the
// provider's published signing keys and audience.
type GoogleProvider struct {
	clientID   string
	issuer     string
	httpClient *http.Client
	timeout    time.Duration

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider validates the options and returns a provider. OIDC
// discovery is deferred until the first verification so construction never
// performs network I/O.
func NewGoogleProvider(opts GoogleOptions) (*GoogleProvider, error) {
	if strings.TrimSpace(opts.ClientID) == "" {
		return nil, errors.New("google provider: client id is required")
	}

	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		issuer = GoogleIssuer
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GoogleProvider{
		clientID:   opts.ClientID,
		issuer:     issuer,
		httpClient: opts.HTTPClient,
		timeout:    timeout,
	}, nil
}

// Verify checks the token signature and audience and extracts the identity claims.
func (p *GoogleProvider) Verify(ctx context.Context, rawToken string) (GoogleIdentity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}

	verifier, err := p.tokenVerifier(ctx)
	if err != nil {
		return GoogleIdentity{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: decode claims: %v", ErrGoogleTokenInvalid, err)
	}

	if strings.TrimSpace(claims.Email) == "" {
		return GoogleIdentity{}, fmt.Errorf("%w: email claim missing", ErrGoogleTokenInvalid)
	}

	return GoogleIdentity{
		Subject: idToken.Subject,
		Email:   strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:    strings.TrimSpace(claims.Name),
	}, nil
}

// tokenVerifier runs OIDC discovery on first use and caches the verifier.
// Only a successful discovery is cached, so a transient outage at first
// sign-in does not disable Google login for the life of the process.
func (p *GoogleProvider) tokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verifier != nil {
		return p.verifier, nil
	}

	discoveryCtx := ctx
	if p.httpClient != nil {
		discoveryCtx = oidc.ClientContext(discoveryCtx, p.httpClient)
	}

	discoveryCtx, cancel := context.WithTimeout(discoveryCtx, p.timeout)
	defer cancel()

	issuer, err := oidc.NewProvider(discoveryCtx, p.issuer)
	if err != nil {
		return nil, fmt.Errorf("google provider: discovery failed: %w", err)
	}

	p.verifier = issuer.Verifier(&oidc.Config{ClientID: p.clientID})
	return p.verifier, nil
}
