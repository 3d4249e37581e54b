package app

import (
	"github.com/charlesng35/storefront/internal/auth"
)

// SessionJWTConfig converts AuthConfig into the customer session token parameters.
func (c AuthConfig) SessionJWTConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// AdminJWTConfig converts AuthConfig into the admin token parameters. Admin
// tokens reuse the session issuer but are signed with their own secret.
func (c AuthConfig) AdminJWTConfig() auth.JWTConfig {
	ttl := c.Admin.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.Admin.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}
