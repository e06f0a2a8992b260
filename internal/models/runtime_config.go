package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityConfig describes one identity provider. Stored in identity_config
// and selected at startup by IDENTITY_PROVIDER.
type IdentityConfig struct {
	ID           uuid.UUID `json:"id"`
	Provider     string    `json:"provider"`
	Issuer       string    `json:"issuer"`
	ClientID     string    `json:"client_id"`
	ClientSecret *string   `json:"client_secret,omitempty"`
	TokenURL     *string   `json:"token_url,omitempty"`  // defaults to {issuer}/oauth2/token
	SignupURL    *string   `json:"signup_url,omitempty"` // sign-up disabled when unset
	JWKSUrl      *string   `json:"jwks_url,omitempty"`   // defaults to {issuer}/.well-known/jwks.json
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResolvedTokenURL returns the token endpoint, falling back to the issuer default
func (c *IdentityConfig) ResolvedTokenURL() string {
	if c.TokenURL != nil && *c.TokenURL != "" {
		return *c.TokenURL
	}
	return strings.TrimSuffix(c.Issuer, "/") + "/oauth2/token"
}

// ResolvedJWKSURL returns the key set endpoint, falling back to the issuer default
func (c *IdentityConfig) ResolvedJWKSURL() string {
	if c.JWKSUrl != nil && *c.JWKSUrl != "" {
		return *c.JWKSUrl
	}
	return strings.TrimSuffix(c.Issuer, "/") + "/.well-known/jwks.json"
}

// RatelimitConfig holds the request rate (ulule format, e.g. "5-S", "100-M").
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CorsConfig holds CORS settings applied by the server.
type CorsConfig struct {
	ConfigKey        string    `json:"config_key"`
	AllowedOrigins   string    `json:"allowed_origins"` // Comma-separated
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Origins splits AllowedOrigins, trimming blanks and duplicates.
func (c *CorsConfig) Origins() []string {
	if c == nil || c.AllowedOrigins == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(c.AllowedOrigins, ",") {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
