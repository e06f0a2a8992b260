package identity

import (
	"context"
	"fmt"

	"github.com/benvon/cupid-code/internal/models"
)

// ConfigSource loads identity provider configuration
type ConfigSource interface {
	GetByProvider(ctx context.Context, provider string) (*models.IdentityConfig, error)
}

// Provider bundles the client and verifier for one configured provider
type Provider struct {
	Name     string
	Config   *models.IdentityConfig
	Client   *Client
	Verifier *Verifier
}

// LoadProvider reads the named provider's configuration and builds its client and verifier
func LoadProvider(ctx context.Context, source ConfigSource, name string, jwks *JWKSManager) (*Provider, error) {
	cfg, err := source.GetByProvider(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity provider %s: %w", name, err)
	}
	return NewProvider(cfg, jwks), nil
}

// NewProvider builds a provider from an already loaded configuration
func NewProvider(cfg *models.IdentityConfig, jwks *JWKSManager) *Provider {
	if jwks == nil {
		jwks = NewJWKSManager()
	}
	return &Provider{
		Name:     cfg.Provider,
		Config:   cfg,
		Client:   NewClient(cfg),
		Verifier: NewVerifier(jwks, cfg.Issuer, cfg.ClientID, cfg.ResolvedJWKSURL()),
	}
}
