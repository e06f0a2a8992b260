package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/cupid-code/internal/models"
	"github.com/google/uuid"
)

// IdentityConfigRepository handles identity provider configuration
type IdentityConfigRepository struct {
	db *DB
}

// NewIdentityConfigRepository creates a new identity config repository
func NewIdentityConfigRepository(db *DB) *IdentityConfigRepository {
	return &IdentityConfigRepository{db: db}
}

const identityColumns = `id, provider, issuer, client_id, client_secret, token_url, signup_url, jwks_url, created_at, updated_at`

func scanIdentityConfig(row interface{ Scan(...any) error }) (*models.IdentityConfig, error) {
	c := &models.IdentityConfig{}
	err := row.Scan(
		&c.ID,
		&c.Provider,
		&c.Issuer,
		&c.ClientID,
		&c.ClientSecret,
		&c.TokenURL,
		&c.SignupURL,
		&c.JWKSUrl,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// GetByProvider retrieves the configuration for a provider name
func (r *IdentityConfigRepository) GetByProvider(ctx context.Context, provider string) (*models.IdentityConfig, error) {
	c, err := scanIdentityConfig(r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identity_config WHERE provider = $1`, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity config for provider %s %w", provider, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity config: %w", err)
	}
	return c, nil
}

// GetAll retrieves every provider configuration ordered by name
func (r *IdentityConfigRepository) GetAll(ctx context.Context) ([]*models.IdentityConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identity_config ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to query identity configs: %w", err)
	}
	defer func() {
		// rows are fully consumed below; a close error here is not actionable
		_ = rows.Close()
	}()

	var configs []*models.IdentityConfig
	for rows.Next() {
		c, err := scanIdentityConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity configs: %w", err)
	}
	return configs, nil
}

// Upsert creates or replaces the configuration for c.Provider
func (r *IdentityConfigRepository) Upsert(ctx context.Context, c *models.IdentityConfig) error {
	if c.Provider == "" || c.Issuer == "" || c.ClientID == "" {
		return fmt.Errorf("provider, issuer and client_id are required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO identity_config (id, provider, issuer, client_id, client_secret, token_url, signup_url, jwks_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (provider) DO UPDATE SET
			issuer = EXCLUDED.issuer,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			token_url = EXCLUDED.token_url,
			signup_url = EXCLUDED.signup_url,
			jwks_url = EXCLUDED.jwks_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`,
		c.ID,
		c.Provider,
		c.Issuer,
		c.ClientID,
		c.ClientSecret,
		c.TokenURL,
		c.SignupURL,
		c.JWKSUrl,
		now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert identity config: %w", err)
	}
	return nil
}

// Delete removes a provider configuration
func (r *IdentityConfigRepository) Delete(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identity_config WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete identity config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("identity config for provider %s %w", provider, ErrNotFound)
	}
	return nil
}
