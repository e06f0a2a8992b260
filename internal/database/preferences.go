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

// PreferencesRepository stores per-user settings
type PreferencesRepository struct {
	db *DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the user's preferences. Users without a row get the defaults.
func (r *PreferencesRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	prefs := &models.Preferences{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT keep_logged_in, updated_at FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.KeepLoggedIn, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return prefs, nil
}

// SetKeepLoggedIn stores the keep_logged_in flag
func (r *PreferencesRepository) SetKeepLoggedIn(ctx context.Context, userID uuid.UUID, keep bool) (*models.Preferences, error) {
	prefs := &models.Preferences{UserID: userID, KeepLoggedIn: keep}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_preferences (user_id, keep_logged_in, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			keep_logged_in = EXCLUDED.keep_logged_in,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, userID, keep, time.Now()).Scan(&prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set preferences: %w", err)
	}
	return prefs, nil
}
