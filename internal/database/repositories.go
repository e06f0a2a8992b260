package database

import (
	"context"
	"time"

	"github.com/benvon/cupid-code/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user operations used by handlers and middleware
// This interface enables better testability by allowing mock implementations
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	UpsertFromClaims(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

// PreferencesRepositoryInterface defines the interface for preferences operations
type PreferencesRepositoryInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error)
	SetKeepLoggedIn(ctx context.Context, userID uuid.UUID, keep bool) (*models.Preferences, error)
}

// TaskActivityRepositoryInterface defines the interface for activity counters
type TaskActivityRepositoryInterface interface {
	Increment(ctx context.Context, userID uuid.UUID, counter ActivityCounter, at time.Time) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.TaskActivity, error)
}

// CorsConfigRepositoryInterface is read by the CORS reloader
type CorsConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// RatelimitConfigRepositoryInterface is read, and seeded with the default rate, by the rate limit reloader
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface            = (*UserRepository)(nil)
	_ PreferencesRepositoryInterface     = (*PreferencesRepository)(nil)
	_ TaskActivityRepositoryInterface    = (*TaskActivityRepository)(nil)
	_ CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
