package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultCORSMaxAge = 86400

// CORSReloader wraps rs/cors and periodically reloads CORS config from the database.
type CORSReloader struct {
	hotHandler
	repo     database.CorsConfigRepositoryInterface
	fallback string // FRONTEND_URL, used when no row is stored
	log      *zap.Logger
}

// NewCORSReloader creates a CORS middleware that loads config from the DB and hot-reloads it.
func NewCORSReloader(repo database.CorsConfigRepositoryInterface, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	r := &CORSReloader{
		repo:     repo,
		fallback: frontendURLFallback,
		log:      log,
	}
	r.interval = reloadInterval
	return r
}

// Middleware returns a middleware that wraps next with CORS and hot-reload.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *CORSReloader) Start(ctx context.Context) {
	r.reloadLoop(ctx, r.load)
}

func (r *CORSReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}

	cfg, err := r.repo.Get(ctx)
	if err != nil {
		r.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
	}
	if err != nil || cfg == nil {
		cfg = &models.CorsConfig{
			AllowedOrigins:   r.fallback,
			AllowCredentials: true,
			MaxAge:           defaultCORSMaxAge,
		}
	}

	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})
	r.swap(c.Handler(r.next))
}
