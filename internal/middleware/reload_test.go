package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/cupid-code/internal/models"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

type fakeCorsRepo struct {
	mu  sync.Mutex
	cfg *models.CorsConfig
	err error
}

func (f *fakeCorsRepo) Get(context.Context) (*models.CorsConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, f.err
}

func (f *fakeCorsRepo) set(cfg *models.CorsConfig) {
	f.mu.Lock()
	f.cfg = cfg
	f.mu.Unlock()
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/menu", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORSReloader(t *testing.T) {
	t.Parallel()

	repo := &fakeCorsRepo{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	reloader := NewCORSReloader(repo, "https://app.example.com", zap.NewNop(), 0)
	h := reloader.Middleware()(next)

	if got := preflight(h, "https://app.example.com").Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected fallback origin to be allowed, got %q", got)
	}

	repo.set(&models.CorsConfig{AllowedOrigins: "https://other.example.com"})
	reloader.load(context.Background())

	if got := preflight(h, "https://app.example.com").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected old origin to be rejected after reload, got %q", got)
	}
	if got := preflight(h, "https://other.example.com").Header().Get("Access-Control-Allow-Origin"); got != "https://other.example.com" {
		t.Errorf("Expected reloaded origin to be allowed, got %q", got)
	}
}

func TestCORSReloader_RepoErrorUsesFallback(t *testing.T) {
	t.Parallel()

	repo := &fakeCorsRepo{err: errors.New("db down")}
	h := NewCORSReloader(repo, "https://app.example.com", zap.NewNop(), 0).Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	if got := preflight(h, "https://app.example.com").Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected fallback origin, got %q", got)
	}
}

type fakeRatelimitRepo struct {
	mu    sync.Mutex
	cfg   *models.RatelimitConfig
	saved []string
}

func (f *fakeRatelimitRepo) Get(context.Context) (*models.RatelimitConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, nil
}

func (f *fakeRatelimitRepo) Set(_ context.Context, c *models.RatelimitConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, c.Rate)
	return nil
}

func TestRateLimitReloader(t *testing.T) {
	t.Parallel()

	repo := &fakeRatelimitRepo{cfg: &models.RatelimitConfig{Rate: "2-M"}}
	store := memory.NewStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := NewRateLimitReloader(store, repo, "", zap.NewNop(), time.Minute).Middleware()(next)

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest("GET", "/api/v1/menu", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes[i] = w.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}
}

func TestRateLimitReloader_SeedsDefault(t *testing.T) {
	t.Parallel()

	repo := &fakeRatelimitRepo{}
	NewRateLimitReloader(memory.NewStore(), repo, "", zap.NewNop(), 0).
		Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	if len(repo.saved) != 1 || repo.saved[0] != DefaultRatelimitRate {
		t.Errorf("Expected default rate to be saved once, got %v", repo.saved)
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"get without type", http.MethodGet, "", "", http.StatusOK},
		{"empty post", http.MethodPost, "", "", http.StatusOK},
		{"json post", http.MethodPost, `{"text":"x"}`, "application/json; charset=utf-8", http.StatusOK},
		{"post missing type", http.MethodPost, `{"text":"x"}`, "", http.StatusBadRequest},
		{"post form", http.MethodPost, `text=x`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, "/", nil)
			} else {
				req = httptest.NewRequest(tt.method, "/", stringsReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(true)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("Expected no HSTS header on plain HTTP")
	}
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
