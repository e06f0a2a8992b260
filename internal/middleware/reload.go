package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// hotHandler serves through a handler that is rebuilt from runtime config.
// Until the first successful build it passes requests straight to next.
type hotHandler struct {
	next     http.Handler
	interval time.Duration
	mu       sync.RWMutex
	current  http.Handler
}

func (h *hotHandler) swap(handler http.Handler) {
	h.mu.Lock()
	h.current = handler
	h.mu.Unlock()
}

func (h *hotHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.mu.RLock()
	cur := h.current
	h.mu.RUnlock()
	if cur != nil {
		cur.ServeHTTP(w, req)
		return
	}
	if h.next != nil {
		h.next.ServeHTTP(w, req)
	}
}

// reloadLoop calls load every interval until ctx is cancelled
func (h *hotHandler) reloadLoop(ctx context.Context, load func(context.Context)) {
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			load(ctx)
		}
	}
}
