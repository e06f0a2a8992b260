// Package session keeps the open to-do sessions. Each session owns one
// tasklist.Store; tasks live exactly as long as their session.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/benvon/cupid-code/internal/events"
	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTimeout is how long a session may go unused before it is reaped
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultMaxPerUser is the number of concurrent sessions a user may hold
	DefaultMaxPerUser = 5
	// DefaultReapInterval is how often Start looks for idle sessions
	DefaultReapInterval = time.Minute
)

var (
	// ErrSessionNotFound is returned for unknown or reaped sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionForbidden is returned when a session belongs to another user
	ErrSessionForbidden = errors.New("session belongs to another user")
)

// Session is one visit to the to-do screen
type Session struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Store    *tasklist.Store
	OpenedAt time.Time

	mu          sync.Mutex
	lastUsed    time.Time
	unsubscribe func()
}

// LastUsed returns when the session was last opened or fetched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// Config controls registry limits
type Config struct {
	IdleTimeout  time.Duration
	MaxPerUser   int
	ReapInterval time.Duration
	// Clock stamps task creation times in every store the registry opens
	Clock tasklist.Clock
}

// Registry holds open sessions in memory
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	cfg       Config
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, publisher events.Publisher, logger *zap.Logger) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = DefaultMaxPerUser
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultReapInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = tasklist.SystemClock{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:  make(map[uuid.UUID]*Session),
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Open creates a new empty session for userID. When the user already holds
// MaxPerUser sessions the least recently used one is closed first.
func (r *Registry) Open(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.now()
	sess := &Session{
		ID:       uuid.New(),
		UserID:   userID,
		Store:    tasklist.New(tasklist.WithClock(r.cfg.Clock)),
		OpenedAt: now,
		lastUsed: now,
	}
	sess.unsubscribe = sess.Store.OnChange(r.forward(sess))

	r.mu.Lock()
	evicted := r.evictOverflowLocked(userID)
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	for _, old := range evicted {
		r.discard(ctx, old, "evicted")
	}

	r.publish(ctx, events.NewEvent(events.EventSessionOpened, userID, sess.ID))
	r.logger.Info("session_opened",
		zap.String("session_id", sess.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return sess, nil
}

// Get returns the session and marks it as used.
func (r *Registry) Get(userID, sessionID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.UserID != userID {
		return nil, ErrSessionForbidden
	}
	sess.touch(r.now())
	return sess, nil
}

// Close discards the session and its tasks.
func (r *Registry) Close(ctx context.Context, userID, sessionID uuid.UUID) error {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if sess.UserID != userID {
		r.mu.Unlock()
		return ErrSessionForbidden
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	r.discard(ctx, sess, "closed")
	return nil
}

// Reap closes every session idle longer than IdleTimeout and returns how many were closed.
func (r *Registry) Reap(ctx context.Context) int {
	cutoff := r.now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var idle []*Session
	for id, sess := range r.sessions {
		if sess.LastUsed().Before(cutoff) {
			idle = append(idle, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		r.discard(ctx, sess, "idle")
	}
	return len(idle)
}

// Start reaps idle sessions every ReapInterval until ctx is cancelled
func (r *Registry) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(ctx); n > 0 {
				r.logger.Info("sessions_reaped", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictOverflowLocked removes the user's least recently used sessions so one more fits.
func (r *Registry) evictOverflowLocked(userID uuid.UUID) []*Session {
	var owned []*Session
	for _, sess := range r.sessions {
		if sess.UserID == userID {
			owned = append(owned, sess)
		}
	}
	excess := len(owned) - r.cfg.MaxPerUser + 1
	if excess <= 0 {
		return nil
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].LastUsed().Before(owned[j].LastUsed())
	})
	evicted := owned[:excess]
	for _, sess := range evicted {
		delete(r.sessions, sess.ID)
	}
	return evicted
}

func (r *Registry) discard(ctx context.Context, sess *Session, reason string) {
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	r.publish(ctx, events.NewEvent(events.EventSessionClosed, sess.UserID, sess.ID))
	r.logger.Info("session_closed",
		zap.String("session_id", sess.ID.String()),
		zap.String("user_id", sess.UserID.String()),
		zap.String("reason", reason),
	)
}

func (r *Registry) forward(sess *Session) tasklist.Listener {
	return func(c tasklist.Change) {
		r.publish(context.Background(), events.FromChange(sess.UserID, sess.ID, c))
	}
}

func (r *Registry) publish(ctx context.Context, ev *events.Event) {
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Debug("event_not_published",
			zap.String("event_type", string(ev.Type)),
			zap.Error(err),
		)
	}
}
