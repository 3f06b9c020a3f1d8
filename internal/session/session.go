// Package session tracks who is signed in. State is restored optimistically
// from a Store and then confirmed against the backend.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Backend is the part of the REST client a session talks to.
type Backend interface {
	Me(ctx context.Context) (curriculum.User, error)
	Logout(ctx context.Context) error
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
}

// Session holds the current user.
type Session struct {
	store   Store
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.RWMutex
	user *curriculum.User
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a signed-out session.
func New(store Store, backend Backend, opts ...Option) *Session {
	s := &Session{
		store:   store,
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Init restores persisted state. A stored cookie holding an expired JWT
// discards the state. Unreadable state is cleared and the session starts
// signed out.
func (s *Session) Init(ctx context.Context) error {
	st, ok, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("discarding unreadable session state", "error", err)
		return s.store.Clear(ctx)
	}
	if !ok || st.User == nil {
		return nil
	}
	if name, expired := anyExpired(st.Cookies, s.now()); expired {
		s.logger.Info("stored session expired", "cookie", name)
		return s.store.Clear(ctx)
	}

	s.backend.SetCookies(cookiesToHTTP(st.Cookies))
	s.set(st.User)
	s.logger.Debug("session restored", "user_id", st.User.ID)
	return nil
}

// Revalidate asks the backend who is signed in. Any failure signs out
// locally; the error is returned for reporting only.
func (s *Session) Revalidate(ctx context.Context) error {
	u, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Info("session not confirmed, signing out", "error", err)
		s.Logout(ctx)
		return err
	}
	s.set(&u)
	return s.persist(ctx, &u)
}

// Login records u as the signed-in user together with the backend's
// current cookies.
func (s *Session) Login(ctx context.Context, u curriculum.User) error {
	s.set(&u)
	return s.persist(ctx, &u)
}

// Logout tells the backend, ignoring failures, and always clears local
// state, cookies included.
func (s *Session) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", "error", err)
	}
	s.backend.ClearCookies()
	s.set(nil)
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("clearing session state", "error", err)
	}
}

// User returns the signed-in user.
func (s *Session) User() (curriculum.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return curriculum.User{}, false
	}
	return *s.user, true
}

// Role returns the user's role, or RoleGuest when signed out.
func (s *Session) Role() curriculum.Role {
	u, ok := s.User()
	if !ok || u.Role == "" {
		return curriculum.RoleGuest
	}
	return u.Role
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.User()
	return ok
}

// Greeting is the home page salutation.
func (s *Session) Greeting() string {
	if u, ok := s.User(); ok {
		return "Hello, " + u.FullName + "!"
	}
	return "Hello"
}

func (s *Session) set(u *curriculum.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Session) persist(ctx context.Context, u *curriculum.User) error {
	return s.store.Save(ctx, State{User: u, Cookies: cookiesFromHTTP(s.backend.Cookies())})
}
