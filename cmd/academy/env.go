package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
	"github.com/academy-dev/academy/internal/platform/cache"
	"github.com/academy-dev/academy/internal/platform/config"
	"github.com/academy-dev/academy/internal/platform/database"
	"github.com/academy-dev/academy/internal/runner"
	"github.com/academy-dev/academy/internal/session"
)

// appEnv carries what commands share. Connections are opened on first use
// so offline commands never dial Redis or PostgreSQL.
type appEnv struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	lines  *bufio.Scanner

	cfg    *config.Config
	logger *slog.Logger
	client *api.Client

	sess  *session.Session
	cache *cache.Cache
	db    *database.DB
}

func (e *appEnv) setup(cfg *config.Config) error {
	e.cfg = cfg
	e.logger = newLogger(cfg.Log, e.errOut)
	slog.SetDefault(e.logger)

	client, err := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(e.logger.With("component", "api")),
	)
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

func (e *appEnv) close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Warn("closing cache", "error", err)
		}
	}
	if e.db != nil {
		e.db.Close()
	}
}

// session restores the persisted sign-in state.
func (e *appEnv) session(ctx context.Context) (*session.Session, error) {
	if e.sess != nil {
		return e.sess, nil
	}
	store, err := e.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	s := session.New(store, e.client, session.WithLogger(e.logger))
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	e.sess = s
	return s, nil
}

func (e *appEnv) sessionStore(ctx context.Context) (session.Store, error) {
	switch e.cfg.Session.Store {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		c, err := e.redis(ctx)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(c, c.Key("session", e.cfg.Session.Profile), e.cfg.Session.TTL), nil
	default:
		return session.NewFileStore(e.cfg.Session.File), nil
	}
}

func (e *appEnv) redis(ctx context.Context) (*cache.Cache, error) {
	if e.cache != nil {
		return e.cache, nil
	}
	c, err := cache.New(ctx, e.cfg.Cache.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to cache: %w", err)
	}
	e.cache = c
	return c, nil
}

func (e *appEnv) database(ctx context.Context) (*database.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := database.New(ctx, e.cfg.Database.URL, e.cfg.Database.MaxConns, e.cfg.Database.MinConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	e.db = db
	return db, nil
}

// events returns the learning event sink. Storage problems are logged and
// the run continues without events.
func (e *appEnv) events(ctx context.Context) runner.EventLogger {
	if !e.cfg.EventsEnabled() {
		return runner.NopEventLogger{}
	}
	db, err := e.database(ctx)
	if err != nil {
		e.logger.Warn("learning events disabled", "error", err)
		return runner.NopEventLogger{}
	}
	logger := runner.NewPostgresEventLogger(db.Pool)
	if err := logger.EnsureSchema(ctx); err != nil {
		e.logger.Warn("learning events disabled", "error", err)
		return runner.NopEventLogger{}
	}
	return logger
}

// signedIn returns the session of a signed-in user.
func (e *appEnv) signedIn(ctx context.Context) (*session.Session, curriculum.User, error) {
	s, err := e.session(ctx)
	if err != nil {
		return nil, curriculum.User{}, err
	}
	u, ok := s.User()
	if !ok {
		return nil, curriculum.User{}, errNotSignedIn
	}
	return s, u, nil
}

// requireRole runs the role guard ahead of privileged commands.
func (e *appEnv) requireRole(ctx context.Context, roles ...curriculum.Role) (*session.Session, error) {
	s, err := e.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.RequireRole(roles...); err != nil {
		if slices.Contains(roles, curriculum.RoleGuest) || s.IsAuthenticated() {
			return nil, err
		}
		return nil, errNotSignedIn
	}
	return s, nil
}

var errNotSignedIn = errors.New("not signed in; run `academy login` first")

// readLine reads one line from stdin, without the newline.
func (e *appEnv) readLine() (string, bool) {
	if e.lines == nil {
		e.lines = bufio.NewScanner(e.in)
	}
	if !e.lines.Scan() {
		return "", false
	}
	return strings.TrimRight(e.lines.Text(), "\r"), true
}

// prompt writes label and reads the answer when value is empty.
func (e *appEnv) prompt(value, label string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(e.out, "%s: ", label)
	line, _ := e.readLine()
	return line
}

// formError reports field errors from local validation or a backend
// rejection.
type formError forms.Errors

func (f formError) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == forms.General {
			parts = append(parts, f[k])
			continue
		}
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

func check(errs forms.Errors) error {
	if errs.OK() {
		return nil
	}
	return formError(errs)
}
