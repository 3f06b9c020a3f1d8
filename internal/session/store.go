package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Cookie is a persisted backend cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// State is what survives between runs: the signed-in user and the cookies
// that authenticate it.
type State struct {
	User    *curriculum.User `json:"user"`
	Cookies []Cookie         `json:"cookies,omitempty"`
}

func cookiesFromHTTP(in []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func cookiesToHTTP(in []Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return out
}

// Store persists session state.
type Store interface {
	// Load reports false when nothing is stored.
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, st State) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps state for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return State{}, false, nil
	}
	return *s.state, true, nil
}

func (s *MemoryStore) Save(_ context.Context, st State) error {
	s.mu.Lock()
	s.state = &st
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()
	return nil
}

// FileStore keeps state in a JSON file readable only by its owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(context.Context) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read session file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return st, true, nil
}

func (s *FileStore) Save(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// KV is the JSON key-value surface RedisStore needs. *cache.Cache
// implements it.
type KV interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps state under a single key so several machines can share
// one sign-in profile.
type RedisStore struct {
	kv  KV
	key string
	ttl time.Duration
}

// NewRedisStore stores state at key. A zero ttl never expires.
func NewRedisStore(kv KV, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{kv: kv, key: key, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) (State, bool, error) {
	var st State
	ok, err := s.kv.GetJSON(ctx, s.key, &st)
	if err != nil {
		return State{}, false, fmt.Errorf("load session: %w", err)
	}
	return st, ok, nil
}

func (s *RedisStore) Save(ctx context.Context, st State) error {
	if err := s.kv.SetJSON(ctx, s.key, st, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
