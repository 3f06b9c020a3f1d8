package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academy-dev/academy/internal/platform/database"
)

const dbTimeout = 5 * time.Second

// EventType names a learning event.
type EventType string

const (
	EventLessonLoaded    EventType = "lesson_loaded"
	EventTaskSubmitted   EventType = "task_submitted"
	EventTaskPassed      EventType = "task_passed"
	EventLessonCompleted EventType = "lesson_completed"
	EventCourseCompleted EventType = "course_completed"
)

// Event is one step of a learner's run through a lesson.
type Event struct {
	RunID     string
	UserID    int64
	LessonID  int64
	TaskID    int64
	Type      EventType
	Data      map[string]any
	CreatedAt time.Time
}

// EventLogger records learning events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// Count returns how many events of type t were logged.
func (l *MemoryEventLogger) Count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

var learningEventsSchema = []string{
	`CREATE TABLE IF NOT EXISTS learning_events (
		id         BIGSERIAL PRIMARY KEY,
		run_id     UUID        NOT NULL,
		user_id    BIGINT,
		lesson_id  BIGINT      NOT NULL,
		task_id    BIGINT,
		event_type TEXT        NOT NULL,
		data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS learning_events_run_idx ON learning_events (run_id, created_at)`,
}

// PostgresEventLogger inserts events into the learning_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

// EnsureSchema creates the learning_events table if it is missing.
func (l *PostgresEventLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := database.Migrate(ctx, l.pool, learningEventsSchema...); err != nil {
		return fmt.Errorf("learning events schema: %w", err)
	}
	return nil
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	runID, err := uuid.Parse(event.RunID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", event.RunID, err)
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO learning_events (run_id, user_id, lesson_id, task_id, event_type, data, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb, $7)`,
		runID.String(),
		nullIfZero(event.UserID),
		event.LessonID,
		nullIfZero(event.TaskID),
		string(event.Type),
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"run_id", event.RunID,
		"lesson_id", event.LessonID,
	)
	return nil
}

// RunEvents returns the events of one run in the order they were logged.
func (l *PostgresEventLogger) RunEvents(ctx context.Context, runID string) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT run_id::text, COALESCE(user_id, 0), lesson_id, COALESCE(task_id, 0), event_type, data, created_at
		 FROM learning_events
		 WHERE run_id = $1::uuid
		 ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var (
			e    Event
			kind string
			data []byte
		)
		if err := row.Scan(&e.RunID, &e.UserID, &e.LessonID, &e.TaskID, &kind, &data, &e.CreatedAt); err != nil {
			return Event{}, err
		}
		e.Type = EventType(kind)
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return Event{}, fmt.Errorf("decode event data: %w", err)
		}
		return e, nil
	})
}

func nullIfZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
