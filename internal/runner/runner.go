// Package runner plays a lesson: it walks the learner through its tasks,
// submits answers for grading and decides where to go after the last one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/curriculum"
)

const (
	// DefaultDelay is how long a passed task stays on screen before the
	// runner moves on.
	DefaultDelay = 1200 * time.Millisecond

	// DefaultCode seeds the editor when a code task has no starter code.
	DefaultCode = "// Write your code here\n"

	SelectOptionNotice = "You should select an option."
	CompletedMessage   = "Congratulations! You have completed the course."
	NetworkError       = "Network error"
)

var (
	ErrNoLesson            = errors.New("no lesson loaded")
	ErrNoOptionSelected    = errors.New("no option selected")
	ErrTextTaskUnsupported = errors.New("text tasks cannot be submitted")
	ErrBusy                = errors.New("a submission is already in progress")
	ErrUnknownOption       = errors.New("option does not belong to the current task")
)

// Grader is the part of the REST client the runner needs.
type Grader interface {
	GetLesson(ctx context.Context, id int64) (curriculum.Lesson, error)
	CheckTask(ctx context.Context, taskID int64, sub api.Submission) (api.CheckResult, error)
}

// Status is the verdict shown for the current task.
type Status struct {
	Correct bool
}

// State is a snapshot of the runner.
type State struct {
	Lesson   *curriculum.Lesson
	Index    int
	Code     string
	Selected *int64
	Status   *Status
	Console  string
	Error    string
	Notice   string
}

// Outcome says what happened after a submission.
type Outcome int

const (
	// Retry leaves the learner on the same task.
	Retry Outcome = iota
	// Advanced moved to the next task of the lesson.
	Advanced
	// NavigateLesson means the next lesson should be opened.
	NavigateLesson
	// CourseComplete means the course is finished.
	CourseComplete
	// NoNextStep means the lesson is finished and there is nowhere to go.
	NoNextStep
)

func (o Outcome) String() string {
	switch o {
	case Retry:
		return "retry"
	case Advanced:
		return "advanced"
	case NavigateLesson:
		return "navigate_lesson"
	case CourseComplete:
		return "course_complete"
	case NoNextStep:
		return "no_next_step"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by Submit.
type Result struct {
	Outcome      Outcome
	NextLessonID int64
	Message      string
}

// Runner holds the state of one lesson being played.
type Runner struct {
	grader   Grader
	events   EventLogger
	logger   *slog.Logger
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	observer func(State)
	userID   int64

	mu     sync.Mutex
	state  State
	solved map[int64]bool
	runID  string
	busy   bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause after a passed task.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithSleep replaces the pause implementation.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithObserver is called with the state as soon as a task passes, before
// the pause.
func WithObserver(fn func(State)) Option {
	return func(r *Runner) { r.observer = fn }
}

// WithEvents sets the learning event sink.
func WithEvents(l EventLogger) Option {
	return func(r *Runner) { r.events = l }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithUser tags events with the learner's id.
func WithUser(id int64) Option {
	return func(r *Runner) { r.userID = id }
}

// New creates a runner with no lesson loaded.
func New(grader Grader, opts ...Option) *Runner {
	r := &Runner{
		grader: grader,
		events: NopEventLogger{},
		logger: slog.Default(),
		delay:  DefaultDelay,
		sleep:  sleepContext,
		solved: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner")
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Load fetches a lesson and starts it from its first task. On failure no
// lesson is loaded.
func (r *Runner) Load(ctx context.Context, lessonID int64) error {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return ErrBusy
	}
	r.busy = true
	r.mu.Unlock()

	lesson, err := r.grader.GetLesson(ctx, lessonID)

	r.mu.Lock()
	r.busy = false
	r.state = State{}
	r.solved = make(map[int64]bool)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("load lesson %d: %w", lessonID, err)
	}
	r.state.Lesson = &lesson
	r.runID = uuid.NewString()
	r.resetTask()
	r.mu.Unlock()

	r.emit(ctx, Event{Type: EventLessonLoaded, LessonID: lessonID, Data: map[string]any{"tasks": len(lesson.Tasks)}})
	r.logger.Info("lesson loaded", "lesson_id", lessonID, "tasks", len(lesson.Tasks))
	return nil
}

// RunID identifies the current lesson run in learning events.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// State returns a snapshot of the runner.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Busy reports whether a submission is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Current returns the task being played.
func (r *Runner) Current() (curriculum.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current()
}

func (r *Runner) current() (curriculum.Task, bool) {
	l := r.state.Lesson
	if l == nil || r.state.Index < 0 || r.state.Index >= len(l.Tasks) {
		return curriculum.Task{}, false
	}
	return l.Tasks[r.state.Index], true
}

// SelectOption picks a quiz option of the current task.
func (r *Runner) SelectOption(optionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.current()
	if !ok {
		return ErrNoLesson
	}
	for _, o := range task.Options {
		if o.ID.Int64() == optionID {
			r.state.Selected = &optionID
			r.state.Notice = ""
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownOption, optionID)
}

// SetCode replaces the code buffer.
func (r *Runner) SetCode(src string) {
	r.mu.Lock()
	r.state.Code = src
	r.mu.Unlock()
}

// Previous moves back one task.
func (r *Runner) Previous() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Lesson == nil || r.busy || r.state.Index == 0 {
		return false
	}
	r.state.Index--
	r.resetTask()
	return true
}

// CanNext reports whether Next is allowed: the current task is solved and
// is not the last one.
func (r *Runner) CanNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canNext()
}

func (r *Runner) canNext() bool {
	task, ok := r.current()
	if !ok || r.busy {
		return false
	}
	return r.state.Index < len(r.state.Lesson.Tasks)-1 && r.solved[task.ID.Int64()]
}

// Next moves forward one task.
func (r *Runner) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canNext() {
		return false
	}
	r.state.Index++
	r.resetTask()
	return true
}

// Submit sends the answer to the current task for grading.
func (r *Runner) Submit(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return Result{}, ErrBusy
	}
	task, ok := r.current()
	if !ok {
		r.mu.Unlock()
		return Result{}, ErrNoLesson
	}

	var sub api.Submission
	switch task.Type {
	case curriculum.TaskQuiz:
		if r.state.Selected == nil {
			r.state.Notice = SelectOptionNotice
			r.mu.Unlock()
			return Result{Outcome: Retry}, ErrNoOptionSelected
		}
		id := *r.state.Selected
		sub.SelectedOptionID = &id
	case curriculum.TaskCode:
		code := r.state.Code
		sub.Code = &code
	default:
		r.mu.Unlock()
		return Result{Outcome: Retry}, ErrTextTaskUnsupported
	}

	r.busy = true
	r.state.Status = nil
	r.state.Console = ""
	r.state.Error = ""
	r.state.Notice = ""
	lessonID := r.state.Lesson.ID.Int64()
	r.mu.Unlock()

	verdict, err := r.grader.CheckTask(ctx, task.ID.Int64(), sub)
	r.emit(ctx, Event{
		Type:     EventTaskSubmitted,
		LessonID: lessonID,
		TaskID:   task.ID.Int64(),
		Data:     map[string]any{"type": string(task.Type), "correct": err == nil && verdict.Correct},
	})

	var pending []Event
	r.mu.Lock()
	defer func() {
		r.busy = false
		r.mu.Unlock()
		r.send(ctx, pending...)
	}()

	apiErr, isAPIErr := api.AsAPIError(err)
	if err != nil && !isAPIErr {
		r.logger.Warn("task check failed", "task_id", task.ID.Int64(), "error", err)
		r.state.Status = &Status{Correct: false}
		r.state.Error = NetworkError
		return Result{Outcome: Retry}, err
	}

	r.state.Status = &Status{Correct: verdict.Correct}
	if task.Type == curriculum.TaskCode {
		r.state.Console = verdict.Console
		r.state.Error = verdict.Error
	}
	if isAPIErr {
		r.logger.Info("task check rejected", "task_id", task.ID.Int64(), "status", apiErr.Status, "code", apiErr.Code)
		return Result{Outcome: Retry}, nil
	}
	if !verdict.Correct {
		return Result{Outcome: Retry}, nil
	}

	r.solved[task.ID.Int64()] = true
	passed := r.stamp(Event{Type: EventTaskPassed, LessonID: lessonID, TaskID: task.ID.Int64()})
	snap := r.snapshot()

	r.mu.Unlock()
	r.send(ctx, passed)
	if r.observer != nil {
		r.observer(snap)
	}
	sleepErr := r.sleep(ctx, r.delay)
	r.mu.Lock()
	if sleepErr != nil {
		return Result{Outcome: Retry}, sleepErr
	}

	if r.state.Index < len(r.state.Lesson.Tasks)-1 {
		r.state.Index++
		r.resetTask()
		return Result{Outcome: Advanced}, nil
	}

	pending = append(pending, r.stamp(Event{Type: EventLessonCompleted, LessonID: lessonID, Data: map[string]any{"next_lesson_id": verdict.NextLessonID}}))
	switch next := verdict.NextLessonID; {
	case next == api.CourseFinished:
		pending = append(pending, r.stamp(Event{Type: EventCourseCompleted, LessonID: lessonID}))
		r.logger.Info("course completed", "lesson_id", lessonID)
		return Result{Outcome: CourseComplete, Message: CompletedMessage}, nil
	case next > 0:
		return Result{Outcome: NavigateLesson, NextLessonID: next}, nil
	default:
		return Result{Outcome: NoNextStep}, nil
	}
}

// resetTask clears per-task scratch state and seeds the code buffer.
// Callers hold mu.
func (r *Runner) resetTask() {
	r.state.Selected = nil
	r.state.Console = ""
	r.state.Error = ""
	r.state.Notice = ""
	r.state.Status = nil
	r.state.Code = DefaultCode

	task, ok := r.current()
	if !ok {
		return
	}
	if r.solved[task.ID.Int64()] {
		r.state.Status = &Status{Correct: true}
	}
	if task.Type == curriculum.TaskCode && task.StartCode != "" {
		r.state.Code = task.StartCode
	}
}

func (r *Runner) snapshot() State {
	st := r.state
	if st.Selected != nil {
		id := *st.Selected
		st.Selected = &id
	}
	if st.Status != nil {
		s := *st.Status
		st.Status = &s
	}
	return st
}

func (r *Runner) emit(ctx context.Context, e Event) {
	r.mu.Lock()
	e = r.stamp(e)
	r.mu.Unlock()
	r.send(ctx, e)
}

// stamp attaches the run and user ids. Callers hold mu.
func (r *Runner) stamp(e Event) Event {
	e.RunID = r.runID
	e.UserID = r.userID
	return e
}

// send logs event failures and never returns them. Callers must not hold mu.
func (r *Runner) send(ctx context.Context, events ...Event) {
	for _, e := range events {
		if err := r.events.LogEvent(ctx, e); err != nil {
			r.logger.Warn("learning event not recorded", "type", e.Type, "error", err)
		}
	}
}
