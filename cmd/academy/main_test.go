package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/academy-dev/academy/internal/courseio"
	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/session"
)

// backend fakes the platform API for one user.
type backend struct {
	role    string
	logouts int
	checks  []int64
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	user := func() string {
		return `{"user":{"id":7,"fullName":"Ann Lee","email":"ann@example.com","lives":3,"role":"` + b.role + `"}}`
	}
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var cred struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"INVALID_PASSWORD","message":"Wrong password"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "opaque", Path: "/"})
		w.Write([]byte(user()))
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("token"); err != nil || ck.Value != "opaque" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(user()))
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		b.logouts++
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
	})
	mux.HandleFunc("GET /api/course", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"Go","difficulty":"beginner","modules":[]}]`))
	})
	mux.HandleFunc("GET /api/course/5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"course":{"id":5,"title":"Go Tour","description":"d","difficulty":"beginner","categoryId":0,
			"isVisible":false,"totalLessons":1,"category":{"id":2,"title":"Languages"},"createdBy":7,
			"modules":[{"id":21,"title":"Basics","description":"","order":0,"lessons":[
				{"id":31,"title":"Vars","description":"d","order":0,"createdAt":"2025-01-01","tasks":[]}]}]},
			"enrolled":{"id":1,"userId":7,"courseId":5,"lessonId":31,"progressPercent":50,"isCompleted":false}}`))
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"fullName":"Ann Lee","email":"ann@example.com","role":"admin"}]`))
	})
	mux.HandleFunc("GET /api/lesson/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lesson":{"id":` + r.PathValue("id") + `,"title":"Lesson ` + r.PathValue("id") + `","tasks":[
			{"id":5,"title":"Pick","type":"quiz","options":[{"id":50,"text":"A"},{"id":51,"text":"B","order":1}]}]}}`))
	})
	mux.HandleFunc("POST /api/task/5/check", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SelectedOptionID int64 `json:"selectedOptionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode check body: %v", err)
		}
		b.checks = append(b.checks, body.SelectedOptionID)
		json.NewEncoder(w).Encode(map[string]any{"correct": body.SelectedOptionID == 51, "nextLessonId": -2})
	})
	return mux
}

type harness struct {
	t       *testing.T
	backend *backend
	url     string
}

func newHarness(t *testing.T, role string) *harness {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "ACADEMY_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	t.Chdir(t.TempDir())
	t.Setenv("ACADEMY_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("ACADEMY_LOG_LEVEL", "error")
	t.Setenv("ACADEMY_RUNNER_DELAY", "0")

	b := &backend{role: role}
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)
	return &harness{t: t, backend: b, url: srv.URL}
}

// run executes one CLI invocation, as a fresh process would.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out, &errOut)
	err := app.RunContext(h.t.Context(), append([]string{"academy", "--api-url", h.url}, args...))
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t, "user")

	out, err := h.run("", "login", "--email", "ann@example.com", "--password", "secret")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Hello, Ann Lee!") {
		t.Errorf("login output = %q", out)
	}

	out, err = h.run("", "whoami")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(out, "Hello, Ann Lee!") || !strings.Contains(out, "role=user lives=3") {
		t.Errorf("whoami output = %q", out)
	}

	if _, err := h.run("", "logout"); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if h.backend.logouts != 1 {
		t.Errorf("backend logouts = %d, want 1", h.backend.logouts)
	}

	out, err = h.run("", "whoami")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if strings.TrimSpace(out) != "Hello" {
		t.Errorf("whoami after logout = %q, want Hello", out)
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	h := newHarness(t, "user")
	out, err := h.run("secret\n", "login", "--email", "ann@example.com")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Password: ") || !strings.Contains(out, "Hello, Ann Lee!") {
		t.Errorf("output = %q", out)
	}
}

func TestLoginFormErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid email", []string{"--email", "ann", "--password", "x"}, "email: Enter a valid email address"},
		{"backend rejection", []string{"--email", "ann@example.com", "--password", "nope"}, "password: Wrong password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "user")
			_, err := h.run("", append([]string{"login"}, tt.args...)...)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("login error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGuardedCommands(t *testing.T) {
	course := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(course, []byte(`{"title":"T","modules":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("signed out", func(t *testing.T) {
		h := newHarness(t, "user")
		_, err := h.run("", "course", "import", course, "--create")
		if !errors.Is(err, errNotSignedIn) {
			t.Errorf("import --create error = %v, want errNotSignedIn", err)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		h := newHarness(t, "user")
		if _, err := h.run("", "login", "--email", "ann@example.com", "--password", "secret"); err != nil {
			t.Fatal(err)
		}
		_, err := h.run("", "admin", "users", "list")
		if !errors.Is(err, session.ErrNotFound) {
			t.Errorf("admin error = %v, want ErrNotFound", err)
		}
	})

	t.Run("admin", func(t *testing.T) {
		h := newHarness(t, "admin")
		if _, err := h.run("", "login", "--email", "ann@example.com", "--password", "secret"); err != nil {
			t.Fatal(err)
		}
		out, err := h.run("", "admin", "users", "list")
		if err != nil {
			t.Fatalf("admin users list error = %v", err)
		}
		if !strings.Contains(out, "ann@example.com") {
			t.Errorf("output = %q", out)
		}
	})
}

func TestCourseShowEnrolled(t *testing.T) {
	h := newHarness(t, "user")
	out, err := h.run("", "course", "show", "5")
	if err != nil {
		t.Fatalf("course show error = %v", err)
	}
	for _, want := range []string{"Go Tour [beginner]", "1.1 Vars (lesson 31, 0 tasks)", "Enrolled: 50% in progress, current lesson 31"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCourseExportKeepsBackendFields(t *testing.T) {
	h := newHarness(t, "user")
	path := filepath.Join(t.TempDir(), "go.json")
	if _, err := h.run("", "course", "export", "5", "-o", path); err != nil {
		t.Fatalf("course export error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, key := range []string{"category", "isVisible", "totalLessons", "categoryId"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export dropped %q", key)
		}
	}
	for _, key := range []string{"id", "createdBy"} {
		if _, ok := doc[key]; ok {
			t.Errorf("export kept server key %q", key)
		}
	}
	module := doc["modules"].([]any)[0].(map[string]any)
	if d, ok := module["description"]; !ok || d != "" {
		t.Errorf("module description = %v, %v", d, ok)
	}
	lesson := module["lessons"].([]any)[0].(map[string]any)
	if _, ok := lesson["createdAt"]; ok {
		t.Error("export kept lesson createdAt")
	}

	course, err := courseio.ImportFile(path)
	if err != nil {
		t.Fatalf("exported file does not import: %v", err)
	}
	if course.Title != "Go Tour" || len(course.Modules) != 1 {
		t.Errorf("imported = %+v", course)
	}
}

func TestCurriculumEditFile(t *testing.T) {
	h := newHarness(t, "user")
	path := filepath.Join(t.TempDir(), "course.json")
	data, err := courseio.Export(curriculum.Course{
		Title:       "Go",
		Description: "Basics",
		Difficulty:  curriculum.Beginner,
		Modules: []curriculum.Module{{
			Title:   "Syntax",
			Lessons: []curriculum.Lesson{{Title: "Vars", Description: "d"}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = h.run("", "curriculum", "edit", path,
		"--op", "add-module:Setup:Install, configure",
		"--op", "move-module:2:1",
		"--op", "rename-lesson:2:1:Variables: a tour",
		"--op", "add-lesson:1:Install:Get the toolchain",
	)
	if err != nil {
		t.Fatalf("curriculum edit error = %v", err)
	}

	course, err := courseio.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if len(course.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(course.Modules))
	}
	setup, syntax := course.Modules[0], course.Modules[1]
	if setup.Title != "Setup" || setup.Description != "Install, configure" || setup.Order != 0 {
		t.Errorf("first module = %+v", setup)
	}
	if len(setup.Lessons) != 1 || setup.Lessons[0].Title != "Install" {
		t.Errorf("setup lessons = %+v", setup.Lessons)
	}
	if syntax.Order != 1 || syntax.Lessons[0].Title != "Variables: a tour" {
		t.Errorf("second module = %+v", syntax)
	}
}

func TestCurriculumEditRejectsBadOps(t *testing.T) {
	h := newHarness(t, "user")
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, []byte(`{"title":"T","modules":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		op      string
		wantErr string
	}{
		{"add-module:", "title: Title is required."},
		{"delete-module:1", "no module at position 1"},
		{"explode:1", "unknown operation"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			_, err := h.run("", "curriculum", "edit", path, "--op", tt.op)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLessonPlay(t *testing.T) {
	h := newHarness(t, "user")
	if _, err := h.run("", "login", "--email", "ann@example.com", "--password", "secret"); err != nil {
		t.Fatal(err)
	}

	out, err := h.run("submit\n1\nsubmit\n2\nsubmit\n", "lesson", "play", "3")
	if err != nil {
		t.Fatalf("lesson play error = %v", err)
	}
	for _, want := range []string{
		"== Lesson 3 ==",
		"You should select an option.",
		"Incorrect, try again.",
		"Correct!",
		"Congratulations! You have completed the course.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := h.backend.checks; len(got) != 2 || got[0] != 50 || got[1] != 51 {
		t.Errorf("checks = %v, want [50 51]", got)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, "user")
	out, err := h.run("", "health", "--json")
	if err != nil {
		t.Fatalf("health error = %v", err)
	}
	var report struct {
		Status string        `json:"status"`
		Checks []healthCheck `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Status != "ready" || len(report.Checks) != 1 || report.Checks[0].Name != "api" {
		t.Errorf("report = %+v", report)
	}
}
