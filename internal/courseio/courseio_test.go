package courseio_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/academy-dev/academy/internal/courseio"
	"github.com/academy-dev/academy/internal/curriculum"
)

func sampleCourse() curriculum.Course {
	return curriculum.Course{
		ID:          curriculum.Saved(11),
		Title:       "Go <basics> & more",
		Description: "Intro",
		Difficulty:  curriculum.Beginner,
		CreatedBy:   3,
		Modules: []curriculum.Module{{
			ID: curriculum.Saved(21), Title: "M1", Order: 0,
			Lessons: []curriculum.Lesson{{
				ID: curriculum.Saved(31), Title: "L1", Description: "d", Order: 0,
				Tasks: []curriculum.Task{
					{
						ID: curriculum.Saved(41), Title: "Quiz", Type: curriculum.TaskQuiz,
						Options: []curriculum.Option{
							{ID: curriculum.Saved(51), Text: "yes", IsCorrect: true},
							{ID: curriculum.Saved(52), Text: "no", Order: 1},
						},
					},
					{ID: curriculum.Saved(42), Title: "Code", Type: curriculum.TaskCode, Order: 1, Language: 70, CorrectOutput: "42"},
				},
			}},
		}},
	}
}

func TestExportStripsServerKeys(t *testing.T) {
	out, err := courseio.Export(sampleCourse())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	s := string(out)
	for _, key := range []string{`"id"`, `"createdBy"`} {
		if strings.Contains(s, key) {
			t.Errorf("export still contains %s:\n%s", key, s)
		}
	}
	if !strings.Contains(s, "\n  \"title\": \"Go <basics> & more\"") {
		t.Errorf("export not indented by two spaces or HTML-escaped:\n%s", s)
	}
	if strings.Index(s, `"title"`) > strings.Index(s, `"modules"`) {
		t.Error("export should keep field order")
	}
}

func TestExportRawDocument(t *testing.T) {
	raw := json.RawMessage(`{"id":1,"title":"T","createdAt":"2024-01-01","modules":[{"id":2,"updatedAt":"x","lessons":[]}],"extra":{"createdBy":9,"keep":true}}`)
	out, err := courseio.Export(raw)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}
	if _, ok := doc["createdAt"]; ok {
		t.Error("createdAt not stripped")
	}
	extra := doc["extra"].(map[string]any)
	if _, ok := extra["createdBy"]; ok || extra["keep"] != true {
		t.Errorf("extra = %v", extra)
	}
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"Go Basics":       "go-basics.json",
		"Café  Crème!":    "cafe-creme.json",
		"Основи Python":   "osnovy-python.json",
		"???":             "course.json",
		"C# for starters": "c-for-starters.json",
	}
	for title, want := range tests {
		if got := courseio.ExportFilename(title); got != want {
			t.Errorf("ExportFilename(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "valid", raw: `{"title":"T","modules":[]}`, want: nil},
		{name: "not json", raw: `{nope`, want: courseio.ErrInvalidStructure},
		{name: "array", raw: `[1,2]`, want: courseio.ErrInvalidStructure},
		{name: "null", raw: `null`, want: courseio.ErrInvalidStructure},
		{name: "missing title", raw: `{"modules":[]}`, want: courseio.ErrMissingTitleOrModules},
		{name: "empty title", raw: `{"title":"","modules":[]}`, want: courseio.ErrMissingTitleOrModules},
		{name: "null modules", raw: `{"title":"T","modules":null}`, want: courseio.ErrMissingTitleOrModules},
		{name: "object modules", raw: `{"title":"T","modules":{"a":1}}`, want: courseio.ErrModulesNotArray},
		{name: "string modules", raw: `{"title":"T","modules":"abc"}`, want: courseio.ErrModulesNotArray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := courseio.Validate([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestErrorTexts(t *testing.T) {
	if courseio.ErrMissingTitleOrModules.Error() != "Course must have title and modules" {
		t.Errorf("text = %q", courseio.ErrMissingTitleOrModules.Error())
	}
}

func TestNormalize(t *testing.T) {
	doc := map[string]any{
		"id":    json.Number("5"),
		"title": "T",
		"extra": "kept",
		"modules": []any{
			map[string]any{"title": "M", "order": json.Number("7"), "lessons": []any{
				map[string]any{"title": "L", "tasks": []any{
					map[string]any{"title": "Q", "options": []any{
						map[string]any{"text": nil, "isCorrect": "yes"},
						map[string]any{"text": "b", "isCorrect": json.Number("0")},
					}},
				}},
			}},
			map[string]any{"title": "M2"},
		},
	}
	got := courseio.Normalize(doc)

	if got["extra"] != "kept" {
		t.Error("unknown field dropped")
	}
	if got["id"] == json.Number("5") {
		t.Error("course id not replaced")
	}
	mods := got["modules"].([]any)
	m0 := mods[0].(map[string]any)
	if m0["order"] != 0 {
		t.Errorf("module order = %v, want 0", m0["order"])
	}
	if lessons := mods[1].(map[string]any)["lessons"].([]any); len(lessons) != 0 {
		t.Errorf("missing lessons should become empty list, got %v", lessons)
	}
	opts := m0["lessons"].([]any)[0].(map[string]any)["tasks"].([]any)[0].(map[string]any)["options"].([]any)
	o0, o1 := opts[0].(map[string]any), opts[1].(map[string]any)
	if o0["text"] != "" || o0["isCorrect"] != true {
		t.Errorf("option 0 = %v", o0)
	}
	if o1["isCorrect"] != false || o1["order"] != 1 {
		t.Errorf("option 1 = %v", o1)
	}
	if doc["id"] != json.Number("5") {
		t.Error("input document mutated")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := sampleCourse()
	exported, err := courseio.Export(src)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := courseio.Import(exported)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if got.Title != src.Title || got.Description != src.Description {
		t.Errorf("course text changed: %q / %q", got.Title, got.Description)
	}
	seen := map[int64]bool{}
	checkID := func(kind string, id curriculum.ID) {
		t.Helper()
		if !id.IsDraft() {
			t.Errorf("%s id %v is not a draft", kind, id)
		}
		if seen[id.Int64()] {
			t.Errorf("%s id %v reused", kind, id)
		}
		seen[id.Int64()] = true
	}
	checkID("course", got.ID)
	for mi, m := range got.Modules {
		checkID("module", m.ID)
		if m.Title != src.Modules[mi].Title {
			t.Errorf("module title = %q", m.Title)
		}
		for li, l := range m.Lessons {
			checkID("lesson", l.ID)
			for ti, task := range l.Tasks {
				checkID("task", task.ID)
				want := src.Modules[mi].Lessons[li].Tasks[ti]
				if task.Title != want.Title || task.CorrectOutput != want.CorrectOutput || task.Order != ti {
					t.Errorf("task = %+v", task)
				}
				for oi, o := range task.Options {
					checkID("option", o.ID)
					if o.Text != want.Options[oi].Text || o.IsCorrect != want.Options[oi].IsCorrect {
						t.Errorf("option = %+v", o)
					}
				}
			}
		}
	}
}

func TestImportYAML(t *testing.T) {
	src := `
title: Loops
difficulty: intermediate
modules:
  - title: For
    lessons:
      - title: Ranges
        description: range over slices
        tasks:
          - title: Sum
            type: code
            language: 70
            correctOutput: "6"
`
	c, err := courseio.Import([]byte(src))
	if err != nil {
		t.Fatalf("Import(yaml) error = %v", err)
	}
	if c.Title != "Loops" || c.Difficulty != curriculum.Intermediate {
		t.Errorf("course = %+v", c)
	}
	task := c.Modules[0].Lessons[0].Tasks[0]
	if task.Language != 70 || task.CorrectOutput != "6" {
		t.Errorf("task = %+v", task)
	}
}

func TestImportRejects(t *testing.T) {
	if _, err := courseio.Import([]byte(`{"title":"T"}`)); !errors.Is(err, courseio.ErrMissingTitleOrModules) {
		t.Errorf("Import() error = %v", err)
	}
	if _, err := courseio.Import([]byte("- just\n- a list\n")); !errors.Is(err, courseio.ErrInvalidStructure) {
		t.Errorf("Import(yaml list) error = %v", err)
	}
}

func setupCourseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("go.json", `{"title":"Go","modules":[{"title":"M"}]}`)
	write("python/intro.yaml", "title: Python\nmodules: []\n")
	write("broken.json", `{"title":""}`)
	write("notes.md", "# not a course")
	write(".hidden/skip.json", `{"title":"Hidden","modules":[]}`)
	return dir
}

func TestLoader(t *testing.T) {
	dir := setupCourseDir(t)

	loader, err := courseio.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	paths := loader.Paths()
	if len(paths) != 2 || paths[0] != "go.json" || paths[1] != "python/intro.yaml" {
		t.Errorf("Paths() = %v", paths)
	}
	c, ok := loader.Course("python/intro.yaml")
	if !ok || c.Title != "Python" {
		t.Errorf("Course(python/intro.yaml) = %+v, %v", c, ok)
	}
	skipped := loader.Skipped()
	if !errors.Is(skipped["broken.json"], courseio.ErrMissingTitleOrModules) {
		t.Errorf("Skipped() = %v", skipped)
	}
}

func TestLoaderMissingDir(t *testing.T) {
	if _, err := courseio.NewLoader(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("NewLoader(missing) should fail")
	}
}

func TestWriteOutline(t *testing.T) {
	c := sampleCourse()
	c.Modules = append(c.Modules, curriculum.Module{Title: "Empty"})

	var buf bytes.Buffer
	if err := courseio.WriteOutline(&buf, c); err != nil {
		t.Fatalf("WriteOutline() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Outline")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (header, 2 tasks, empty module)", len(rows))
	}
	if rows[0][0] != "Module" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][5] != "*yes; no" {
		t.Errorf("quiz options cell = %q", rows[1][5])
	}
	if rows[2][4] != "Python" || rows[2][6] != "42" {
		t.Errorf("code row = %v", rows[2])
	}
	if rows[3][0] != "Empty" {
		t.Errorf("module row = %v", rows[3])
	}
}
