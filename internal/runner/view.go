package runner

import (
	"fmt"
	"strings"

	"github.com/academy-dev/academy/internal/curriculum"
)

// ViewOption is a quiz option as shown to the learner.
type ViewOption struct {
	ID       int64
	Text     string
	Selected bool
}

// View is the current task rendered for its type: quiz tasks carry their
// options, code tasks the code buffer, text tasks only the prompt.
type View struct {
	Type        curriculum.TaskType
	Title       string
	Description string
	Position    int
	Total       int
	Options     []ViewOption
	Code        string
	Language    string
	Status      *Status
	Console     string
	Error       string
	Notice      string
}

// View renders the current task.
func (r *Runner) View() (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.current()
	if !ok {
		return View{}, false
	}
	st := r.snapshot()
	v := View{
		Type:        task.Type,
		Title:       task.Title,
		Description: task.Description,
		Position:    st.Index + 1,
		Total:       len(st.Lesson.Tasks),
		Status:      st.Status,
		Console:     st.Console,
		Error:       st.Error,
		Notice:      st.Notice,
	}
	switch task.Type {
	case curriculum.TaskQuiz:
		for _, o := range task.Options {
			id := o.ID.Int64()
			v.Options = append(v.Options, ViewOption{
				ID:       id,
				Text:     o.Text,
				Selected: st.Selected != nil && *st.Selected == id,
			})
		}
	case curriculum.TaskCode:
		v.Code = st.Code
		v.Language, _ = curriculum.LanguageName(task.Language)
	}
	return v, true
}

// String renders the view as plain text for a terminal.
func (v View) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %d of %d: %s\n", v.Position, v.Total, v.Title)
	if v.Description != "" {
		fmt.Fprintf(&b, "%s\n", v.Description)
	}
	switch v.Type {
	case curriculum.TaskQuiz:
		for i, o := range v.Options {
			mark := " "
			if o.Selected {
				mark = "x"
			}
			fmt.Fprintf(&b, "  [%s] %d) %s\n", mark, i+1, o.Text)
		}
	case curriculum.TaskCode:
		if v.Language != "" {
			fmt.Fprintf(&b, "Language: %s\n", v.Language)
		}
		fmt.Fprintf(&b, "---\n%s", v.Code)
		if !strings.HasSuffix(v.Code, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("---\n")
	case curriculum.TaskText:
		b.WriteString("(answers to text tasks cannot be submitted yet)\n")
	}
	if v.Status != nil {
		if v.Status.Correct {
			b.WriteString("Correct!\n")
		} else {
			b.WriteString("Incorrect, try again.\n")
		}
	}
	if v.Console != "" {
		fmt.Fprintf(&b, "Output:\n%s\n", v.Console)
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", v.Error)
	}
	if v.Notice != "" {
		fmt.Fprintf(&b, "%s\n", v.Notice)
	}
	return b.String()
}
