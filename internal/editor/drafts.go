package editor

import (
	"fmt"
	"strings"

	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
)

// ModuleDraft is the module dialog's input.
type ModuleDraft struct {
	Title       string `form:"title" validate:"notblank"`
	Description string `form:"description"`
}

// Validate requires a title.
func (d ModuleDraft) Validate() forms.Errors {
	return forms.Check(d, forms.Messages{"title": "Title is required."})
}

func (d ModuleDraft) apply(m *curriculum.Module) {
	m.Title = d.Title
	m.Description = d.Description
}

// LessonDraft is the lesson dialog's input.
type LessonDraft struct {
	Title       string `form:"title" validate:"notblank"`
	Description string `form:"description" validate:"notblank"`
}

var titleAndDescription = forms.Messages{
	"title":       "Title is required.",
	"description": "Description is required.",
}

// Validate requires title and description.
func (d LessonDraft) Validate() forms.Errors {
	return forms.Check(d, titleAndDescription)
}

func (d LessonDraft) apply(l *curriculum.Lesson) {
	l.Title = d.Title
	l.Description = d.Description
}

// TaskDraft is the task dialog's input. Options holds quiz option texts and
// CorrectOption indexes the right one (-1 for none).
type TaskDraft struct {
	Title         string              `form:"title" validate:"notblank"`
	Description   string              `form:"description" validate:"notblank"`
	Type          curriculum.TaskType `form:"type" validate:"required,oneof=quiz code text"`
	Options       []string            `form:"-" validate:"-"`
	CorrectOption int                 `form:"-" validate:"-"`
	Language      int                 `form:"-" validate:"-"`
	StartCode     string              `form:"-" validate:"-"`
	CorrectOutput string              `form:"-" validate:"-"`

	optionIDs []curriculum.ID
}

// NewTaskDraft returns the blank draft of the Add dialog: a text task with
// four empty quiz options and the first one marked correct.
func NewTaskDraft() TaskDraft {
	return TaskDraft{
		Type:          curriculum.TaskText,
		Options:       make([]string, 4),
		CorrectOption: 0,
	}
}

// TaskDraftFrom seeds an Edit dialog from an existing task.
func TaskDraftFrom(t curriculum.Task) TaskDraft {
	d := TaskDraft{
		Title:         t.Title,
		Description:   t.Description,
		Type:          t.Type,
		CorrectOption: t.CorrectOption(),
		Language:      t.Language,
		StartCode:     t.StartCode,
		CorrectOutput: t.CorrectOutput,
	}
	for _, o := range t.Options {
		d.Options = append(d.Options, o.Text)
		d.optionIDs = append(d.optionIDs, o.ID)
	}
	return d
}

// AddOption appends an empty quiz option.
func (d *TaskDraft) AddOption() {
	d.Options = append(d.Options, "")
}

// RemoveOption drops quiz option i, keeping the correct mark on the same
// option where possible.
func (d *TaskDraft) RemoveOption(i int) {
	if i < 0 || i >= len(d.Options) {
		return
	}
	d.Options = append(d.Options[:i:i], d.Options[i+1:]...)
	if i < len(d.optionIDs) {
		d.optionIDs = append(d.optionIDs[:i:i], d.optionIDs[i+1:]...)
	}
	switch {
	case d.CorrectOption == i:
		d.CorrectOption = -1
	case d.CorrectOption > i:
		d.CorrectOption--
	}
}

// Validate applies the per-type rules of the task dialog.
func (d TaskDraft) Validate() forms.Errors {
	errs := forms.Check(d, forms.Messages{
		"title":       "Title is required.",
		"description": "Description is required.",
		"type":        "Task type is required.",
	})
	switch d.Type {
	case curriculum.TaskQuiz:
		if len(d.Options) == 0 {
			errs.Set("options", "Quiz must contain options.")
		}
		for i, text := range d.Options {
			if strings.TrimSpace(text) == "" {
				errs.Set(fmt.Sprintf("option_%d", i), fmt.Sprintf("Option %d cannot be empty.", i+1))
			}
		}
		if d.CorrectOption < 0 || d.CorrectOption >= len(d.Options) {
			errs.Set("correctOption", "Please select the correct option.")
		}
	case curriculum.TaskCode:
		if _, ok := curriculum.LanguageName(d.Language); !ok {
			errs.Set("language", "Please select a programming language.")
		}
		if strings.TrimSpace(d.CorrectOutput) == "" {
			errs.Set("correctOutput", "Expected output is required.")
		}
	case curriculum.TaskText:
		if strings.TrimSpace(d.CorrectOutput) == "" {
			errs.Set("correctOutput", "Expected answer is required.")
		}
	}
	return errs
}

// apply writes the draft onto t. Only the fields of the draft's type are
// touched, so switching type keeps the other type's data around.
func (d TaskDraft) apply(t *curriculum.Task) {
	t.Title = d.Title
	t.Description = d.Description
	t.Type = d.Type
	switch d.Type {
	case curriculum.TaskQuiz:
		opts := make([]curriculum.Option, len(d.Options))
		for i, text := range d.Options {
			id := curriculum.NewDraftID()
			if i < len(d.optionIDs) && !d.optionIDs[i].IsZero() {
				id = d.optionIDs[i]
			}
			opts[i] = curriculum.Option{
				ID:        id,
				Text:      text,
				IsCorrect: i == d.CorrectOption,
				Order:     i,
			}
		}
		t.Options = opts
	case curriculum.TaskCode:
		t.Language = d.Language
		t.StartCode = d.StartCode
		t.CorrectOutput = d.CorrectOutput
	case curriculum.TaskText:
		t.CorrectOutput = d.CorrectOutput
	}
}
