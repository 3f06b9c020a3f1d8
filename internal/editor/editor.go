package editor

import (
	"fmt"
	"log/slog"

	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
)

// Editor is the authoring session for one course's curriculum.
type Editor struct {
	tree    curriculum.Tree
	Modules OpenState
	Lessons OpenState

	moduleModal Modal[curriculum.Module]
	lessonModal Modal[curriculum.Lesson]
	taskModal   Modal[curriculum.Task]

	lessonParent curriculum.ID
	taskParent   [2]curriculum.ID

	logger *slog.Logger
}

// New starts editing t.
func New(t curriculum.Tree, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{tree: t, logger: logger.With("component", "editor")}
}

// Tree returns the current curriculum.
func (e *Editor) Tree() curriculum.Tree { return e.tree }

// ToggleModule expands or collapses a module.
func (e *Editor) ToggleModule(id curriculum.ID) { e.Modules.Toggle(id) }

// ToggleLesson expands or collapses a lesson.
func (e *Editor) ToggleLesson(id curriculum.ID) { e.Lessons.Toggle(id) }

// ModuleModal exposes the module dialog state.
func (e *Editor) ModuleModal() *Modal[curriculum.Module] { return &e.moduleModal }

// LessonModal exposes the lesson dialog state.
func (e *Editor) LessonModal() *Modal[curriculum.Lesson] { return &e.lessonModal }

// TaskModal exposes the task dialog state.
func (e *Editor) TaskModal() *Modal[curriculum.Task] { return &e.taskModal }

// OpenAddModule opens the module dialog in Add mode.
func (e *Editor) OpenAddModule() { e.moduleModal.OpenAdd() }

// OpenEditModule opens the module dialog for id and returns its draft.
func (e *Editor) OpenEditModule(id curriculum.ID) (ModuleDraft, error) {
	m, ok := e.tree.Module(id)
	if !ok {
		return ModuleDraft{}, fmt.Errorf("module %s: %w", id, ErrNotFound)
	}
	e.moduleModal.OpenEdit(m)
	return ModuleDraft{Title: m.Title, Description: m.Description}, nil
}

// SaveModule commits the module dialog. A new module is expanded.
func (e *Editor) SaveModule(d ModuleDraft) (forms.Errors, error) {
	return e.moduleModal.Save(d, func(initial *curriculum.Module) {
		if initial == nil {
			var m curriculum.Module
			d.apply(&m)
			var id curriculum.ID
			e.tree, id = e.tree.AddModule(m)
			e.Modules.Toggle(id)
			e.logger.Debug("module added", "id", id.String())
			return
		}
		e.tree = e.tree.UpdateModule(initial.ID, d.apply)
	})
}

// DeleteModule removes a module, collapsing it if it was expanded.
func (e *Editor) DeleteModule(id curriculum.ID) {
	e.tree = e.tree.DeleteModule(id)
	if e.Modules.IsOpen(id) {
		e.Modules.Close()
	}
}

// ReorderModules applies a drag release: the full list in its new order.
func (e *Editor) ReorderModules(ordered []curriculum.Module) {
	e.tree = e.tree.ReorderModules(ordered)
}

// OpenAddLesson opens the lesson dialog in Add mode under moduleID.
func (e *Editor) OpenAddLesson(moduleID curriculum.ID) error {
	if _, ok := e.tree.Module(moduleID); !ok {
		return fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
	}
	e.lessonParent = moduleID
	e.lessonModal.OpenAdd()
	return nil
}

// OpenEditLesson opens the lesson dialog for a lesson and returns its draft.
func (e *Editor) OpenEditLesson(moduleID, lessonID curriculum.ID) (LessonDraft, error) {
	l, ok := e.tree.Lesson(moduleID, lessonID)
	if !ok {
		return LessonDraft{}, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}
	e.lessonParent = moduleID
	e.lessonModal.OpenEdit(l)
	return LessonDraft{Title: l.Title, Description: l.Description}, nil
}

// SaveLesson commits the lesson dialog.
func (e *Editor) SaveLesson(d LessonDraft) (forms.Errors, error) {
	parent := e.lessonParent
	return e.lessonModal.Save(d, func(initial *curriculum.Lesson) {
		if initial == nil {
			var l curriculum.Lesson
			d.apply(&l)
			e.tree, _ = e.tree.AddLesson(parent, l)
			return
		}
		e.tree = e.tree.UpdateLesson(parent, initial.ID, d.apply)
	})
}

// DeleteLesson removes a lesson.
func (e *Editor) DeleteLesson(moduleID, lessonID curriculum.ID) {
	e.tree = e.tree.DeleteLesson(moduleID, lessonID)
	if e.Lessons.IsOpen(lessonID) {
		e.Lessons.Close()
	}
}

// ReorderLessons applies a drag release within a module.
func (e *Editor) ReorderLessons(moduleID curriculum.ID, ordered []curriculum.Lesson) {
	e.tree = e.tree.ReorderLessons(moduleID, ordered)
}

// OpenAddTask opens the task dialog in Add mode and returns a blank draft.
func (e *Editor) OpenAddTask(moduleID, lessonID curriculum.ID) (TaskDraft, error) {
	if _, ok := e.tree.Lesson(moduleID, lessonID); !ok {
		return TaskDraft{}, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}
	e.taskParent = [2]curriculum.ID{moduleID, lessonID}
	e.taskModal.OpenAdd()
	return NewTaskDraft(), nil
}

// OpenEditTask opens the task dialog for a task and returns its draft.
func (e *Editor) OpenEditTask(moduleID, lessonID, taskID curriculum.ID) (TaskDraft, error) {
	t, ok := e.tree.Task(moduleID, lessonID, taskID)
	if !ok {
		return TaskDraft{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	e.taskParent = [2]curriculum.ID{moduleID, lessonID}
	e.taskModal.OpenEdit(t)
	return TaskDraftFrom(t), nil
}

// SaveTask commits the task dialog.
func (e *Editor) SaveTask(d TaskDraft) (forms.Errors, error) {
	mID, lID := e.taskParent[0], e.taskParent[1]
	return e.taskModal.Save(d, func(initial *curriculum.Task) {
		if initial == nil {
			var t curriculum.Task
			d.apply(&t)
			e.tree, _ = e.tree.AddTask(mID, lID, t)
			return
		}
		e.tree = e.tree.UpdateTask(mID, lID, initial.ID, d.apply)
	})
}

// DeleteTask removes a task.
func (e *Editor) DeleteTask(moduleID, lessonID, taskID curriculum.ID) {
	e.tree = e.tree.DeleteTask(moduleID, lessonID, taskID)
}

// ReorderTasks applies a drag release within a lesson.
func (e *Editor) ReorderTasks(moduleID, lessonID curriculum.ID, ordered []curriculum.Task) {
	e.tree = e.tree.ReorderTasks(moduleID, lessonID, ordered)
}

// Result returns the tree as it should be saved, with order renumbered.
func (e *Editor) Result() curriculum.Tree { return e.tree.Renumbered() }
