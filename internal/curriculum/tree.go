package curriculum

import "log/slog"

// Tree is the ordered Module → Lesson → Task → Option curriculum of a course.
//
// Every operation is pure: it returns a new Tree and never mutates the
// receiver or the slices passed in. Operations addressing an id that does
// not exist return an equivalent tree and log a warning.
type Tree struct {
	Modules []Module `json:"modules"`
}

// Module returns the module with the given id.
func (t Tree) Module(id ID) (Module, bool) {
	if i := indexByID(t.Modules, id, moduleKey); i >= 0 {
		return t.Modules[i], true
	}
	return Module{}, false
}

// Lesson returns a lesson of a module.
func (t Tree) Lesson(moduleID, lessonID ID) (Lesson, bool) {
	m, ok := t.Module(moduleID)
	if !ok {
		return Lesson{}, false
	}
	if i := indexByID(m.Lessons, lessonID, lessonKey); i >= 0 {
		return m.Lessons[i], true
	}
	return Lesson{}, false
}

// Task returns a task of a lesson.
func (t Tree) Task(moduleID, lessonID, taskID ID) (Task, bool) {
	l, ok := t.Lesson(moduleID, lessonID)
	if !ok {
		return Task{}, false
	}
	if i := indexByID(l.Tasks, taskID, taskKey); i >= 0 {
		return l.Tasks[i], true
	}
	return Task{}, false
}

// AddModule appends m with a fresh draft id, order equal to the current
// module count and an empty lesson list.
func (t Tree) AddModule(m Module) (Tree, ID) {
	out := t.clone()
	m.ID = NewDraftID()
	m.Order = len(out.Modules)
	m.Lessons = []Lesson{}
	out.Modules = append(out.Modules, m)
	return out, m.ID
}

// UpdateModule applies patch to a copy of the module.
func (t Tree) UpdateModule(id ID, patch func(*Module)) Tree {
	return t.withModule(id, "update", func(m *Module) {
		keep := m.ID
		patch(m)
		m.ID = keep
	})
}

// DeleteModule removes the module. Removing the last module is allowed.
func (t Tree) DeleteModule(id ID) Tree {
	i := indexByID(t.Modules, id, moduleKey)
	if i < 0 {
		warnMissing("delete", "module", id)
		return t.clone()
	}
	out := t.clone()
	out.Modules = removeAt(out.Modules, i)
	return out
}

// ReorderModules replaces the module list wholesale. Order fields are kept
// as given; call Renumbered before saving.
func (t Tree) ReorderModules(ordered []Module) Tree {
	return Tree{Modules: cloneModules(ordered)}
}

// AddLesson appends a lesson to a module.
func (t Tree) AddLesson(moduleID ID, l Lesson) (Tree, ID) {
	l.ID = NewDraftID()
	l.Tasks = []Task{}
	out := t.withModule(moduleID, "add lesson to", func(m *Module) {
		l.Order = len(m.Lessons)
		m.Lessons = append(m.Lessons, l)
	})
	if _, ok := out.Lesson(moduleID, l.ID); !ok {
		return out, ID{}
	}
	return out, l.ID
}

// UpdateLesson applies patch to a copy of the lesson.
func (t Tree) UpdateLesson(moduleID, lessonID ID, patch func(*Lesson)) Tree {
	return t.withLesson(moduleID, lessonID, "update", func(l *Lesson) {
		keep := l.ID
		patch(l)
		l.ID = keep
	})
}

// DeleteLesson removes a lesson from a module.
func (t Tree) DeleteLesson(moduleID, lessonID ID) Tree {
	return t.withModule(moduleID, "delete lesson in", func(m *Module) {
		i := indexByID(m.Lessons, lessonID, lessonKey)
		if i < 0 {
			warnMissing("delete", "lesson", lessonID)
			return
		}
		m.Lessons = removeAt(m.Lessons, i)
	})
}

// ReorderLessons replaces the lesson list of a module wholesale.
func (t Tree) ReorderLessons(moduleID ID, ordered []Lesson) Tree {
	return t.withModule(moduleID, "reorder lessons in", func(m *Module) {
		m.Lessons = cloneLessons(ordered)
	})
}

// AddTask appends a task to a lesson. Options without an id get draft ids
// and are numbered by position.
func (t Tree) AddTask(moduleID, lessonID ID, task Task) (Tree, ID) {
	task = cloneTask(task)
	task.ID = NewDraftID()
	for i := range task.Options {
		if task.Options[i].ID.IsZero() {
			task.Options[i].ID = NewDraftID()
		}
		task.Options[i].Order = i
	}
	added := false
	out := t.withLesson(moduleID, lessonID, "add task to", func(l *Lesson) {
		task.Order = len(l.Tasks)
		l.Tasks = append(l.Tasks, task)
		added = true
	})
	if !added {
		return out, ID{}
	}
	return out, task.ID
}

// UpdateTask applies patch to a copy of the task.
func (t Tree) UpdateTask(moduleID, lessonID, taskID ID, patch func(*Task)) Tree {
	return t.withTask(moduleID, lessonID, taskID, "update", func(task *Task) {
		keep := task.ID
		patch(task)
		task.ID = keep
	})
}

// DeleteTask removes a task from a lesson.
func (t Tree) DeleteTask(moduleID, lessonID, taskID ID) Tree {
	return t.withLesson(moduleID, lessonID, "delete task in", func(l *Lesson) {
		i := indexByID(l.Tasks, taskID, taskKey)
		if i < 0 {
			warnMissing("delete", "task", taskID)
			return
		}
		l.Tasks = removeAt(l.Tasks, i)
	})
}

// ReorderTasks replaces the task list of a lesson wholesale.
func (t Tree) ReorderTasks(moduleID, lessonID ID, ordered []Task) Tree {
	return t.withLesson(moduleID, lessonID, "reorder tasks in", func(l *Lesson) {
		l.Tasks = cloneTasks(ordered)
	})
}

// AddOption appends an option to a task.
func (t Tree) AddOption(moduleID, lessonID, taskID ID, o Option) (Tree, ID) {
	o.ID = NewDraftID()
	added := false
	out := t.withTask(moduleID, lessonID, taskID, "add option to", func(task *Task) {
		o.Order = len(task.Options)
		task.Options = append(task.Options, o)
		added = true
	})
	if !added {
		return out, ID{}
	}
	return out, o.ID
}

// UpdateOption applies patch to a copy of the option.
func (t Tree) UpdateOption(moduleID, lessonID, taskID, optionID ID, patch func(*Option)) Tree {
	return t.withTask(moduleID, lessonID, taskID, "update option in", func(task *Task) {
		i := indexByID(task.Options, optionID, optionKey)
		if i < 0 {
			warnMissing("update", "option", optionID)
			return
		}
		keep := task.Options[i].ID
		patch(&task.Options[i])
		task.Options[i].ID = keep
	})
}

// DeleteOption removes an option from a task.
func (t Tree) DeleteOption(moduleID, lessonID, taskID, optionID ID) Tree {
	return t.withTask(moduleID, lessonID, taskID, "delete option in", func(task *Task) {
		i := indexByID(task.Options, optionID, optionKey)
		if i < 0 {
			warnMissing("delete", "option", optionID)
			return
		}
		task.Options = removeAt(task.Options, i)
	})
}

// ReorderOptions replaces the option list of a task wholesale.
func (t Tree) ReorderOptions(moduleID, lessonID, taskID ID, ordered []Option) Tree {
	return t.withTask(moduleID, lessonID, taskID, "reorder options in", func(task *Task) {
		task.Options = append([]Option(nil), ordered...)
	})
}

// Renumbered returns a copy with every order field set to its position.
func (t Tree) Renumbered() Tree {
	out := t.clone()
	for mi := range out.Modules {
		m := &out.Modules[mi]
		m.Order = mi
		for li := range m.Lessons {
			l := &m.Lessons[li]
			l.Order = li
			for ti := range l.Tasks {
				task := &l.Tasks[ti]
				task.Order = ti
				for oi := range task.Options {
					task.Options[oi].Order = oi
				}
			}
		}
	}
	return out
}

func (t Tree) withModule(id ID, op string, fn func(*Module)) Tree {
	out := t.clone()
	i := indexByID(out.Modules, id, moduleKey)
	if i < 0 {
		warnMissing(op, "module", id)
		return out
	}
	fn(&out.Modules[i])
	return out
}

func (t Tree) withLesson(moduleID, lessonID ID, op string, fn func(*Lesson)) Tree {
	return t.withModule(moduleID, op, func(m *Module) {
		i := indexByID(m.Lessons, lessonID, lessonKey)
		if i < 0 {
			warnMissing(op, "lesson", lessonID)
			return
		}
		fn(&m.Lessons[i])
	})
}

func (t Tree) withTask(moduleID, lessonID, taskID ID, op string, fn func(*Task)) Tree {
	return t.withLesson(moduleID, lessonID, op, func(l *Lesson) {
		i := indexByID(l.Tasks, taskID, taskKey)
		if i < 0 {
			warnMissing(op, "task", taskID)
			return
		}
		fn(&l.Tasks[i])
	})
}

func (t Tree) clone() Tree {
	return Tree{Modules: cloneModules(t.Modules)}
}

func moduleKey(m *Module) ID { return m.ID }
func lessonKey(l *Lesson) ID { return l.ID }
func taskKey(t *Task) ID     { return t.ID }
func optionKey(o *Option) ID { return o.ID }

func indexByID[T any](items []T, id ID, key func(*T) ID) int {
	for i := range items {
		if key(&items[i]) == id {
			return i
		}
	}
	return -1
}

// removeAt drops items[i]; items must already be a private copy.
func removeAt[T any](items []T, i int) []T {
	return append(items[:i], items[i+1:]...)
}

func warnMissing(op, kind string, id ID) {
	slog.Warn("curriculum node not found, ignoring", "op", op, "kind", kind, "id", id.String())
}

func cloneModules(in []Module) []Module {
	if in == nil {
		return nil
	}
	out := make([]Module, len(in))
	for i, m := range in {
		m.Lessons = cloneLessons(m.Lessons)
		out[i] = m
	}
	return out
}

func cloneLessons(in []Lesson) []Lesson {
	if in == nil {
		return nil
	}
	out := make([]Lesson, len(in))
	for i, l := range in {
		l.Tasks = cloneTasks(l.Tasks)
		if l.Module != nil {
			ref := *l.Module
			l.Module = &ref
		}
		out[i] = l
	}
	return out
}

func cloneTasks(in []Task) []Task {
	if in == nil {
		return nil
	}
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t Task) Task {
	if t.Options != nil {
		t.Options = append([]Option(nil), t.Options...)
	}
	return t
}
