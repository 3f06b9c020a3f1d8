package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/courseio"
	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/editor"
	"github.com/academy-dev/academy/internal/forms"
	"github.com/academy-dev/academy/internal/session"
)

const editOpsUsage = `edit operation, repeatable, positions start at 1:
  add-module:TITLE[:DESCRIPTION]
  rename-module:M:TITLE
  delete-module:M
  move-module:M:TO
  add-lesson:M:TITLE:DESCRIPTION
  rename-lesson:M:L:TITLE
  delete-lesson:M:L
  move-lesson:M:L:TO
  delete-task:M:L:T
  move-task:M:L:T:TO`

func (e *appEnv) curriculumCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "curriculum",
			Usage: "author a course curriculum",
			Subcommands: []*cli.Command{
				{
					Name:      "edit",
					Usage:     "apply edit operations to a course id or course file",
					ArgsUsage: "<id|file>",
					Flags: []cli.Flag{
						&cli.StringSliceFlag{Name: "op", Required: true, Usage: editOpsUsage},
						&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write a file target to `FILE` instead of in place"},
					},
					Action: e.editCurriculum,
				},
			},
		},
	}
}

func (e *appEnv) editCurriculum(c *cli.Context) error {
	arg := c.Args().First()
	if arg == "" {
		return errors.New("course id or file is required")
	}
	ctx := c.Context

	var sess *session.Session
	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		s, err := e.requireRole(ctx, curriculum.RoleAdmin, curriculum.RoleTester)
		if err != nil {
			return err
		}
		sess = s
	}
	course, remote, err := e.loadCourse(ctx, arg)
	if err != nil {
		return err
	}
	if remote && !sess.CanEditCourse(course) {
		return session.ErrNotFound
	}

	ed := editor.New(course.Tree(), e.logger)
	for _, op := range c.StringSlice("op") {
		if err := applyEdit(ed, op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	course = course.WithTree(ed.Result())

	if remote {
		form := forms.Course{
			Title:       course.Title,
			Description: course.Description,
			Difficulty:  string(course.Difficulty),
			CategoryID:  course.CategoryID,
			HasCover:    true,
		}
		if err := check(form.Validate()); err != nil {
			return err
		}
		err := e.client.SaveCourse(ctx, api.CourseUpload{
			ID:          course.ID.Int64(),
			Title:       form.Title,
			Description: form.Description,
			Difficulty:  course.Difficulty,
			CategoryID:  form.CategoryID,
			Modules:     course.Modules,
		})
		if err != nil {
			return check(forms.CourseCodes.Map(err))
		}
		fmt.Fprintf(e.out, "Saved course %q\n", course.Title)
	} else {
		out := c.String("output")
		if out == "" {
			out = arg
		}
		data, err := courseio.Export(course)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing course: %w", err)
		}
		fmt.Fprintf(e.out, "Wrote %s\n", out)
	}
	printCourse(e.out, course)
	return nil
}

// applyEdit runs one edit operation through the editor's dialogs.
func applyEdit(ed *editor.Editor, op string) error {
	verb, rest, _ := strings.Cut(op, ":")
	switch verb {
	case "add-module":
		title, desc, _ := strings.Cut(rest, ":")
		ed.OpenAddModule()
		return formErr(ed.SaveModule(editor.ModuleDraft{Title: title, Description: desc}))

	case "rename-module":
		f, err := fields(rest, 2)
		if err != nil {
			return err
		}
		m, err := modulePos(ed.Tree(), f[0])
		if err != nil {
			return err
		}
		d, err := ed.OpenEditModule(m.ID)
		if err != nil {
			return err
		}
		d.Title = f[1]
		return formErr(ed.SaveModule(d))

	case "delete-module":
		m, err := modulePos(ed.Tree(), rest)
		if err != nil {
			return err
		}
		ed.DeleteModule(m.ID)

	case "move-module":
		f, err := fields(rest, 2)
		if err != nil {
			return err
		}
		moved, err := move(ed.Tree().Modules, f[0], f[1])
		if err != nil {
			return err
		}
		ed.ReorderModules(moved)

	case "add-lesson":
		f, err := fields(rest, 3)
		if err != nil {
			return err
		}
		m, err := modulePos(ed.Tree(), f[0])
		if err != nil {
			return err
		}
		if err := ed.OpenAddLesson(m.ID); err != nil {
			return err
		}
		return formErr(ed.SaveLesson(editor.LessonDraft{Title: f[1], Description: f[2]}))

	case "rename-lesson":
		f, err := fields(rest, 3)
		if err != nil {
			return err
		}
		m, l, err := lessonPos(ed.Tree(), f[0], f[1])
		if err != nil {
			return err
		}
		d, err := ed.OpenEditLesson(m.ID, l.ID)
		if err != nil {
			return err
		}
		d.Title = f[2]
		return formErr(ed.SaveLesson(d))

	case "delete-lesson":
		f, err := fields(rest, 2)
		if err != nil {
			return err
		}
		m, l, err := lessonPos(ed.Tree(), f[0], f[1])
		if err != nil {
			return err
		}
		ed.DeleteLesson(m.ID, l.ID)

	case "move-lesson":
		f, err := fields(rest, 3)
		if err != nil {
			return err
		}
		m, err := modulePos(ed.Tree(), f[0])
		if err != nil {
			return err
		}
		moved, err := move(m.Lessons, f[1], f[2])
		if err != nil {
			return err
		}
		ed.ReorderLessons(m.ID, moved)

	case "delete-task":
		f, err := fields(rest, 3)
		if err != nil {
			return err
		}
		m, l, err := lessonPos(ed.Tree(), f[0], f[1])
		if err != nil {
			return err
		}
		t, err := at(l.Tasks, f[2], "task")
		if err != nil {
			return err
		}
		ed.DeleteTask(m.ID, l.ID, t.ID)

	case "move-task":
		f, err := fields(rest, 4)
		if err != nil {
			return err
		}
		m, l, err := lessonPos(ed.Tree(), f[0], f[1])
		if err != nil {
			return err
		}
		moved, err := move(l.Tasks, f[2], f[3])
		if err != nil {
			return err
		}
		ed.ReorderTasks(m.ID, l.ID, moved)

	default:
		return fmt.Errorf("unknown operation %q", verb)
	}
	return nil
}

func formErr(errs forms.Errors, err error) error {
	if err != nil {
		return err
	}
	return check(errs)
}

// fields splits s into exactly n parts; the last part keeps any colons.
func fields(s string, n int) ([]string, error) {
	f := strings.SplitN(s, ":", n)
	if len(f) != n {
		return nil, fmt.Errorf("expected %d arguments", n)
	}
	return f, nil
}

func position(s string, n int, what string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("no %s at position %s", what, s)
	}
	return i - 1, nil
}

func at[T any](items []T, pos, what string) (T, error) {
	i, err := position(pos, len(items), what)
	if err != nil {
		var zero T
		return zero, err
	}
	return items[i], nil
}

func modulePos(t curriculum.Tree, pos string) (curriculum.Module, error) {
	return at(t.Modules, pos, "module")
}

func lessonPos(t curriculum.Tree, mpos, lpos string) (curriculum.Module, curriculum.Lesson, error) {
	m, err := modulePos(t, mpos)
	if err != nil {
		return curriculum.Module{}, curriculum.Lesson{}, err
	}
	l, err := at(m.Lessons, lpos, "lesson")
	return m, l, err
}

// move returns a copy of items with the element at from placed at to, as a
// drag and drop would leave it.
func move[T any](items []T, from, to string) ([]T, error) {
	i, err := position(from, len(items), "item")
	if err != nil {
		return nil, err
	}
	j, err := position(to, len(items), "item")
	if err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	item := out[i]
	out = slices.Delete(out, i, i+1)
	return slices.Insert(out, j, item), nil
}
