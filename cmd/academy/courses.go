package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/courseio"
	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
	"github.com/academy-dev/academy/internal/session"
)

func (e *appEnv) courseCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "courses",
			Usage: "browse the course catalogue",
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "list published courses",
					Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Usage: "at most `N` courses"}},
					Action: e.listCourses,
				},
			},
		},
		{
			Name:  "course",
			Usage: "work with a single course",
			Subcommands: []*cli.Command{
				{
					Name:      "show",
					Usage:     "print a course and its curriculum",
					ArgsUsage: "<id>",
					Action:    e.showCourse,
				},
				{
					Name:      "enroll",
					Usage:     "enroll and print the lesson to start with",
					ArgsUsage: "<id>",
					Action:    e.enroll,
				},
				{
					Name:      "export",
					Usage:     "export a course as portable JSON",
					ArgsUsage: "<id>",
					Flags:     []cli.Flag{&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to `FILE` (- for stdout)"}},
					Action:    e.exportCourse,
				},
				{
					Name:      "import",
					Usage:     "check a course file, optionally saving it as a new course",
					ArgsUsage: "<file>",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "create", Usage: "save the imported course on the backend"},
						&cli.Int64Flag{Name: "category", Usage: "category `ID` for the new course"},
						&cli.StringFlag{Name: "difficulty", Usage: "override the difficulty in the file"},
						&cli.StringFlag{Name: "cover", Usage: "cover image `FILE`"},
					},
					Action: e.importCourse,
				},
				{
					Name:      "import-dir",
					Usage:     "check every course file under a directory",
					ArgsUsage: "<dir>",
					Action:    e.importDir,
				},
				{
					Name:      "outline",
					Usage:     "write an xlsx review outline of a course id or course file",
					ArgsUsage: "<id|file>",
					Flags:     []cli.Flag{&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "xlsx `FILE`"}},
					Action:    e.outline,
				},
				{
					Name:      "delete",
					Usage:     "delete a course you may edit",
					ArgsUsage: "<id>",
					Action:    e.deleteCourse,
				},
			},
		},
		{
			Name:   "progress",
			Usage:  "list your enrollments",
			Action: e.progress,
		},
	}
}

func argID(c *cli.Context, what string) (int64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("%s id is required", what)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func (e *appEnv) listCourses(c *cli.Context) error {
	courses, err := e.client.ListCourses(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tMODULES")
	for _, course := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", course.ID, course.Title, course.Difficulty, len(course.Modules))
	}
	return tw.Flush()
}

func (e *appEnv) showCourse(c *cli.Context) error {
	id, err := argID(c, "course")
	if err != nil {
		return err
	}
	if _, err := e.session(c.Context); err != nil {
		return err
	}
	detail, err := e.client.GetCourse(c.Context, id)
	if err != nil {
		return err
	}
	printCourse(e.out, detail.Course)
	if p := detail.Enrolled; p != nil {
		status := "in progress"
		if p.IsCompleted {
			status = "completed"
		}
		fmt.Fprintf(e.out, "Enrolled: %.0f%% %s, current lesson %d\n", p.ProgressPercent, status, p.LessonID)
	}
	return nil
}

func printCourse(w io.Writer, course curriculum.Course) {
	fmt.Fprintf(w, "%s [%s]\n", course.Title, course.Difficulty)
	if course.Description != "" {
		fmt.Fprintf(w, "%s\n", course.Description)
	}
	for mi, m := range course.Modules {
		fmt.Fprintf(w, "%d. %s\n", mi+1, m.Title)
		for li, l := range m.Lessons {
			fmt.Fprintf(w, "   %d.%d %s (lesson %s, %d tasks)\n", mi+1, li+1, l.Title, l.ID, len(l.Tasks))
		}
	}
}

func (e *appEnv) enroll(c *cli.Context) error {
	id, err := argID(c, "course")
	if err != nil {
		return err
	}
	if _, _, err := e.signedIn(c.Context); err != nil {
		return err
	}
	lessonID, err := e.client.Enroll(c.Context, id)
	if err != nil {
		return err
	}
	if lessonID == 0 {
		fmt.Fprintln(e.out, "Enrollment was not created.")
		return nil
	}
	fmt.Fprintf(e.out, "Enrolled. Start with: academy lesson play %d\n", lessonID)
	return nil
}

func (e *appEnv) exportCourse(c *cli.Context) error {
	id, err := argID(c, "course")
	if err != nil {
		return err
	}
	if _, err := e.session(c.Context); err != nil {
		return err
	}
	raw, err := e.client.GetCourseJSON(c.Context, id)
	if err != nil {
		return err
	}
	data, err := courseio.Export(raw)
	if err != nil {
		return err
	}
	var head struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("reading course title: %w", err)
	}

	out := c.String("output")
	if out == "-" {
		_, err := e.out.Write(append(data, '\n'))
		return err
	}
	if out == "" {
		out = courseio.ExportFilename(head.Title)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(e.out, "Exported %q to %s\n", head.Title, out)
	return nil
}

func (e *appEnv) importCourse(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("course file is required")
	}
	course, err := courseio.ImportFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %d modules, %d lessons, %d tasks\n", course.Title, len(course.Modules), countLessons(course), countTasks(course))
	if !c.Bool("create") {
		return nil
	}

	ctx := c.Context
	if _, err := e.requireRole(ctx, curriculum.RoleAdmin, curriculum.RoleTester); err != nil {
		return err
	}
	form := forms.Course{
		Title:       course.Title,
		Description: course.Description,
		Difficulty:  string(course.Difficulty),
		CategoryID:  course.CategoryID,
	}
	if v := c.String("difficulty"); v != "" {
		form.Difficulty = v
	}
	if v := c.Int64("category"); v != 0 {
		form.CategoryID = v
	}
	if p := c.String("cover"); p != "" {
		up, err := readUpload(p)
		if err != nil {
			return err
		}
		form.Cover = up
	}
	if err := check(form.Validate()); err != nil {
		return err
	}

	err = e.client.SaveCourse(ctx, api.CourseUpload{
		Title:       form.Title,
		Description: form.Description,
		Difficulty:  curriculum.Difficulty(form.Difficulty),
		CategoryID:  form.CategoryID,
		Modules:     course.Modules,
		Cover:       form.Cover,
	})
	if err != nil {
		return check(forms.CourseCodes.Map(err))
	}
	fmt.Fprintf(e.out, "Created course %q\n", form.Title)
	return nil
}

func readUpload(path string) (*api.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &api.Upload{Filename: filepath.Base(path), Data: data}, nil
}

func countLessons(c curriculum.Course) int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

func countTasks(c curriculum.Course) int {
	n := 0
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			n += len(l.Tasks)
		}
	}
	return n
}

func (e *appEnv) importDir(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return errors.New("directory is required")
	}
	loader, err := courseio.NewLoader(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tDETAIL")
	for _, p := range loader.Paths() {
		course, _ := loader.Course(p)
		fmt.Fprintf(tw, "%s\tok\t%s (%d modules)\n", p, course.Title, len(course.Modules))
	}
	skipped := loader.Skipped()
	for _, p := range slices.Sorted(maps.Keys(skipped)) {
		fmt.Fprintf(tw, "%s\tskipped\t%v\n", p, skipped[p])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(skipped) > 0 {
		return fmt.Errorf("%d course files could not be imported", len(skipped))
	}
	return nil
}

// loadCourse resolves a numeric argument on the backend and anything else
// as a local course file.
func (e *appEnv) loadCourse(ctx context.Context, arg string) (curriculum.Course, bool, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if _, err := e.session(ctx); err != nil {
			return curriculum.Course{}, false, err
		}
		detail, err := e.client.GetCourse(ctx, id)
		if err != nil {
			return curriculum.Course{}, false, err
		}
		return detail.Course, true, nil
	}
	course, err := courseio.ImportFile(arg)
	return course, false, err
}

func (e *appEnv) outline(c *cli.Context) error {
	arg := c.Args().First()
	if arg == "" {
		return errors.New("course id or file is required")
	}
	course, _, err := e.loadCourse(c.Context, arg)
	if err != nil {
		return err
	}
	out := c.String("output")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating outline: %w", err)
	}
	if err := courseio.WriteOutline(f, course); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing outline: %w", err)
	}
	fmt.Fprintf(e.out, "Wrote outline of %q to %s\n", course.Title, out)
	return nil
}

func (e *appEnv) deleteCourse(c *cli.Context) error {
	id, err := argID(c, "course")
	if err != nil {
		return err
	}
	ctx := c.Context
	sess, err := e.requireRole(ctx, curriculum.RoleAdmin, curriculum.RoleTester)
	if err != nil {
		return err
	}
	detail, err := e.client.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if !sess.CanEditCourse(detail.Course) {
		return session.ErrNotFound
	}
	if err := e.client.DeleteCourse(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted course %q\n", detail.Course.Title)
	return nil
}

func (e *appEnv) progress(c *cli.Context) error {
	if _, _, err := e.signedIn(c.Context); err != nil {
		return err
	}
	progresses, err := e.client.Progress(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tPROGRESS\tNEXT LESSON\tSTATUS")
	for _, p := range progresses {
		title := strconv.FormatInt(p.CourseID, 10)
		if p.Course != nil {
			title = p.Course.Title
		}
		status := "in progress"
		if p.IsCompleted {
			status = "completed"
		}
		fmt.Fprintf(tw, "%s\t%.0f%%\t%d\t%s\n", title, p.ProgressPercent, p.LessonID, status)
	}
	return tw.Flush()
}
