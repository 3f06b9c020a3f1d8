package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/runner"
)

const playHelp = `Commands:
  <n>      select quiz option n
  code     replace your code; end input with a line holding a single "."
  submit   check the current task
  prev     go back one task
  next     go forward once the task is solved
  quit     stop playing`

func (e *appEnv) lessonCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "lesson",
			Usage: "take lessons",
			Subcommands: []*cli.Command{
				{
					Name:      "play",
					Usage:     "work through a lesson's tasks interactively",
					ArgsUsage: "<id>",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "follow", Value: true, Usage: "continue into the next lesson when one is finished"},
					},
					Action: e.play,
				},
			},
		},
	}
}

func (e *appEnv) play(c *cli.Context) error {
	lessonID, err := argID(c, "lesson")
	if err != nil {
		return err
	}
	ctx := c.Context
	_, user, err := e.signedIn(ctx)
	if err != nil {
		return err
	}

	r := runner.New(e.client,
		runner.WithDelay(e.cfg.Runner.AdvanceDelay),
		runner.WithEvents(e.events(ctx)),
		runner.WithLogger(e.logger),
		runner.WithUser(user.ID),
		runner.WithObserver(func(runner.State) {
			fmt.Fprintln(e.out, "Correct!")
		}),
	)
	if err := r.Load(ctx, lessonID); err != nil {
		return err
	}
	fmt.Fprintln(e.out, playHelp)

	for {
		e.show(r)
		fmt.Fprint(e.out, "> ")
		line, ok := e.readLine()
		if !ok {
			return nil
		}
		done, err := e.playCommand(ctx, r, strings.TrimSpace(line), c.Bool("follow"))
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (e *appEnv) show(r *runner.Runner) {
	if st := r.State(); st.Lesson != nil {
		fmt.Fprintf(e.out, "\n== %s ==\n", st.Lesson.Title)
	}
	if v, ok := r.View(); ok {
		fmt.Fprint(e.out, v.String())
	}
}

// playCommand runs one line of input. It reports true when the session is
// over.
func (e *appEnv) playCommand(ctx context.Context, r *runner.Runner, cmd string, follow bool) (bool, error) {
	switch cmd {
	case "":
		return false, nil
	case "quit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(e.out, playHelp)
	case "prev":
		if !r.Previous() {
			fmt.Fprintln(e.out, "Already at the first task.")
		}
	case "next":
		if !r.Next() {
			fmt.Fprintln(e.out, "Solve this task first.")
		}
	case "code":
		r.SetCode(e.readCode())
	case "submit":
		return e.submit(ctx, r, follow)
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintf(e.out, "Unknown command %q. Type help for the list.\n", cmd)
			return false, nil
		}
		v, ok := r.View()
		if !ok || n < 1 || n > len(v.Options) {
			fmt.Fprintln(e.out, "No such option.")
			return false, nil
		}
		if err := r.SelectOption(v.Options[n-1].ID); err != nil {
			fmt.Fprintln(e.out, err)
		}
	}
	return false, nil
}

func (e *appEnv) readCode() string {
	var b strings.Builder
	for {
		line, ok := e.readLine()
		if !ok || line == "." {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (e *appEnv) submit(ctx context.Context, r *runner.Runner, follow bool) (bool, error) {
	res, err := r.Submit(ctx)
	switch {
	case errors.Is(err, runner.ErrTextTaskUnsupported):
		fmt.Fprintln(e.out, "Text answers cannot be submitted yet.")
		return false, nil
	case err != nil:
		// The view carries the notice or network error.
		e.logger.Debug("submission not accepted", "error", err)
		return false, nil
	}

	switch res.Outcome {
	case runner.CourseComplete:
		fmt.Fprintln(e.out, res.Message)
		return true, nil
	case runner.NavigateLesson:
		if !follow {
			fmt.Fprintf(e.out, "Lesson complete. Next: academy lesson play %d\n", res.NextLessonID)
			return true, nil
		}
		fmt.Fprintln(e.out, "Lesson complete.")
		if err := r.Load(ctx, res.NextLessonID); err != nil {
			return false, err
		}
	case runner.NoNextStep:
		fmt.Fprintln(e.out, "Lesson complete.")
		return true, nil
	}
	return false, nil
}
