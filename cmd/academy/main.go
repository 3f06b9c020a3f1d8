package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	env := &appEnv{in: in, out: out, errOut: errOut}

	commands := []*cli.Command{}
	commands = append(commands, env.authCommands()...)
	commands = append(commands, env.courseCommands()...)
	commands = append(commands, env.lessonCommands()...)
	commands = append(commands, env.curriculumCommands()...)
	commands = append(commands, env.adminCommands()...)
	commands = append(commands, env.healthCommand())

	return &cli.App{
		Name:      "academy",
		Usage:     "learn, author and administer courses on the academy platform",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Usage: "read ACADEMY_ variables from `FILE` (default ./.env when present)"},
			&cli.StringFlag{Name: "api-url", Usage: "backend base URL, overrides ACADEMY_API_URL"},
		},
		Before: func(c *cli.Context) error {
			var files []string
			if f := c.String("env-file"); f != "" {
				files = append(files, f)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if u := c.String("api-url"); u != "" {
				cfg.API.BaseURL = u
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return env.setup(cfg)
		},
		After: func(*cli.Context) error {
			env.close()
			return nil
		},
		Commands:                  commands,
		HideHelpCommand:           true,
		DisableSliceFlagSeparator: true,
	}
}

// newLogger builds the process logger from config, writing to w.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
