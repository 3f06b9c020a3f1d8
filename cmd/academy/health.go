package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

type healthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (e *appEnv) healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check the backend and the configured session and event stores",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "per-check timeout"},
		},
		Action: e.health,
	}
}

func (e *appEnv) health(c *cli.Context) error {
	timeout := c.Duration("timeout")
	run := func(name string, fn func(context.Context) error) healthCheck {
		ctx, cancel := context.WithTimeout(c.Context, timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return healthCheck{Name: name, Status: "down", Error: err.Error()}
		}
		return healthCheck{Name: name, Status: "ok"}
	}

	checks := []healthCheck{
		run("api", func(ctx context.Context) error {
			_, err := e.client.ListCourses(ctx, 1)
			return err
		}),
	}
	if e.cfg.Session.Store == "redis" {
		checks = append(checks, run("cache", func(ctx context.Context) error {
			cache, err := e.redis(ctx)
			if err != nil {
				return err
			}
			return cache.HealthCheck(ctx)
		}))
	}
	if e.cfg.EventsEnabled() {
		checks = append(checks, run("database", func(ctx context.Context) error {
			db, err := e.database(ctx)
			if err != nil {
				return err
			}
			return db.HealthCheck(ctx)
		}))
	}

	status := "ready"
	for _, ch := range checks {
		if ch.Status != "ok" {
			status = "degraded"
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"status": status, "checks": checks}); err != nil {
			return err
		}
	} else {
		for _, ch := range checks {
			line := fmt.Sprintf("%-9s %s", ch.Name, ch.Status)
			if ch.Error != "" {
				line += ": " + ch.Error
			}
			fmt.Fprintln(e.out, line)
		}
		fmt.Fprintln(e.out, status)
	}
	if status != "ready" {
		return fmt.Errorf("health: %s", status)
	}
	return nil
}
