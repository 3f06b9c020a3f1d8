// Package api is the client for the platform's REST backend.
//
// The backend authenticates with an HTTP-only session cookie, so every
// Client carries a cookie jar that plays the role of the browser's
// credentials store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the backend over JSON and multipart HTTP.
type Client struct {
	http    *resty.Client
	jar     http.CookieJar
	baseURL *url.URL
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{baseURL: u, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c.jar = jar

	c.http = resty.New()
	c.http.
		SetBaseURL(u.String()).
		SetCookieJar(c.jar).
		SetRetryCount(0).
		SetLogger(restyLogger{c.logger}).
		SetHeader("Accept", "application/json")
	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}
	return c, nil
}

// BaseURL returns the backend root the client was created for.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Cookies returns the session cookies currently held for the backend.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies seeds the jar, typically from a persisted session.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies expires every cookie held for the backend.
func (c *Client) ClearCookies() {
	var expired []*http.Cookie
	for _, ck := range c.jar.Cookies(c.baseURL) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.jar.SetCookies(c.baseURL, expired)
	}
}

// do executes one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, prepare func(*resty.Request), out any) error {
	resp, err := c.send(ctx, method, path, prepare)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return decodeError(resp.StatusCode(), resp.Body())
	}
	return decodeBody(method, path, resp.Body(), out)
}

func (c *Client) send(ctx context.Context, method, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
	)
	return resp, nil
}

func decodeBody(method, path string, body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func jsonBody(v any) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(v)
	}
}

// restyLogger routes resty's internal warnings through slog.
type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
