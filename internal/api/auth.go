package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User *curriculum.User `json:"user"`
}

func (e userEnvelope) get(op string) (curriculum.User, error) {
	if e.User == nil {
		return curriculum.User{}, fmt.Errorf("%s: response has no user", op)
	}
	return *e.User, nil
}

// Login authenticates and stores the session cookie in the jar.
func (c *Client) Login(ctx context.Context, cred Credentials) (curriculum.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", jsonBody(cred), &env); err != nil {
		return curriculum.User{}, err
	}
	return env.get("login")
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, reg Registration) (curriculum.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", jsonBody(reg), &env); err != nil {
		return curriculum.User{}, err
	}
	return env.get("register")
}

// Me returns the user bound to the current session cookie.
func (c *Client) Me(ctx context.Context) (curriculum.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &env); err != nil {
		return curriculum.User{}, err
	}
	return env.get("me")
}

// Logout asks the backend to drop the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// RequestReset sends a password reset code to email.
func (c *Client) RequestReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/v1/auth/reset/request", jsonBody(body), nil)
}

// VerifyReset checks a reset code.
func (c *Client) VerifyReset(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/api/v1/auth/reset/verify", jsonBody(body), nil)
}

// CompleteReset sets the new password and signs the user in.
func (c *Client) CompleteReset(ctx context.Context, email, code, password string) (curriculum.User, error) {
	body := map[string]string{"email": email, "code": code, "password": password}
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/reset/complete", jsonBody(body), &env); err != nil {
		return curriculum.User{}, err
	}
	return env.get("complete reset")
}

// ProfileUpdate is the editable part of a user's own profile.
type ProfileUpdate struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateProfile saves the signed-in user's profile and returns the
// backend's confirmation message.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, p ProfileUpdate) (string, error) {
	var out messageBody
	path := "/api/v1/users/" + strconv.FormatInt(userID, 10)
	if err := c.do(ctx, http.MethodPut, path, jsonBody(p), &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

type messageBody struct {
	Message string `json:"message"`
}

// PasswordChange is the body of a password change.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, userID int64, p PasswordChange) error {
	path := "/api/v1/users/" + strconv.FormatInt(userID, 10) + "/password"
	return c.do(ctx, http.MethodPut, path, jsonBody(p), nil)
}
