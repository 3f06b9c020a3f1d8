package forms

import (
	"net/http"
	"strings"

	"github.com/academy-dev/academy/internal/api"
)

// MaxImageSize is the largest accepted cover upload.
const MaxImageSize = 10 * 1024 * 1024

const mismatch = "Passwords do not match"

// Login is the sign-in form.
type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

var loginMessages = Messages{
	"email.required":    "Email is required",
	"email.email":       "Enter a valid email address",
	"password.required": "Password is required",
}

// Validate checks the form locally.
func (f Login) Validate() Errors { return Check(f, loginMessages) }

// Register is the sign-up form.
type Register struct {
	FullName string `form:"fullName" validate:"notblank"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

var registerMessages = Messages{
	"fullName":          "Full name is required",
	"email.required":    "Email is required",
	"email.email":       "Enter a valid email address",
	"password.required": "Password is required",
}

// Validate checks the form locally.
func (f Register) Validate() Errors { return Check(f, registerMessages) }

// ResetRequest is step one of the password reset flow.
type ResetRequest struct {
	Email string `form:"email" validate:"required,email"`
}

// Validate checks the form locally.
func (f ResetRequest) Validate() Errors { return Check(f, loginMessages) }

// ResetVerify is step two of the password reset flow.
type ResetVerify struct {
	Email string `form:"email" validate:"required,email"`
	Code  string `form:"code" validate:"notblank"`
}

// Validate checks the form locally.
func (f ResetVerify) Validate() Errors {
	return Check(f, Messages{
		"email.required": "Email is required",
		"email.email":    "Enter a valid email address",
		"code":           "Code is required",
	})
}

// ResetComplete is the final step of the password reset flow.
type ResetComplete struct {
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

// Validate checks the form locally.
func (f ResetComplete) Validate() Errors {
	return Check(f, Messages{
		"password.required": "Password is required",
		"confirmPassword":   mismatch,
	})
}

// Profile is the own-profile edit form.
type Profile struct {
	FullName string `form:"fullName" validate:"notblank"`
	Email    string `form:"email" validate:"required,email"`
}

// Validate checks the form locally.
func (f Profile) Validate() Errors { return Check(f, registerMessages) }

// PasswordChange is the own-password change form.
type PasswordChange struct {
	CurrentPassword string `form:"currentPassword" validate:"required"`
	NewPassword     string `form:"newPassword" validate:"required"`
	RepeatPassword  string `form:"repeatPassword" validate:"eqfield=NewPassword"`
}

// Validate checks the form locally.
func (f PasswordChange) Validate() Errors {
	return Check(f, Messages{
		"currentPassword": "Current password is required",
		"newPassword":     "New password is required",
		"repeatPassword":  mismatch,
	})
}

// Course is the course create/edit form. HasCover is set in edit mode when
// the course already has an image, which makes a new upload optional.
type Course struct {
	Title       string      `form:"title" validate:"notblank"`
	Description string      `form:"description" validate:"notblank"`
	Difficulty  string      `form:"difficulty" validate:"required,difficulty"`
	CategoryID  int64       `form:"category" validate:"gt=0"`
	Cover       *api.Upload `form:"-" validate:"-"`
	HasCover    bool        `form:"-" validate:"-"`
}

var courseMessages = Messages{
	"title":       "Title is required",
	"description": "Description is required",
	"difficulty":  "Select difficulty level",
	"category":    "Select a category",
}

// Validate checks the form locally.
func (f Course) Validate() Errors {
	errs := Check(f, courseMessages)
	switch {
	case f.Cover != nil:
		if msg := CheckImage(f.Cover); msg != "" {
			errs.Set("image", msg)
		}
	case !f.HasCover:
		errs.Set("image", "Course image is required")
	}
	return errs
}

// Article is the article create form. The cover is optional.
type Article struct {
	Title    string      `form:"title" validate:"notblank"`
	Subtitle string      `form:"subtitle"`
	Content  string      `form:"content" validate:"notblank"`
	Cover    *api.Upload `form:"-" validate:"-"`
}

// Validate checks the form locally.
func (f Article) Validate() Errors {
	errs := Check(f, Messages{
		"title":   "Title is required",
		"content": "Content is required",
	})
	if f.Cover != nil {
		if msg := CheckImage(f.Cover); msg != "" {
			errs.Set("cover", msg)
		}
	}
	return errs
}

// Category is the inline category create form.
type Category struct {
	Title       string `form:"title" validate:"notblank"`
	Description string `form:"description" validate:"notblank"`
}

// Validate checks the form locally.
func (f Category) Validate() Errors {
	return Check(f, Messages{
		"title":       "Title should be provided",
		"description": "Description should be provided",
	})
}

// CheckImage returns the message for an unacceptable cover, or "".
func CheckImage(up *api.Upload) string {
	ct := up.ContentType
	if ct == "" && len(up.Data) > 0 {
		ct = http.DetectContentType(up.Data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return "Please upload a valid image"
	}
	if len(up.Data) > MaxImageSize {
		return "Image must be under 10MB"
	}
	return ""
}
