package forms

import (
	"errors"

	"github.com/academy-dev/academy/internal/api"
)

// Table routes backend error codes to form fields.
type Table struct {
	// Fields maps a backend code to the field its message belongs to.
	Fields map[string]string
	// Field receives unknown codes; General when empty.
	Field string
	// Fallback replaces the backend message for unknown codes when set.
	Fallback string
	// Missing is used when the backend sent no message at all.
	Missing string
	// Transport is the message for requests that got no response.
	Transport string
}

// Backend rejection tables, one per form.
var (
	LoginCodes = Table{Fields: map[string]string{
		"INVALID_EMAIL":     "email",
		"EMAIL_REQUIRED":    "email",
		"USER_NOT_FOUND":    "email",
		"INVALID_PASSWORD":  "password",
		"PASSWORD_REQUIRED": "password",
	}}

	RegisterCodes = Table{Fields: map[string]string{
		"INVALID_EMAIL":    "email",
		"EMAIL_EXISTS":     "email",
		"INVALID_FULLNAME": "fullName",
		"INVALID_PASSWORD": "password",
	}}

	ProfileCodes = Table{
		Fields: map[string]string{
			"INVALID_FULLNAME": "fullName",
			"INVALID_EMAIL":    "email",
			"EMAIL_EXISTS":     "email",
			"FORBIDDEN":        General,
			"USER_NOT_FOUND":   General,
		},
		Fallback: "Something went wrong",
	}

	PasswordCodes = Table{
		Fields: map[string]string{
			"MISSING_FIELDS":           General,
			"INVALID_CURRENT_PASSWORD": "currentPassword",
			"INVALID_PASSWORD":         "newPassword",
			"SAME_PASSWORD":            "newPassword",
		},
		Fallback: "Password update failed",
	}

	ArticleCodes = Table{
		Fields: map[string]string{
			"INVALID_TITLE":   "title",
			"INVALID_CONTENT": "content",
			"INVALID_FILE":    "cover",
		},
		Missing: "Something went wrong",
	}

	CourseCodes = Table{Missing: "Something went wrong"}

	ResetRequestCodes = Table{
		Field:     "email",
		Missing:   "Invalid email address",
		Transport: resetTransport,
	}

	ResetVerifyCodes = Table{
		Field:     "code",
		Missing:   "Invalid code",
		Transport: resetTransport,
	}

	ResetCompleteCodes = Table{
		Missing:   "Failed to reset password",
		Transport: resetTransport,
	}
)

const (
	resetTransport   = "Something went wrong. Try again later."
	defaultTransport = "Network error"
)

// Map turns a failed backend call into field errors. It returns nil for a
// nil error.
func (t Table) Map(err error) Errors {
	if err == nil {
		return nil
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		msg := apiErr.Message
		if msg == "" {
			msg = t.Missing
		}
		if field, ok := t.Fields[apiErr.Code]; ok {
			return Errors{field: msg}
		}
		field := t.Field
		if field == "" {
			field = General
		}
		if t.Fallback != "" {
			msg = t.Fallback
		}
		if msg == "" {
			msg = apiErr.Error()
		}
		return Errors{field: msg}
	}
	if errors.Is(err, api.ErrTransport) {
		if t.Transport != "" {
			return Errors{General: t.Transport}
		}
		return Errors{General: defaultTransport}
	}
	return Errors{General: err.Error()}
}
