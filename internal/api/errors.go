package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is matched by every 404 APIError.
	ErrNotFound = errors.New("not found")
	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("network error")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorBody struct {
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// decodeError builds an APIError from a failed response. The backend sends
// message either as a string or, for upload validation, as a list.
func decodeError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Code
		e.Message = flattenMessage(eb.Message)
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	return e
}

func flattenMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, ", ")
	}
	return string(raw)
}
