package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the API returns no choices.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrNoMessages is returned when a chat request carries no messages.
	ErrNoMessages = errors.New("chat request has no messages")

	// ErrMissingCredential is returned when a client is used without an API key.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrInvalidRole is returned for a chat role outside user, assistant and system.
	ErrInvalidRole = errors.New("invalid role")

	errMissingChoices = errors.New("response has no choices field")
)

// maxErrorBody bounds how much of a response body is kept on errors.
const maxErrorBody = 512

// TransportError is returned when the request never produced an HTTP response:
// connection, DNS, TLS, timeout or cancellation failures.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	Param      string
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
}

// DecodeError is returned when a response body is not the JSON the endpoint promises.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// newAPIError builds an APIError from a non-2xx response body. The standard
// {"error": {...}} envelope is preferred; any other body becomes the message.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Param = env.Error.Param
		apiErr.Code = rawCode(env.Error.Code)
		return apiErr
	}

	apiErr.Message = truncate(string(bytes.TrimSpace(body)))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// rawCode renders the error code, which the API sends as a string, a number or null.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return strings.ToValidUTF8(s[:maxErrorBody], "") + "..."
}
