package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthFailed     = errors.New("authentication failed")
	ErrBuildNotFound  = errors.New("build not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrNetworkTimeout = errors.New("network timeout")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// APIError is a non-success HTTP response from a CI provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps well-known status codes onto the sentinel errors so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrBuildNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// WrapError converts API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	if errors.Is(err, ErrInvalidRepository) {
		return &UserError{
			Message: "Invalid repository",
			Hint:    "Pass --repo or set repository in the config file.\n  - GitHub: owner/repo\n  - Buildkite: org/pipeline",
			Err:     err,
		}
	}

	if msg == "401 Unauthorized" || errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that your API token is valid and has the correct permissions.\n  - Buildkite: Set BUILDKITE_API_TOKEN\n  - GitHub: Set GITHUB_TOKEN",
			Err:     err,
		}
	}

	if msg == "404 Not Found" || errors.Is(err, ErrBuildNotFound) {
		return &UserError{
			Message: "Repository or pipeline not found",
			Hint:    "Check that the repository is correct and you have access to it.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrRateLimited) {
		return &UserError{
			Message: "Rate limited by the CI provider",
			Hint:    "Wait a few minutes, or lower --limit to reduce the number of API calls.",
			Err:     err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UserError{
			Message: "Request to the CI provider timed out",
			Hint:    "Raise timeouts.metadata_seconds in the config file if the provider is slow.",
			Err:     fmt.Errorf("%w: %v", ErrNetworkTimeout, err),
		}
	}

	return err
}
