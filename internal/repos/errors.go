package repos

import (
	"errors"
	"fmt"
	"net/http"

	"ghtool/pkg/github"
)

// ErrorKind represents the failure categories a command can end with
type ErrorKind string

const (
	KindInvalidValue ErrorKind = "invalid_value"
	KindNetwork      ErrorKind = "network"
	KindUpstream     ErrorKind = "upstream"
	KindNotFound     ErrorKind = "not_found"
	KindRateLimit    ErrorKind = "rate_limit"
)

// Error is a terminal failure of a list or describe operation
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewInvalidValueError reports an argument that parsed but is out of range
func NewInvalidValueError(message string) *Error {
	return &Error{Kind: KindInvalidValue, Message: message}
}

// NewNotFoundError reports a repository identifier the API does not know
func NewNotFoundError(id int64, cause error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Repository not found: %d", id),
		Cause:   cause,
	}
}

// fromOutcome maps a failed API outcome onto the command taxonomy.
// not_found only has a meaning for single lookups, so here it is a generic upstream error.
func fromOutcome(outcome github.Outcome, cause error) *Error {
	switch outcome.Kind {
	case github.OutcomeNetwork:
		return &Error{
			Kind:    KindNetwork,
			Message: "Network error: could not connect to GitHub",
			Cause:   cause,
		}
	case github.OutcomeRateLimited:
		return &Error{
			Kind:    KindRateLimit,
			Message: "GitHub rate limit exceeded",
			Cause:   cause,
		}
	default:
		status := outcome.StatusCode
		if status == 0 && outcome.Kind == github.OutcomeNotFound {
			status = http.StatusNotFound
		}
		return &Error{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("GitHub API response has an unexpected error status (%d)", status),
			Cause:   cause,
		}
	}
}

// fromFetchError maps a fetcher failure, keeping the offending identifier for not found
func fromFetchError(err error) *Error {
	var fetchErr *github.FetchError
	if !errors.As(err, &fetchErr) {
		return &Error{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("unexpected fetch failure: %v", err),
			Cause:   err,
		}
	}

	if fetchErr.Outcome.Kind == github.OutcomeNotFound {
		return NewNotFoundError(fetchErr.ID, err)
	}
	return fromOutcome(fetchErr.Outcome, err)
}

// IsKind reports whether err is a *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Kind == kind
	}
	return false
}
