package cmd

import (
	"errors"
	"fmt"

	"ghtool/internal/repos"
)

// Process exit codes
const (
	ExitOK                 = 0
	ExitGenericError       = 1
	ExitInvalidArgs        = 2
	ExitInvalidArgValues   = 3
	ExitNetworkError       = 4
	ExitGitHubGenericError = 5
	ExitGitHubNotFound     = 6
	ExitGitHubRateLimit    = 7

	// ExitInterrupted follows the shell convention of 128 + SIGINT
	ExitInterrupted = 130
)

// usageError is a malformed command line: unknown flag, wrong arity, non-integer id
type usageError struct {
	err error
}

func newUsageError(format string, args ...interface{}) *usageError {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

// internalError is a failure unrelated to the arguments or the API, such as
// an unreadable config file or a failed write to stdout
type internalError struct {
	message string
	err     error
}

func newInternalError(message string, err error) *internalError {
	return &internalError{message: message, err: err}
}

func (e *internalError) Error() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.err)
}

func (e *internalError) Unwrap() error {
	return e.err
}

// exitCodeFor maps a command error to its exit code.
// Errors of no known type come from cobra's own argument handling
// (unknown command, for instance) and count as malformed arguments.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var repoErr *repos.Error
	if errors.As(err, &repoErr) {
		switch repoErr.Kind {
		case repos.KindInvalidValue:
			return ExitInvalidArgValues
		case repos.KindNetwork:
			return ExitNetworkError
		case repos.KindNotFound:
			return ExitGitHubNotFound
		case repos.KindRateLimit:
			return ExitGitHubRateLimit
		default:
			return ExitGitHubGenericError
		}
	}

	var internalErr *internalError
	if errors.As(err, &internalErr) {
		return ExitGenericError
	}

	return ExitInvalidArgs
}
