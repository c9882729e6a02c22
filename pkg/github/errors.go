package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

// OutcomeKind represents the category of a single API request result
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeNotFound    OutcomeKind = "not_found"
	OutcomeRateLimited OutcomeKind = "rate_limit"
	OutcomeAPIError    OutcomeKind = "api_error"
	OutcomeNetwork     OutcomeKind = "network"
)

// Outcome is the result of one GET against the GitHub API.
// Payload is set only for OutcomeSuccess, StatusCode whenever a response was received.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Payload    json.RawMessage
	Cause      error
}

// OK reports whether the request succeeded
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Err converts a failed outcome into a *RequestError, nil on success
func (o Outcome) Err(resource string) error {
	if o.OK() {
		return nil
	}
	return &RequestError{
		Kind:       o.Kind,
		StatusCode: o.StatusCode,
		Resource:   resource,
		Cause:      o.Cause,
	}
}

// RequestError represents a failed request against the GitHub API
type RequestError struct {
	Kind       OutcomeKind
	StatusCode int
	Resource   string
	Cause      error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	var msg string
	switch e.Kind {
	case OutcomeNotFound:
		msg = "resource not found"
	case OutcomeRateLimited:
		msg = "rate limit exceeded"
	case OutcomeNetwork:
		msg = "network error"
	default:
		msg = fmt.Sprintf("unexpected status %d", e.StatusCode)
	}

	if e.Resource != "" {
		msg = fmt.Sprintf("%s: %s", e.Resource, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// FetchError reports the first identifier, in input order, whose request failed
type FetchError struct {
	ID      int64
	Outcome Outcome
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("repository %d: %v", e.ID, e.Outcome.Err(""))
}

// Unwrap returns the request error for the failed identifier
func (e *FetchError) Unwrap() error {
	return e.Outcome.Err(fmt.Sprintf("repository %d", e.ID))
}

// classify turns the result of a go-github call into an Outcome.
// A call that produced no HTTP response is always a network failure.
func classify(resp *github.Response, err error) Outcome {
	if err == nil {
		status := http.StatusOK
		if resp != nil && resp.Response != nil {
			status = resp.StatusCode
		}
		// go-github accepts any 2xx; only 200 carries a repository or search result
		if status != http.StatusOK {
			return Outcome{Kind: OutcomeAPIError, StatusCode: status, Cause: fmt.Errorf("expected status 200, got %d", status)}
		}
		return Outcome{Kind: OutcomeSuccess, StatusCode: status}
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return Outcome{Kind: OutcomeRateLimited, StatusCode: http.StatusForbidden, Cause: err}
	}

	if resp == nil || resp.Response == nil {
		return Outcome{Kind: OutcomeNetwork, Cause: err}
	}

	// the body of a 200 can still be cut off mid-read
	if resp.StatusCode == http.StatusOK && isNetworkError(err) {
		return Outcome{Kind: OutcomeNetwork, StatusCode: resp.StatusCode, Cause: err}
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return Outcome{Kind: OutcomeRateLimited, StatusCode: resp.StatusCode, Cause: err}
	case http.StatusNotFound:
		return Outcome{Kind: OutcomeNotFound, StatusCode: resp.StatusCode, Cause: err}
	default:
		// covers 2xx bodies that failed to decode as well
		return Outcome{Kind: OutcomeAPIError, StatusCode: resp.StatusCode, Cause: err}
	}
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no such host",
		"i/o timeout",
		"dial tcp",
	}
	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
