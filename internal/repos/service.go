// Package repos implements the list and describe operations of ghtool on top
// of the GitHub client, and the error taxonomy the CLI turns into exit codes.
package repos

import (
	"context"
	"fmt"
	"net/http"

	"ghtool/internal/ctxlog"
	"ghtool/pkg/config"
	"ghtool/pkg/github"
)

// Service runs repository queries against the GitHub API
type Service struct {
	requester github.Requester
	fetcher   *github.Fetcher
}

// NewService creates a service; concurrency bounds parallel lookups in Describe
func NewService(requester github.Requester, concurrency int) *Service {
	return &Service{
		requester: requester,
		fetcher:   github.NewFetcher(requester, concurrency),
	}
}

// ValidateCount checks the list count bounds
func ValidateCount(count int) error {
	if count < 1 || count > config.MaxCount {
		return NewInvalidValueError(fmt.Sprintf("Invalid argument value: count must be between 1 and %d", config.MaxCount))
	}
	return nil
}

// List returns the count most recently updated repositories, restricted to
// language when it is not empty. Bounds are checked before any request is made.
func (s *Service) List(ctx context.Context, count int, language string) ([]github.RepositorySummary, error) {
	if err := ValidateCount(count); err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)

	outcome := s.requester.Get(ctx, github.SearchRepositoriesPath(language))
	if !outcome.OK() {
		cause := outcome.Err("repository search")

		// search answers 422 when the language qualifier is unknown
		if language != "" && outcome.Kind == github.OutcomeAPIError && outcome.StatusCode == http.StatusUnprocessableEntity {
			return nil, &Error{
				Kind:    KindInvalidValue,
				Message: fmt.Sprintf("GitHub API does not recognize language '%s'", language),
				Cause:   cause,
			}
		}
		return nil, fromOutcome(outcome, cause)
	}

	result, err := github.DecodeSearchResult(outcome.Payload)
	if err != nil {
		return nil, fromOutcome(github.Outcome{Kind: github.OutcomeAPIError, StatusCode: outcome.StatusCode}, err)
	}

	if result.IncompleteResults {
		logger.Debug("search reported incomplete results", "total_count", result.TotalCount, "items", len(result.Items))
	}

	items := result.Items
	if len(items) > count {
		items = items[:count]
	}

	summaries, err := github.SummarizeAll(items)
	if err != nil {
		return nil, fromOutcome(github.Outcome{Kind: github.OutcomeAPIError, StatusCode: outcome.StatusCode}, err)
	}

	logger.Debug("listed repositories", "language", language, "requested", count, "returned", len(summaries))
	return summaries, nil
}

// Describe looks up every identifier in parallel. It returns either one
// summary per identifier in input order or an error naming the first
// identifier, in input order, that failed.
func (s *Service) Describe(ctx context.Context, ids []int64) ([]github.RepositorySummary, error) {
	summaries, err := s.fetcher.FetchAll(ctx, ids)
	if err != nil {
		return nil, fromFetchError(err)
	}
	return summaries, nil
}
