package github

import (
	"context"

	"ghtool/internal/ctxlog"
)

// Fetcher retrieves repositories by identifier using a bounded worker pool.
// Results come back in input order regardless of completion order.
type Fetcher struct {
	requester   Requester
	concurrency int
}

// NewFetcher creates a fetcher running at most concurrency requests at once.
// Values below 1 are treated as 1.
func NewFetcher(requester Requester, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		requester:   requester,
		concurrency: concurrency,
	}
}

// Concurrency returns the worker pool size
func (f *Fetcher) Concurrency() int {
	return f.concurrency
}

// fetchJob represents one identifier to look up
type fetchJob struct {
	index int
	id    int64
}

// fetchResult carries a worker's outcome back to the orchestrator
type fetchResult struct {
	index   int
	outcome Outcome
}

// FetchAll looks up every identifier and returns one summary per identifier in
// the same order. The first identifier, in input order, whose request did not
// succeed is reported as a *FetchError and no summaries are returned.
func (f *Fetcher) FetchAll(ctx context.Context, ids []int64) ([]RepositorySummary, error) {
	if len(ids) == 0 {
		return []RepositorySummary{}, nil
	}

	// Cancelled once the orchestrator has its answer, so queued ids are skipped
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Both channels hold the whole batch: the feeder never blocks and a
	// worker finishing after FetchAll returned can still deliver its result.
	jobChan := make(chan fetchJob, len(ids))
	resultChan := make(chan fetchResult, len(ids))

	for i, id := range ids {
		jobChan <- fetchJob{index: i, id: id}
	}
	close(jobChan)

	numWorkers := minInt(f.concurrency, len(ids))
	ctxlog.FromContext(ctx).Debug("fetching repositories", "count", len(ids), "workers", numWorkers)

	for i := 0; i < numWorkers; i++ {
		go f.worker(workerCtx, jobChan, resultChan)
	}

	return f.collect(ctx, ids, resultChan)
}

// worker processes jobs until the queue is drained
func (f *Fetcher) worker(ctx context.Context, jobs <-chan fetchJob, results chan<- fetchResult) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- fetchResult{index: job.index, outcome: Outcome{Kind: OutcomeNetwork, Cause: err}}
			continue
		}

		outcome := f.requester.Get(ctx, RepositoryPath(job.id))
		results <- fetchResult{index: job.index, outcome: outcome}
	}
}

// collect stores results in per-index slots and replays them in input order,
// stopping at the first slot that holds a failure.
func (f *Fetcher) collect(ctx context.Context, ids []int64, results <-chan fetchResult) ([]RepositorySummary, error) {
	logger := ctxlog.FromContext(ctx)

	slots := make([]*Outcome, len(ids))
	summaries := make([]RepositorySummary, 0, len(ids))

	next := 0
	for next < len(ids) {
		res := <-results
		outcome := res.outcome
		slots[res.index] = &outcome

		for next < len(ids) && slots[next] != nil {
			current := *slots[next]
			slots[next] = nil

			if !current.OK() {
				logger.Debug("repository fetch failed", "id", ids[next], "outcome", current.Kind, "status", current.StatusCode)
				return nil, &FetchError{ID: ids[next], Outcome: current}
			}

			summary, err := Summarize(current.Payload)
			if err != nil {
				return nil, &FetchError{
					ID:      ids[next],
					Outcome: Outcome{Kind: OutcomeAPIError, StatusCode: current.StatusCode, Cause: err},
				}
			}

			summaries = append(summaries, summary)
			next++
		}
	}

	return summaries, nil
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
