package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRequester answers repository lookups from a table and can hold each
// request until the test releases it.
type fakeRequester struct {
	outcomes map[int64]Outcome
	gates    map[int64]chan struct{}
	delay    time.Duration

	mu       sync.Mutex
	calls    []int64
	inFlight int32
	maxSeen  int32
}

func newFakeRequester(outcomes map[int64]Outcome) *fakeRequester {
	return &fakeRequester{outcomes: outcomes, gates: map[int64]chan struct{}{}}
}

func (f *fakeRequester) gate(id int64) chan struct{} {
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeRequester) Get(ctx context.Context, path string) Outcome {
	var id int64
	if _, err := fmt.Sscanf(strings.TrimPrefix(path, "repositories/"), "%d", &id); err != nil {
		return Outcome{Kind: OutcomeAPIError, Cause: err}
	}

	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, current) {
			break
		}
	}

	if gate, ok := f.gates[id]; ok {
		<-gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if outcome, ok := f.outcomes[id]; ok {
		return outcome
	}
	return Outcome{Kind: OutcomeNotFound, StatusCode: http.StatusNotFound}
}

func (f *fakeRequester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func repoOutcome(id int64, fullName string) Outcome {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":        id,
		"full_name": fullName,
		"html_url":  "https://github.com/" + fullName,
		"pushed_at": "2024-05-01T10:00:00Z",
		"language":  "Go",
		"private":   false,
	})
	return Outcome{Kind: OutcomeSuccess, StatusCode: http.StatusOK, Payload: payload}
}

func summary(id int64, fullName string) RepositorySummary {
	return RepositorySummary{
		ID:       json.RawMessage(strconv.FormatInt(id, 10)),
		FullName: json.RawMessage(strconv.Quote(fullName)),
		HTMLURL:  json.RawMessage(strconv.Quote("https://github.com/" + fullName)),
		PushedAt: json.RawMessage(`"2024-05-01T10:00:00Z"`),
		Language: json.RawMessage(`"Go"`),
	}
}

func TestNewFetcherClampsConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewFetcher(newFakeRequester(nil), 0).Concurrency())
	assert.Equal(t, 1, NewFetcher(newFakeRequester(nil), -3).Concurrency())
	assert.Equal(t, 5, NewFetcher(newFakeRequester(nil), 5).Concurrency())
}

func TestFetchAllEmptyInput(t *testing.T) {
	requester := newFakeRequester(nil)

	summaries, err := NewFetcher(requester, 5).FetchAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NotNil(t, summaries)
	assert.Zero(t, requester.callCount())
}

func TestFetchAllPreservesInputOrder(t *testing.T) {
	ids := []int64{10, 20, 30, 40}
	completionOrders := [][]int64{
		{10, 20, 30, 40},
		{40, 30, 20, 10},
		{30, 10, 40, 20},
		{20, 40, 10, 30},
	}

	expected := []RepositorySummary{
		summary(10, "octo/ten"),
		summary(20, "octo/twenty"),
		summary(30, "octo/thirty"),
		summary(40, "octo/forty"),
	}

	for _, order := range completionOrders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			requester := newFakeRequester(map[int64]Outcome{
				10: repoOutcome(10, "octo/ten"),
				20: repoOutcome(20, "octo/twenty"),
				30: repoOutcome(30, "octo/thirty"),
				40: repoOutcome(40, "octo/forty"),
			})
			gates := map[int64]chan struct{}{}
			for _, id := range ids {
				gates[id] = requester.gate(id)
			}

			go func() {
				// every request is in flight before any is released
				for atomic.LoadInt32(&requester.inFlight) < int32(len(ids)) {
					time.Sleep(time.Millisecond)
				}
				for _, id := range order {
					close(gates[id])
					time.Sleep(2 * time.Millisecond)
				}
			}()

			summaries, err := NewFetcher(requester, len(ids)).FetchAll(context.Background(), ids)
			require.NoError(t, err)

			if diff := cmp.Diff(expected, summaries); diff != "" {
				t.Errorf("FetchAll() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchAllReportsFirstFailureInInputOrder(t *testing.T) {
	requester := newFakeRequester(map[int64]Outcome{
		1: repoOutcome(1, "octo/one"),
		3: {Kind: OutcomeRateLimited, StatusCode: http.StatusForbidden},
	})
	gateOne := requester.gate(1)
	gateTwo := requester.gate(2)

	go func() {
		// id 3 fails first, then 2 is missing, then 1 succeeds
		for atomic.LoadInt32(&requester.inFlight) < 2 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(5 * time.Millisecond)
		close(gateTwo)
		time.Sleep(5 * time.Millisecond)
		close(gateOne)
	}()

	summaries, err := NewFetcher(requester, 3).FetchAll(context.Background(), []int64{1, 2, 3})

	assert.Nil(t, summaries)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int64(2), fetchErr.ID)
	assert.Equal(t, OutcomeNotFound, fetchErr.Outcome.Kind)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "repository 2", reqErr.Resource)
}

func TestFetchAllPropagatesOutcomeKind(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
	}{
		{name: "rate limited", outcome: Outcome{Kind: OutcomeRateLimited, StatusCode: http.StatusForbidden}},
		{name: "api error", outcome: Outcome{Kind: OutcomeAPIError, StatusCode: http.StatusInternalServerError}},
		{name: "network", outcome: Outcome{Kind: OutcomeNetwork, Cause: fmt.Errorf("dial tcp: connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := newFakeRequester(map[int64]Outcome{
				7: repoOutcome(7, "octo/seven"),
				8: tt.outcome,
			})

			_, err := NewFetcher(requester, 5).FetchAll(context.Background(), []int64{7, 8})

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, int64(8), fetchErr.ID)
			assert.Equal(t, tt.outcome.Kind, fetchErr.Outcome.Kind)
			assert.Equal(t, tt.outcome.StatusCode, fetchErr.Outcome.StatusCode)
		})
	}
}

func TestFetchAllUndecodablePayload(t *testing.T) {
	requester := newFakeRequester(map[int64]Outcome{
		5: {Kind: OutcomeSuccess, StatusCode: http.StatusOK, Payload: json.RawMessage(`["not", "an", "object"]`)},
	})

	_, err := NewFetcher(requester, 5).FetchAll(context.Background(), []int64{5})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int64(5), fetchErr.ID)
	assert.Equal(t, OutcomeAPIError, fetchErr.Outcome.Kind)
	assert.Equal(t, http.StatusOK, fetchErr.Outcome.StatusCode)
}

func TestFetchAllRespectsConcurrencyLimit(t *testing.T) {
	outcomes := map[int64]Outcome{}
	ids := make([]int64, 0, 12)
	for id := int64(1); id <= 12; id++ {
		outcomes[id] = repoOutcome(id, fmt.Sprintf("octo/repo-%d", id))
		ids = append(ids, id)
	}
	requester := newFakeRequester(outcomes)
	requester.delay = 5 * time.Millisecond

	summaries, err := NewFetcher(requester, 3).FetchAll(context.Background(), ids)

	require.NoError(t, err)
	require.Len(t, summaries, len(ids))
	for i, s := range summaries {
		assert.Equal(t, strconv.FormatInt(ids[i], 10), FieldText(s.ID))
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&requester.maxSeen), int32(3))
	assert.Equal(t, len(ids), requester.callCount())
}

func TestFetchAllDuplicateIdentifiers(t *testing.T) {
	requester := newFakeRequester(map[int64]Outcome{
		9: repoOutcome(9, "octo/nine"),
	})

	summaries, err := NewFetcher(requester, 2).FetchAll(context.Background(), []int64{9, 9, 9})

	require.NoError(t, err)
	assert.Len(t, summaries, 3)
	assert.Equal(t, 3, requester.callCount())
}

func TestFetchAllCancelledContext(t *testing.T) {
	requester := newFakeRequester(map[int64]Outcome{
		1: repoOutcome(1, "octo/one"),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(requester, 2).FetchAll(ctx, []int64{1, 2})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int64(1), fetchErr.ID)
	assert.Equal(t, OutcomeNetwork, fetchErr.Outcome.Kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, requester.callCount())
}
