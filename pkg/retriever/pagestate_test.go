package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageTrackerRetriesUntilBudgetSpent(t *testing.T) {
	tracker := newPageTracker(5)

	for i := 1; i <= 5; i++ {
		state := tracker.Failure()
		assert.Equal(t, StateRetrying, state, "failure %d should retry", i)
		assert.Equal(t, i, tracker.Errors())
	}

	// The sixth failed request tips the page into a skip
	assert.Equal(t, StateSkipped, tracker.Failure())
	assert.Equal(t, 0, tracker.Errors(), "skip resets the counter")
}

func TestPageTrackerSuccessResetsCounter(t *testing.T) {
	tracker := newPageTracker(5)

	tracker.Failure()
	tracker.Failure()
	assert.Equal(t, 2, tracker.Errors())

	tracker.Success()
	assert.Equal(t, 0, tracker.Errors())
	assert.Equal(t, StateFetching, tracker.State())

	// With the counter reset the full budget is available again
	for i := 0; i < 5; i++ {
		assert.Equal(t, StateRetrying, tracker.Failure())
	}
	assert.Equal(t, StateSkipped, tracker.Failure())
}

func TestPageTrackerCounterSharedAcrossPages(t *testing.T) {
	tracker := newPageTracker(5)

	// Three failures on one page, then the next page inherits the count
	tracker.Failure()
	tracker.Failure()
	tracker.Failure()

	assert.Equal(t, StateRetrying, tracker.Failure())
	assert.Equal(t, StateRetrying, tracker.Failure())
	assert.Equal(t, StateSkipped, tracker.Failure())
}

func TestFetchStateString(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "retrying", StateRetrying.String())
	assert.Equal(t, "skipped", StateSkipped.String())
	assert.Equal(t, "unknown", FetchState(42).String())
}
