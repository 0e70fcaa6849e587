package retriever

// FetchState is the state of the page fetch loop with respect to the
// retry-then-skip policy.
type FetchState int

const (
	// StateFetching means the next request proceeds normally
	StateFetching FetchState = iota
	// StateRetrying means the same page is requested again
	StateRetrying
	// StateSkipped means the page's retry budget is spent and pagination
	// moves on, accepting the data loss for that page
	StateSkipped
)

func (s FetchState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateRetrying:
		return "retrying"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// pageTracker drives the retry-then-skip policy for page fetches.
//
// The successive-error counter is shared across transport and status
// failures, and resets on any success or skip decision, not only on success.
type pageTracker struct {
	limit  int
	errors int
	state  FetchState
}

func newPageTracker(limit int) *pageTracker {
	return &pageTracker{limit: limit, state: StateFetching}
}

// Failure records one failed fetch and returns the resulting state: retry
// the same page while budget remains, otherwise skip it and reset.
func (t *pageTracker) Failure() FetchState {
	if t.errors < t.limit {
		t.errors++
		t.state = StateRetrying
	} else {
		t.errors = 0
		t.state = StateSkipped
	}
	return t.state
}

// Success records a successful fetch and resets the error counter
func (t *pageTracker) Success() {
	t.errors = 0
	t.state = StateFetching
}

// Errors returns the current successive-error count
func (t *pageTracker) Errors() int {
	return t.errors
}

// State returns the tracker's current state
func (t *pageTracker) State() FetchState {
	return t.state
}
