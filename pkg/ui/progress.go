package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of one tag run's acquisition progress
type StatusTracker struct {
	Tag       string
	Total     int
	Acquired  int
	Skipped   int
	Failed    int
	StartTime time.Time
}

// NewStatusTracker creates a tracker for a work list of the given size
func NewStatusTracker(tag string, total int) *StatusTracker {
	return &StatusTracker{
		Tag:       tag,
		Total:     total,
		StartTime: time.Now(),
	}
}

// RecordSuccess counts one newly acquired post
func (st *StatusTracker) RecordSuccess() {
	st.Acquired++
}

// RecordSkip counts one post that was already complete or filtered out
func (st *StatusTracker) RecordSkip() {
	st.Skipped++
}

// RecordFailure counts one post that could not be acquired
func (st *StatusTracker) RecordFailure() {
	st.Failed++
}

// Processed returns the number of posts handled so far
func (st *StatusTracker) Processed() int {
	return st.Acquired + st.Skipped + st.Failed
}

// GetProgress returns a formatted progress bar for the run
func (st *StatusTracker) GetProgress() string {
	const width = 20
	if st.Total == 0 {
		return fmt.Sprintf("[%s] 0/0", strings.Repeat(ProgressEmpty, width))
	}

	progress := float64(st.Processed()) / float64(st.Total)
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Processed(), st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average acquisition rate (items per minute)
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Acquired) / elapsed
}

// PrintProgress prints the current progress status in place
func (st *StatusTracker) PrintProgress() {
	fmt.Printf("\r%s %s %s",
		Green("[ACQUIRED]"),
		Cyan(st.Tag),
		st.GetProgress())
}

// PrintSummary prints the final per-tag summary line
func (st *StatusTracker) PrintSummary() {
	fmt.Printf("\n%s %s: %d new, %d skipped, %d failed in %s\n",
		Magenta("[DONE]"),
		st.Tag,
		st.Acquired,
		st.Skipped,
		st.Failed,
		st.GetElapsedTime().Round(time.Second))
}
