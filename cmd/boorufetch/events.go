package main

import (
	"sync"

	"boorufetch/pkg/fetcher"
	"boorufetch/pkg/ui"
	"boorufetch/pkg/ui/tui"
)

// consoleEvents renders run progress as plain terminal output, one status
// tracker per tag.
type consoleEvents struct {
	mu       sync.Mutex
	trackers map[string]*ui.StatusTracker
}

func newConsoleEvents() *consoleEvents {
	return &consoleEvents{trackers: make(map[string]*ui.StatusTracker)}
}

func (e *consoleEvents) TagStarted(tag string) {
	ui.PrintInfo("Target Tag", tag)
}

func (e *consoleEvents) PageResolved(tag string, page, pageLimit, queued int) {}

func (e *consoleEvents) DownloadsStarted(tag string, queued int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackers[tag] = ui.NewStatusTracker(tag, queued)
}

func (e *consoleEvents) ItemFinished(tag string, postID int64, success, skipped bool, err error) {
	e.mu.Lock()
	tracker := e.trackers[tag]
	e.mu.Unlock()
	if tracker == nil {
		return
	}

	switch {
	case skipped:
		tracker.RecordSkip()
	case success:
		tracker.RecordSuccess()
	default:
		tracker.RecordFailure()
	}
	tracker.PrintProgress()
}

func (e *consoleEvents) TagFinished(tag string, summary *fetcher.Summary, err error) {
	e.mu.Lock()
	tracker := e.trackers[tag]
	delete(e.trackers, tag)
	e.mu.Unlock()

	if err != nil {
		ui.PrintError("Tag run failed", err.Error())
		return
	}
	if tracker != nil {
		tracker.PrintSummary()
	} else if summary != nil && summary.Queued == 0 {
		ui.PrintInfo("Nothing to acquire", tag)
	}
}

// tuiEvents forwards run progress to the interactive terminal UI
type tuiEvents struct {
	terminal *tui.TUI
}

func (e *tuiEvents) TagStarted(tag string) {
	e.terminal.StartTag(tag)
}

func (e *tuiEvents) PageResolved(tag string, page, pageLimit, queued int) {
	e.terminal.UpdatePage(tag, page, pageLimit, queued)
}

func (e *tuiEvents) DownloadsStarted(tag string, queued int) {
	e.terminal.StartDownloads(tag, queued)
}

func (e *tuiEvents) ItemFinished(tag string, postID int64, success, skipped bool, err error) {
	e.terminal.RecordItem(tag, postID, success, skipped, err)
	if err != nil {
		e.terminal.LogError("post %d: %v", postID, err)
	}
}

func (e *tuiEvents) TagFinished(tag string, summary *fetcher.Summary, err error) {
	e.terminal.FinishTag(tag, err)
	if err == nil && summary != nil {
		e.terminal.LogSuccess("%s: %d new, %d skipped, %d failed",
			tag, summary.Acquired, summary.Skipped, summary.Failed)
	}
}
