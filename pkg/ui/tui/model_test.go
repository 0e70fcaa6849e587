package tui

import (
	"errors"
	"testing"
)

func TestModelTracksRuns(t *testing.T) {
	model := NewModel()

	model.Update(TagStartMsg{Tag: "landscape"})
	model.Update(TagStartMsg{Tag: "portrait"})

	if len(model.runs) != 2 {
		t.Errorf("Expected 2 runs, got %d", len(model.runs))
	}

	model.Update(PageMsg{Tag: "landscape", Page: 2, PageLimit: 3, Queued: 250})
	run := model.runs["landscape"]
	if run.Page != 2 || run.PageLimit != 3 || run.Queued != 250 {
		t.Errorf("Unexpected page progress: %+v", run)
	}
	if run.State != TagListing {
		t.Errorf("Expected listing state, got %v", run.State)
	}

	model.Update(DispatchMsg{Tag: "landscape", Queued: 250})
	if run.State != TagDownloading {
		t.Errorf("Expected downloading state, got %v", run.State)
	}

	model.Update(ItemMsg{Tag: "landscape", PostID: 1, Success: true})
	model.Update(ItemMsg{Tag: "landscape", PostID: 2, Skipped: true})
	model.Update(ItemMsg{Tag: "landscape", PostID: 3, Error: errors.New("boom")})

	if run.Acquired != 1 || run.Skipped != 1 || run.Failed != 1 {
		t.Errorf("Unexpected counters: %+v", run)
	}

	model.Update(TagDoneMsg{Tag: "landscape"})
	if run.State != TagDone {
		t.Errorf("Expected done state, got %v", run.State)
	}

	model.Update(TagDoneMsg{Tag: "portrait", Error: errors.New("auth rejected")})
	if model.runs["portrait"].State != TagFailed {
		t.Errorf("Expected failed state, got %v", model.runs["portrait"].State)
	}
}

func TestModelTotals(t *testing.T) {
	model := NewModel()

	model.Update(ItemMsg{Tag: "a", PostID: 1, Success: true})
	model.Update(ItemMsg{Tag: "a", PostID: 2, Success: true})
	model.Update(ItemMsg{Tag: "b", PostID: 3, Skipped: true})
	model.Update(ItemMsg{Tag: "b", PostID: 4, Error: errors.New("boom")})

	acquired, skipped, failed := model.Totals()
	if acquired != 2 || skipped != 1 || failed != 1 {
		t.Errorf("Totals() = %d, %d, %d", acquired, skipped, failed)
	}
}

func TestModelLogRing(t *testing.T) {
	model := NewModel()
	model.maxLog = 3

	for i := 0; i < 5; i++ {
		model.Update(LogMsg{Level: "INFO", Message: "entry"})
	}

	if len(model.logEntries) != 3 {
		t.Errorf("Expected log ring capped at 3, got %d", len(model.logEntries))
	}
}

func TestModelViewRenders(t *testing.T) {
	model := NewModel()
	model.Update(TagStartMsg{Tag: "landscape"})

	view := model.View()
	if view == "" {
		t.Error("Expected a non-empty view")
	}
}
