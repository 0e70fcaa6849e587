package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// TagStartMsg is sent when a tag's listing begins
type TagStartMsg struct {
	Tag string
}

// PageMsg is sent after each listing page is resolved
type PageMsg struct {
	Tag       string
	Page      int
	PageLimit int
	Queued    int
}

// DispatchMsg is sent when the tag's work list moves to the download phase
type DispatchMsg struct {
	Tag    string
	Queued int
}

// ItemMsg is sent for each acquisition result
type ItemMsg struct {
	Tag     string
	PostID  int64
	Success bool
	Skipped bool
	Error   error
}

// TagDoneMsg is sent when a tag run finishes
type TagDoneMsg struct {
	Tag   string
	Error error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = msg.Width - 20
		if m.progressBar.Width > 60 {
			m.progressBar.Width = 60
		}
		m.mu.Unlock()
		return m, nil

	case TagStartMsg:
		m.mu.Lock()
		run := m.run(msg.Tag)
		run.State = TagListing
		run.StartTime = time.Now()
		m.addLog("INFO", "listing "+msg.Tag)
		m.mu.Unlock()
		return m, nil

	case PageMsg:
		m.mu.Lock()
		run := m.run(msg.Tag)
		run.Page = msg.Page
		run.PageLimit = msg.PageLimit
		run.Queued = msg.Queued
		m.mu.Unlock()
		return m, nil

	case DispatchMsg:
		m.mu.Lock()
		run := m.run(msg.Tag)
		run.State = TagDownloading
		run.Queued = msg.Queued
		m.mu.Unlock()
		return m, nil

	case ItemMsg:
		m.mu.Lock()
		run := m.run(msg.Tag)
		switch {
		case msg.Skipped:
			run.Skipped++
		case msg.Success:
			run.Acquired++
		default:
			run.Failed++
			if msg.Error != nil {
				m.addLog("WARN", msg.Error.Error())
			}
		}
		m.mu.Unlock()
		return m, nil

	case TagDoneMsg:
		m.mu.Lock()
		run := m.run(msg.Tag)
		if msg.Error != nil {
			run.State = TagFailed
			run.Error = msg.Error
			m.addLog("ERROR", msg.Tag+": "+msg.Error.Error())
		} else {
			run.State = TagDone
			m.addLog("SUCCESS", msg.Tag+" finished")
		}
		m.mu.Unlock()
		return m, nil

	case LogMsg:
		m.mu.Lock()
		m.addLog(msg.Level, msg.Message)
		m.mu.Unlock()
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// tickCmd schedules the next periodic refresh
func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
