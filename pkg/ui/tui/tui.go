package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
	model   *Model
}

// New creates a new TUI instance
func New() *TUI {
	model := NewModel()
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start starts the TUI and blocks until it exits
func (t *TUI) Start() error {
	go func() {
		// Send initial tick to start the refresh loop
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// StartTag notifies the TUI that a tag's listing has begun
func (t *TUI) StartTag(tag string) {
	t.Send(TagStartMsg{Tag: tag})
}

// UpdatePage updates the listing progress for a tag
func (t *TUI) UpdatePage(tag string, page, pageLimit, queued int) {
	t.Send(PageMsg{Tag: tag, Page: page, PageLimit: pageLimit, Queued: queued})
}

// StartDownloads moves a tag into the download phase
func (t *TUI) StartDownloads(tag string, queued int) {
	t.Send(DispatchMsg{Tag: tag, Queued: queued})
}

// RecordItem reports one acquisition result
func (t *TUI) RecordItem(tag string, postID int64, success, skipped bool, err error) {
	t.Send(ItemMsg{Tag: tag, PostID: postID, Success: success, Skipped: skipped, Error: err})
}

// FinishTag reports the end of a tag run
func (t *TUI) FinishTag(tag string, err error) {
	t.Send(TagDoneMsg{Tag: tag, Error: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
