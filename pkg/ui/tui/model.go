package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TagState represents the state of one tag run
type TagState int

const (
	TagPending TagState = iota
	TagListing
	TagDownloading
	TagDone
	TagFailed
)

// TagRun tracks one tag's progress through listing and acquisition
type TagRun struct {
	Tag       string
	State     TagState
	Page      int
	PageLimit int
	Queued    int
	Acquired  int
	Skipped   int
	Failed    int
	StartTime time.Time
	Error     error
}

// LogEntry is one line of the scrolling log panel
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Model represents the TUI model
type Model struct {
	spinner     spinner.Model
	progressBar progress.Model

	runs     map[string]*TagRun
	runOrder []string

	sessionStart time.Time

	width      int
	height     int
	quitting   bool
	logEntries []LogEntry
	maxLog     int

	mu sync.RWMutex
}

// NewModel creates a new TUI model
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:      s,
		progressBar:  p,
		runs:         make(map[string]*TagRun),
		runOrder:     []string{},
		sessionStart: time.Now(),
		logEntries:   []LogEntry{},
		maxLog:       50,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// run returns the tracked run for tag, creating it if needed.
// Caller must hold the lock.
func (m *Model) run(tag string) *TagRun {
	if r, ok := m.runs[tag]; ok {
		return r
	}
	r := &TagRun{Tag: tag, State: TagPending, StartTime: time.Now()}
	m.runs[tag] = r
	m.runOrder = append(m.runOrder, tag)
	return r
}

// addLog appends a log entry, trimming the ring to maxLog.
// Caller must hold the lock.
func (m *Model) addLog(level, message string) {
	m.logEntries = append(m.logEntries, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.logEntries) > m.maxLog {
		m.logEntries = m.logEntries[len(m.logEntries)-m.maxLog:]
	}
}

// Totals returns the session-wide acquisition counters
func (m *Model) Totals() (acquired, skipped, failed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.runs {
		acquired += r.Acquired
		skipped += r.Skipped
		failed += r.Failed
	}
	return acquired, skipped, failed
}
