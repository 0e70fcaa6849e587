package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder

	b.WriteString(titleStyle.Render("boorufetch") + "\n\n")
	b.WriteString(m.renderRuns())
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(m.renderLog())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))

	return b.String()
}

// renderRuns renders one line per tag run
func (m *Model) renderRuns() string {
	if len(m.runOrder) == 0 {
		return logStyle.Render("  waiting for work...")
	}

	var lines []string
	for _, tag := range m.runOrder {
		run := m.runs[tag]
		lines = append(lines, m.renderRun(run))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRun(run *TagRun) string {
	name := tagStyle.Render(run.Tag)

	switch run.State {
	case TagPending:
		return fmt.Sprintf("  %s %s", logStyle.Render("•"), name)
	case TagListing:
		page := ""
		if run.PageLimit > 0 {
			page = fmt.Sprintf(" page %d/%d, %d queued", run.Page, run.PageLimit, run.Queued)
		}
		return fmt.Sprintf("  %s %s %s%s", m.spinner.View(), name,
			statsLabelStyle.Render("listing"), logStyle.Render(page))
	case TagDownloading:
		ratio := 0.0
		processed := run.Acquired + run.Skipped + run.Failed
		if run.Queued > 0 {
			ratio = float64(processed) / float64(run.Queued)
		}
		bar := m.progressBar.ViewAs(ratio)
		return fmt.Sprintf("  %s %s %s %d/%d", m.spinner.View(), name, bar, processed, run.Queued)
	case TagDone:
		return fmt.Sprintf("  %s %s %s", successStyle.Render("✓"), name,
			logStyle.Render(fmt.Sprintf("%d new, %d skipped, %d failed",
				run.Acquired, run.Skipped, run.Failed)))
	case TagFailed:
		reason := ""
		if run.Error != nil {
			reason = run.Error.Error()
		}
		return fmt.Sprintf("  %s %s %s", errorStyle.Render("✗"), name, errorStyle.Render(reason))
	default:
		return "  " + name
	}
}

// renderStats renders the session-wide counters
func (m *Model) renderStats() string {
	var acquired, skipped, failed int
	for _, run := range m.runs {
		acquired += run.Acquired
		skipped += run.Skipped
		failed += run.Failed
	}

	elapsed := time.Since(m.sessionStart).Round(time.Second)

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		statsLabelStyle.Render("new ")+statsValueStyle.Render(fmt.Sprintf("%d", acquired)),
		logStyle.Render("  │  "),
		statsLabelStyle.Render("skipped ")+statsValueStyle.Render(fmt.Sprintf("%d", skipped)),
		logStyle.Render("  │  "),
		statsLabelStyle.Render("failed ")+statsValueStyle.Render(fmt.Sprintf("%d", failed)),
		logStyle.Render("  │  "),
		statsLabelStyle.Render("elapsed ")+statsValueStyle.Render(elapsed.String()),
	)

	return panelStyle.Render(stats)
}

// renderLog renders the tail of the log ring
func (m *Model) renderLog() string {
	const visible = 8

	start := 0
	if len(m.logEntries) > visible {
		start = len(m.logEntries) - visible
	}

	var lines []string
	for _, entry := range m.logEntries[start:] {
		line := fmt.Sprintf("%s %s %s",
			logStyle.Render(entry.Time.Format("15:04:05")),
			levelStyle(entry.Level).Render(fmt.Sprintf("%-7s", entry.Level)),
			entry.Message)
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, logStyle.Render("no messages yet"))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}
