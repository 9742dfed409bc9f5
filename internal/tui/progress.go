// Package tui renders probe progress while a batch is running.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"sethosts/internal/probe"
)

// GroupStartedMsg announces the batch for the next group.
type GroupStartedMsg struct {
	Group      string
	Candidates int
}

// ProbeCompletedMsg reports one finished probe within the current batch.
type ProbeCompletedMsg struct {
	Result    probe.Result
	Completed int
	Total     int
}

// RunDoneMsg ends the display.
type RunDoneMsg struct {
	Err error
}

// Model is the Bubble Tea model for probe progress.
type Model struct {
	bar       progress.Model
	group     string
	completed int
	total     int
	succeeded int
	failed    int
	width     int
	done      bool
}

// NewModel creates a progress model.
func NewModel() Model {
	return Model{
		bar:   progress.New(progress.WithDefaultGradient()),
		width: 60,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 20
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}

	case GroupStartedMsg:
		m.group = msg.Group
		m.completed = 0
		m.total = msg.Candidates

	case ProbeCompletedMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		if msg.Result.OK() {
			m.succeeded++
		} else {
			m.failed++
		}

	case RunDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Probing candidates"))
	b.WriteString("\n\n")

	if m.group != "" {
		b.WriteString(groupStyle.Render(m.group))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", m.completed, m.total)))
		b.WriteString("\n")
	}

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.completed) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(pct))
	b.WriteString("\n\n")

	b.WriteString(okStyle.Render(fmt.Sprintf("%d ok", m.succeeded)))
	b.WriteString(dimStyle.Render(" · "))
	b.WriteString(failStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	b.WriteString("\n")
	return b.String()
}
