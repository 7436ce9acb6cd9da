package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"court-kinetics/internal/service"
	"court-kinetics/internal/store"
)

// RunsModel lists recent runs
type RunsModel struct {
	queryService *service.QueryService
	runs         []store.Run
	cursor       int
	loading      bool
	err          error
}

// NewRunsModel creates a new runs model
func NewRunsModel(qs *service.QueryService) RunsModel {
	return RunsModel{queryService: qs, loading: true}
}

// Init initializes the runs screen
func (m RunsModel) Init() tea.Cmd {
	return m.loadRuns
}

type runsLoadedMsg struct {
	runs []store.Run
	err  error
}

func (m RunsModel) loadRuns() tea.Msg {
	runs, err := m.queryService.RecentRuns()
	return runsLoadedMsg{runs: runs, err: err}
}

// Update handles messages
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.runs = msg.runs
		if m.cursor >= len(m.runs) {
			m.cursor = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.runs)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			return m, m.loadRuns
		case "enter":
			if m.cursor < len(m.runs) {
				id := m.runs[m.cursor].ID
				return m, func() tea.Msg {
					return SelectRunMsg{RunID: id}
				}
			}
		}
	}
	return m, nil
}

// View renders the runs list
func (m RunsModel) View() string {
	if m.loading {
		return "\n  Loading runs..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.runs) == 0 {
		return "\n  No runs stored yet. Run 'court-kinetics metrics' first."
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Recent Runs (%d)", len(m.runs))))

	header := tableHeaderStyle.Render(fmt.Sprintf("  %-8s  %-16s  %-10s  %-16s  %6s  %7s  %6s",
		"ID", "Started", "Particip.", "Keypoint", "Points", "Skipped", "Errors"))
	sections = append(sections, header)

	for i, r := range m.runs {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		started := humanize.Time(r.StartedAt)
		if r.FinishedAt == nil {
			started += "*"
		}

		row := fmt.Sprintf("%s%-8s  %-16s  %-10s  %-16s  %6s  %7d  %6d",
			cursor,
			shortID(r.ID),
			truncate(started, 16),
			truncate(r.Participant, 10),
			truncate(r.Keypoint, 16),
			humanize.Comma(int64(r.PointsTotal)),
			r.PointsSkipped,
			r.ErrorCount,
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: open run  j/k: navigate  r: refresh  (* unfinished)")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
