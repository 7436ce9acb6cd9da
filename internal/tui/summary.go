package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"court-kinetics/internal/service"
	"court-kinetics/internal/store"
)

// SummaryModel is the run overview screen model
type SummaryModel struct {
	queryService *service.QueryService
	runID        string // empty for the latest run
	view         *service.RunView
	loading      bool
	err          error
}

// NewSummaryModel creates a new summary model for runID, or the latest run
func NewSummaryModel(qs *service.QueryService, runID string) SummaryModel {
	return SummaryModel{
		queryService: qs,
		runID:        runID,
		loading:      true,
	}
}

// Init initializes the summary
func (m SummaryModel) Init() tea.Cmd {
	return m.loadData
}

// runLoadedMsg carries a run view to every screen that shows it
type runLoadedMsg struct {
	view *service.RunView
	err  error
}

func (m SummaryModel) loadData() tea.Msg {
	var (
		view *service.RunView
		err  error
	)
	if m.runID == "" {
		view, err = m.queryService.LatestRun()
	} else {
		view, err = m.queryService.GetRun(m.runID)
	}
	return runLoadedMsg{view: view, err: err}
}

// Update handles messages
func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.view = msg.view
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the summary
func (m SummaryModel) View() string {
	if m.loading {
		return "\n  Loading run..."
	}

	if errors.Is(m.err, store.ErrRunNotFound) {
		return "\n  No runs stored yet. Run 'court-kinetics metrics' first."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderRunCard(), "  ", m.renderTotalsCard())
	sections = append(sections, topRow)

	if len(m.view.Sessions) > 0 {
		sections = append(sections, m.renderSessions())
	}

	help := statusStyle.Render("Press 'r' to refresh, '2' for points, '3' for previous runs")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SummaryModel) renderRunCard() string {
	title := cardTitleStyle.Render("Run")
	r := m.view.Run

	finished := "in progress"
	if r.FinishedAt != nil {
		finished = humanize.Time(*r.FinishedAt)
	}

	lines := []string{
		RenderMetric("Participant", r.Participant),
		RenderMetric("Mass", formatFloat(r.MassKG)+" kg"),
		RenderMetric("Keypoint", r.Keypoint),
		RenderMetric("Rows skipped", fmt.Sprintf("%d", r.RowsToSkip)),
		RenderMetric("Started", humanize.Time(r.StartedAt)),
		RenderMetric("Finished", finished),
		RenderMetric("Run ID", shortID(r.ID)),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m SummaryModel) renderTotalsCard() string {
	title := cardTitleStyle.Render("Totals")
	t := m.view.Totals

	skipped := successStyle.Render("none")
	if m.view.Run.PointsSkipped > 0 {
		skipped = errorStyle.Render(humanize.Comma(int64(m.view.Run.PointsSkipped)))
	}

	lines := []string{
		RenderMetric("Points", humanize.Comma(int64(t.Points))),
		RenderMetric("Without data", humanize.Comma(int64(t.NoData))),
		RenderMetric("Skipped", skipped),
		RenderMetric("Distance Covered", formatFloat(t.Distance)+" m"),
		RenderMetric("Player Load", formatFloat(t.PlayerLoad)+" AU"),
		RenderMetric("Negative Work", formatFloat(t.NegativeWork)+" J"),
		RenderMetric("Positive Work", formatFloat(t.PositiveWork)+" J"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m SummaryModel) renderSessions() string {
	var lines []string
	lines = append(lines, cardTitleStyle.Render("Heart Rate Sessions"))
	lines = append(lines, tableHeaderStyle.Render(fmt.Sprintf("%-24s  %-16s  %7s  %5s  %8s  %7s  %8s",
		"File", "Discipline", "Avg HR", "Max", "Duration", "TRIMP", "Banister")))

	for _, s := range m.view.Sessions {
		lines = append(lines, tableRowStyle.Render(fmt.Sprintf("%-24s  %-16s  %7.1f  %5.0f  %8s  %7.1f  %8.1f",
			truncate(s.File, 24),
			truncate(s.Discipline, 16),
			s.AverageHR,
			s.MaxHR,
			service.FormatDuration(secondsToDuration(s.DurationSeconds)),
			s.TRIMP,
			s.BanisterTRIMP,
		)))
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to max runes, marking the cut with "..."
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
