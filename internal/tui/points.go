package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"court-kinetics/internal/service"
	"court-kinetics/internal/store"
)

// PointsModel is the per-point metrics list screen model
type PointsModel struct {
	queryService *service.QueryService
	runID        string
	points       []service.PointSummary
	cursor       int
	offset       int
	pageSize     int
	loading      bool
	err          error
}

// NewPointsModel creates a new points model for runID, or the latest run
func NewPointsModel(qs *service.QueryService, runID string) PointsModel {
	return PointsModel{
		queryService: qs,
		runID:        runID,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the points screen
func (m PointsModel) Init() tea.Cmd {
	return m.loadPoints
}

type pointsLoadedMsg struct {
	points []service.PointSummary
	err    error
}

func (m PointsModel) loadPoints() tea.Msg {
	var (
		view *service.RunView
		err  error
	)
	if m.runID == "" {
		view, err = m.queryService.LatestRun()
	} else {
		view, err = m.queryService.GetRun(m.runID)
	}
	if err != nil {
		return pointsLoadedMsg{err: err}
	}
	return pointsLoadedMsg{points: view.Points}
}

// Update handles messages
func (m PointsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pointsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.points = msg.points
		if m.cursor >= len(m.points) {
			m.cursor = 0
			m.offset = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.points)-1 {
				m.cursor++
			}
		case "pgup":
			m.cursor -= m.pageSize
			if m.cursor < 0 {
				m.cursor = 0
			}
		case "pgdown":
			m.cursor += m.pageSize
			if m.cursor > len(m.points)-1 {
				m.cursor = len(m.points) - 1
			}
		case "r":
			m.loading = true
			return m, m.loadPoints
		case "enter":
			if m.cursor < len(m.points) {
				p := m.points[m.cursor]
				return m, func() tea.Msg {
					return OpenPointDetailMsg{Point: p}
				}
			}
		}
		m.offset = pageOffset(m.cursor, m.offset, m.pageSize)
	}
	return m, nil
}

// pageOffset keeps cursor inside the visible window [offset, offset+size)
func pageOffset(cursor, offset, size int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+size {
		return cursor - size + 1
	}
	return offset
}

// View renders the points list
func (m PointsModel) View() string {
	if m.loading {
		return "\n  Loading points..."
	}

	if errors.Is(m.err, store.ErrRunNotFound) {
		return "\n  No runs stored yet. Run 'court-kinetics metrics' first."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.points) == 0 {
		return "\n  This run has no points."
	}

	var sections []string

	end := m.offset + m.pageSize
	if end > len(m.points) {
		end = len(m.points)
	}
	title := cardTitleStyle.Render(fmt.Sprintf("Points (%d-%d of %d)", m.offset+1, end, len(m.points)))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("  %-5s  %5s  %-16s  %10s  %10s  %10s  %10s",
		"Trial", "Point", "Frames", "Distance", "Load", "Neg Work", "Pos Work"))
	sections = append(sections, header)

	for i := m.offset; i < end; i++ {
		p := m.points[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-5s  %5d  %-16s  %10s  %10s  %10s  %10s",
			cursor,
			p.Trial,
			p.Point,
			truncate(p.FrameRange, 16),
			formatValue(p.Distance, " m"),
			formatValue(p.PlayerLoad, ""),
			formatValue(p.NegativeWork, " J"),
			formatValue(p.PositiveWork, " J"),
		)

		switch {
		case i == m.cursor:
			sections = append(sections, tableSelectedStyle.Render(row))
		case p.NoData:
			sections = append(sections, noDataStyle.Render(row))
		default:
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: energy trace  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
