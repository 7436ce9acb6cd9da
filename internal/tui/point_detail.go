package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"court-kinetics/internal/service"
)

// PointDetailModel is the point detail screen model
type PointDetailModel struct {
	queryService *service.QueryService
	point        service.PointSummary
	trace        []float64
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewPointDetailModel creates a new point detail model
func NewPointDetailModel(qs *service.QueryService, p service.PointSummary, width, height int) PointDetailModel {
	m := PointDetailModel{
		queryService: qs,
		point:        p,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // header and footer
		m.ready = true
	}

	return m
}

// Init initializes the point detail screen
func (m PointDetailModel) Init() tea.Cmd {
	return m.loadTrace
}

type traceLoadedMsg struct {
	trace []float64
	err   error
}

func (m PointDetailModel) loadTrace() tea.Msg {
	trace, err := m.queryService.EnergyTrace(m.point.Trial, m.point.Point)
	return traceLoadedMsg{trace: trace, err: err}
}

// Update handles messages
func (m PointDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case traceLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.trace = msg.trace
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if !m.loading {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadTrace
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the point detail screen
func (m PointDetailModel) View() string {
	if m.loading {
		return "\n  Loading point..."
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to points  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m PointDetailModel) renderContent() string {
	sections := []string{m.renderHeader(), m.renderMetrics()}
	sections = append(sections, m.renderTrace())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PointDetailModel) renderHeader() string {
	p := m.point
	title := cardTitleStyle.Render(fmt.Sprintf("Trial %s, point %d", p.Trial, p.Point))
	subtitle := lipgloss.NewStyle().Foreground(mutedColor).Render("Frames " + p.FrameRange)

	if p.NoData {
		warn := noDataStyle.Render("No kinematic data for this trial, metrics are zero")
		return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, warn, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, "")
}

func (m PointDetailModel) renderMetrics() string {
	p := m.point
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Metrics"),
		"  " + RenderMetric("Distance Covered", formatValue(p.Distance, " m")),
		"  " + RenderMetric("Player Load", formatValue(p.PlayerLoad, " AU")),
		"  " + RenderMetric("Negative Work", formatValue(p.NegativeWork, " J")),
		"  " + RenderMetric("Positive Work", formatValue(p.PositiveWork, " J")),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m PointDetailModel) renderTrace() string {
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Total Mechanical Energy (J)"))

	switch {
	case errors.Is(m.err, service.ErrNoTrace):
		lines = append(lines, statusStyle.Render("  Energy trace unavailable, start the viewer with a configured project"))
	case m.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("  %v", m.err)))
	case len(m.trace) > 2:
		chart := asciigraph.Plot(m.trace,
			asciigraph.Height(8),
			asciigraph.Width(service.TraceWidth),
		)
		lines = append(lines, chart)
	default:
		lines = append(lines, statusStyle.Render("  Not enough frames to plot"))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
