package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"court-kinetics/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenSummary Screen = iota
	ScreenPoints
	ScreenPointDetail
	ScreenRuns
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	summary     SummaryModel
	points      PointsModel
	pointDetail PointDetailModel
	runs        RunsModel
	help        HelpModel

	queryService *service.QueryService
	runID        string // selected run, empty for the latest

	// Window dimensions
	width  int
	height int

	status string
}

// NewApp creates a new App showing the latest run
func NewApp(queryService *service.QueryService) *App {
	return &App{
		screen:       ScreenSummary,
		queryService: queryService,
		summary:      NewSummaryModel(queryService, ""),
		points:       NewPointsModel(queryService, ""),
		runs:         NewRunsModel(queryService),
		help:         NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.summary.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.screen = ScreenSummary
			a.summary = NewSummaryModel(a.queryService, a.runID)
			return a, a.summary.Init()
		case "2":
			a.screen = ScreenPoints
			return a, a.points.Init()
		case "3":
			a.screen = ScreenRuns
			return a, a.runs.Init()
		case "?":
			if a.screen != ScreenHelp {
				a.prevScreen = a.screen
			}
			a.screen = ScreenHelp
			return a, nil
		case "esc":
			switch a.screen {
			case ScreenHelp:
				a.screen = a.prevScreen
				return a, nil
			case ScreenPointDetail:
				a.screen = ScreenPoints
				return a, nil
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenPointDetailMsg:
		a.screen = ScreenPointDetail
		a.pointDetail = NewPointDetailModel(a.queryService, msg.Point, a.width, a.height)
		return a, a.pointDetail.Init()

	case SelectRunMsg:
		a.runID = msg.RunID
		a.status = "Viewing run " + shortID(msg.RunID)
		a.screen = ScreenSummary
		a.summary = NewSummaryModel(a.queryService, a.runID)
		a.points = NewPointsModel(a.queryService, a.runID)
		return a, a.summary.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenSummary:
		var m tea.Model
		m, cmd = a.summary.Update(msg)
		a.summary = m.(SummaryModel)
	case ScreenPoints:
		var m tea.Model
		m, cmd = a.points.Update(msg)
		a.points = m.(PointsModel)
	case ScreenPointDetail:
		var m tea.Model
		m, cmd = a.pointDetail.Update(msg)
		a.pointDetail = m.(PointDetailModel)
	case ScreenRuns:
		var m tea.Model
		m, cmd = a.runs.Update(msg)
		a.runs = m.(RunsModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderTabs()

	var content string
	switch a.screen {
	case ScreenSummary:
		content = a.summary.View()
	case ScreenPoints:
		content = a.points.View()
	case ScreenPointDetail:
		content = a.pointDetail.View()
	case ScreenRuns:
		content = a.runs.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Court Kinetics")
}

func (a *App) renderTabs() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Summary", ScreenSummary},
		{"2", "Points", ScreenPoints},
		{"3", "Runs", ScreenRuns},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen || (item.screen == ScreenPoints && a.screen == ScreenPointDetail)
		if active {
			nav += tabActiveStyle.Render(label)
		} else {
			nav += tabStyle.Render(label)
		}
	}

	nav += "  " + tabStyle.Render("[q] Quit")

	return tabBarStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// OpenPointDetailMsg is sent when a point is selected in the list
type OpenPointDetailMsg struct {
	Point service.PointSummary
}

// SelectRunMsg is sent when a stored run is chosen
type SelectRunMsg struct {
	RunID string
}
