package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"navcheck/internal/report"
)

// Tab identifies a dashboard view.
type Tab int

const (
	TabNavigation Tab = iota
	TabLinks
	TabPerformance
	tabCount
)

var tabTitles = [...]string{"Navigation", "Links", "Performance"}

func (t Tab) String() string { return tabTitles[t] }

const runningMessage = "Running comprehensive navigation tests..."

// RunFunc performs one complete route and link pass.
type RunFunc func(ctx context.Context) (report.Navigation, error)

type reportMsg struct {
	nav report.Navigation
	err error
}

// Dashboard is the bubbletea model of the navigation test page.
type Dashboard struct {
	ctx      context.Context
	run      RunFunc
	spinner  spinner.Model
	viewport viewport.Model
	styles   Styles

	width  int
	height int

	activeTab Tab
	running   bool
	runs      int
	nav       *report.Navigation
	err       error
}

// NewDashboard creates the dashboard; Init starts the first pass.
func NewDashboard(ctx context.Context, run RunFunc, styles Styles) Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	return Dashboard{
		ctx:      ctx,
		run:      run,
		spinner:  sp,
		viewport: vp,
		styles:   styles,
		running:  true,
	}
}

// Init starts the spinner and the first pass.
func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCmd())
}

func (m Dashboard) runCmd() tea.Cmd {
	ctx, run := m.ctx, m.run
	return func() tea.Msg {
		nav, err := run(ctx)
		return reportMsg{nav: nav, err: err}
	}
}

// Update handles messages.
func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.refresh()
			return m, nil
		case "shift+tab", "left":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			m.refresh()
			return m, nil
		case "r":
			if m.running {
				return m, nil
			}
			m.running = true
			return m, tea.Batch(m.spinner.Tick, m.runCmd())
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-6, 1)
		m.refresh()
		return m, nil

	case reportMsg:
		m.running = false
		m.runs++
		m.err = msg.err
		if msg.err == nil {
			nav := msg.nav
			m.nav = &nav
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh renders the active tab into the viewport.
func (m *Dashboard) refresh() {
	m.viewport.SetContent(m.tabContent())
	m.viewport.GotoTop()
}

func (m Dashboard) tabContent() string {
	if m.err != nil {
		return m.styles.Error.Render("Navigation test failed: " + m.err.Error())
	}
	if m.nav == nil {
		return ""
	}

	n := *m.nav
	switch m.activeTab {
	case TabLinks:
		l := n.Links.Summary
		head := fmt.Sprintf("%d links: %d valid, %d invalid, %d external, %d redirects, %d slow\n\n",
			l.TotalLinks, l.ValidLinks, l.InvalidLinks, l.ExternalLinks, l.RedirectLinks, l.SlowLinks)
		if len(n.Links.Details) == 0 {
			return head + m.styles.Muted.Render("No links checked.")
		}
		return head + LinkTable(n.Links.Details, m.styles)

	case TabPerformance:
		head := fmt.Sprintf("Average route load: %.1fms\nAverage link response: %.1fms\n\n",
			n.Routes.Summary.AverageLoadTimeMs, n.Links.Summary.AverageResponseTimeMs)
		return head + PerformanceTable(n.Routes.Details, m.styles)

	default:
		r := n.Routes.Summary
		head := fmt.Sprintf("%d routes: %s, %s, %s\n\n", r.TotalRoutes,
			m.styles.Success.Render(fmt.Sprintf("%d passed", r.SuccessfulRoutes)),
			m.styles.Warning.Render(fmt.Sprintf("%d warnings", r.WarningRoutes)),
			m.styles.Error.Render(fmt.Sprintf("%d failed", r.FailedRoutes)))
		return head + RouteTable(n.Routes.Details, m.styles)
	}
}

// View renders the page.
func (m Dashboard) View() string {
	var sb strings.Builder

	title := "Navigation Test"
	if m.nav != nil {
		status := string(m.nav.OverallStatus())
		title += "  " + m.styles.ForStatus(status).Render(status)
	}
	sb.WriteString(m.styles.Header.Render(title) + "\n\n")

	tabs := make([]string, 0, tabCount*2)
	for t := Tab(0); t < tabCount; t++ {
		style := m.styles.Tab
		if t == m.activeTab {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(t.String()), " ")
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	if m.running {
		sb.WriteString(m.spinner.View() + " " + runningMessage + "\n")
	} else {
		sb.WriteString(m.viewport.View() + "\n")
	}

	sb.WriteString(m.styles.Footer.Render("tab/←/→ switch view • r re-run • q quit"))
	return sb.String()
}

// ActiveTab returns the selected tab.
func (m Dashboard) ActiveTab() Tab { return m.activeTab }

// Running reports whether a pass is in flight.
func (m Dashboard) Running() bool { return m.running }

// RunDashboard starts the dashboard in the alternate screen and blocks until
// the user quits.
func RunDashboard(ctx context.Context, run RunFunc) error {
	p := tea.NewProgram(
		NewDashboard(ctx, run, DefaultStyles()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
