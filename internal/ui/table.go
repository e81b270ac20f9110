package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"navcheck/internal/aggregate"
	"navcheck/internal/links"
	"navcheck/internal/report"
	"navcheck/internal/routes"
)

// SimpleTable is a simple table component for rendering static data.
type SimpleTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewSimpleTable creates a new SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles. Cells are measured
// before styling so colored cells keep their columns aligned.
func (t *SimpleTable) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], lipgloss.Width(cell))
			}
		}
	}
	// padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sepStyle := styles.Muted

	for i, h := range t.Headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(t.Headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			sb.WriteString(rowStyle.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RouteTable lists route records.
func RouteTable(records []routes.Record, styles Styles) string {
	t := NewSimpleTable("Navigation", []string{"Path", "Status", "Code", "Breadcrumbs", "Children", "Load (ms)", "Issues"})
	for _, r := range records {
		issues := append([]string(nil), r.AccessibilityIssues...)
		if r.Error != "" {
			issues = append(issues, r.Error)
		}
		t.AddRow(
			r.Path,
			string(r.Status),
			intOrDash(r.ResponseCode),
			yesNo(r.BreadcrumbsPresent),
			strconv.Itoa(len(r.ChildLinks)),
			floatOrDash(r.LoadTimeMs),
			joinOrDash(issues),
		)
	}
	return t.View(styles)
}

// LinkTable lists link records.
func LinkTable(records []links.Record, styles Styles) string {
	t := NewSimpleTable("Links", []string{"URL", "Status", "Code", "Time (ms)", "Detail"})
	for _, r := range records {
		detail := r.Error
		if r.RedirectURL != "" {
			detail = "→ " + r.RedirectURL
		}
		if detail == "" && r.Accessibility != nil {
			detail = strings.Join(r.Accessibility.Issues(), ", ")
		}
		t.AddRow(r.URL, string(r.Status), intOrDash(r.StatusCode), floatOrDash(r.ResponseTimeMs), orDash(detail))
	}
	return t.View(styles)
}

// PerformanceTable lists route load times, slowest first.
func PerformanceTable(records []routes.Record, styles Styles) string {
	timed := aggregate.Filter(records, func(r routes.Record) bool { return r.LoadTimeMs != nil })
	timed = aggregate.SortedBy(timed, func(a, b routes.Record) bool { return *a.LoadTimeMs > *b.LoadTimeMs })

	t := NewSimpleTable("Performance", []string{"Path", "Load (ms)"})
	for _, r := range timed {
		t.AddRow(r.Path, floatOrDash(r.LoadTimeMs))
	}
	return t.View(styles)
}

// SummaryTable renders the headline counts of a navigation report followed by
// the route and link tables.
func SummaryTable(n report.Navigation, styles Styles) string {
	var sb strings.Builder
	r, l := n.Routes.Summary, n.Links.Summary
	overall := string(n.OverallStatus())

	sb.WriteString(styles.Bold.Render("Overall: "))
	sb.WriteString(styles.ForStatus(overall).Render(overall))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Routes: %d total, %s, %s, %s (avg %.1fms)\n",
		r.TotalRoutes,
		styles.Success.Render(fmt.Sprintf("%d passed", r.SuccessfulRoutes)),
		styles.Warning.Render(fmt.Sprintf("%d warnings", r.WarningRoutes)),
		styles.Error.Render(fmt.Sprintf("%d failed", r.FailedRoutes)),
		r.AverageLoadTimeMs)
	fmt.Fprintf(&sb, "Links:  %d total, %d valid, %d invalid, %d external, %d redirects, %d slow (avg %.1fms)\n\n",
		l.TotalLinks, l.ValidLinks, l.InvalidLinks, l.ExternalLinks, l.RedirectLinks, l.SlowLinks,
		l.AverageResponseTimeMs)

	if len(n.Routes.Details) > 0 {
		sb.WriteString(RouteTable(n.Routes.Details, styles))
		sb.WriteString("\n")
	}
	if len(n.Links.Details) > 0 {
		sb.WriteString(LinkTable(n.Links.Details, styles))
	}
	return sb.String()
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func floatOrDash(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *p)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string) string {
	return orDash(strings.Join(items, "; "))
}
