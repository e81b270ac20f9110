// Package report combines a route verification pass and the link cache into
// a single navigation report and renders it for terminals and archives.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"navcheck/internal/aggregate"
	"navcheck/internal/links"
	"navcheck/internal/routes"
)

// Overall is the headline status of a navigation report.
type Overall string

const (
	OverallSuccess Overall = "success"
	OverallWarning Overall = "warning"
	OverallError   Overall = "error"
)

// Navigation is one complete report: the route pass and the link results
// taken at the same moment.
type Navigation struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Routes      routes.Report `json:"routes"`
	Links       links.Report  `json:"links"`
}

// Build snapshots both verifiers. Either may be nil.
func Build(rv *routes.Verifier, lv *links.Verifier) Navigation {
	n := Navigation{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Routes:      routes.BuildReport([]routes.Record{}),
		Links:       links.BuildReport([]links.Record{}),
	}
	if rv != nil {
		n.Routes = rv.GenerateReport()
	}
	if lv != nil {
		n.Links = lv.GenerateReport()
	}
	return n
}

// OverallStatus is error if any route failed or link is invalid, warning if
// any route warned or any link is slow or redirected, success otherwise.
func (n Navigation) OverallStatus() Overall {
	r, l := n.Routes.Summary, n.Links.Summary
	switch {
	case r.FailedRoutes > 0 || l.InvalidLinks > 0:
		return OverallError
	case r.WarningRoutes > 0 || l.SlowLinks > 0 || l.RedirectLinks > 0:
		return OverallWarning
	default:
		return OverallSuccess
	}
}

// Markdown renders the report as three sections: navigation, links and
// performance.
func Markdown(n Navigation) string {
	var sb strings.Builder
	r, l := n.Routes.Summary, n.Links.Summary

	fmt.Fprintf(&sb, "# Navigation Report\n\n")
	fmt.Fprintf(&sb, "Run `%s` at %s. Overall status: **%s**.\n\n",
		n.RunID, n.GeneratedAt.Format(time.RFC3339), n.OverallStatus())

	sb.WriteString("## Navigation\n\n")
	fmt.Fprintf(&sb, "%d routes: %d passed, %d warnings, %d failed.\n\n",
		r.TotalRoutes, r.SuccessfulRoutes, r.WarningRoutes, r.FailedRoutes)
	if len(n.Routes.Details) > 0 {
		sb.WriteString("| Route | Status | Code | Breadcrumbs | Issues |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, rec := range n.Routes.Details {
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s |\n",
				cell(rec.Path), rec.Status, intOrDash(rec.ResponseCode), yesNo(rec.BreadcrumbsPresent),
				cell(joinOrDash(append(errorList(rec.Error), rec.AccessibilityIssues...))))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Links\n\n")
	fmt.Fprintf(&sb, "%d links: %d valid, %d invalid, %d external, %d redirects, %d slow.\n\n",
		l.TotalLinks, l.ValidLinks, l.InvalidLinks, l.ExternalLinks, l.RedirectLinks, l.SlowLinks)
	if len(n.Links.Details) > 0 {
		sb.WriteString("| Link | Status | Code | Notes |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, rec := range n.Links.Details {
			notes := errorList(rec.Error)
			if rec.RedirectURL != "" {
				notes = append(notes, "redirects to "+rec.RedirectURL)
			}
			if rec.Accessibility != nil {
				notes = append(notes, rec.Accessibility.Issues()...)
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n",
				cell(rec.URL), rec.Status, intOrDash(rec.StatusCode), cell(joinOrDash(notes)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Performance\n\n")
	fmt.Fprintf(&sb, "- Average route load time: %.2f ms\n", r.AverageLoadTimeMs)
	fmt.Fprintf(&sb, "- Average link response time: %.2f ms\n", l.AverageResponseTimeMs)
	if slowest := slowestRoutes(n.Routes.Details, 5); len(slowest) > 0 {
		sb.WriteString("\nSlowest routes:\n\n")
		for i, rec := range slowest {
			fmt.Fprintf(&sb, "%d. `%s` %.2f ms\n", i+1, rec.Path, *rec.LoadTimeMs)
		}
	}
	return sb.String()
}

// RenderTerminal renders the markdown report for a terminal.
func RenderTerminal(n Navigation, wordWrap int) (string, error) {
	if wordWrap <= 0 {
		wordWrap = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(Markdown(n))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

func slowestRoutes(records []routes.Record, limit int) []routes.Record {
	timed := aggregate.Filter(records, func(r routes.Record) bool { return r.LoadTimeMs != nil })
	timed = aggregate.SortedBy(timed, func(a, b routes.Record) bool { return *a.LoadTimeMs > *b.LoadTimeMs })
	if len(timed) > limit {
		timed = timed[:limit]
	}
	return timed
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func errorList(msg string) []string {
	if msg == "" {
		return nil
	}
	return []string{msg}
}

// cell escapes pipes so a value stays inside its table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "; ")
}
