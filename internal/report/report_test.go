package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navcheck/internal/links"
	"navcheck/internal/routes"
	"navcheck/internal/sim"
)

func buildFixture(t *testing.T, linkURLs ...string) Navigation {
	t.Helper()
	rv := routes.NewVerifier(routes.DefaultRegistry(),
		routes.WithRand(sim.Never()),
		routes.WithClock(sim.NewStepClock(time.Millisecond)))
	rv.RunFullVerification(context.Background())

	lv, err := links.NewVerifier(links.WithClock(sim.NewStepClock(2 * time.Millisecond)))
	require.NoError(t, err)
	lv.CheckMultipleLinks(context.Background(), linkURLs)

	return Build(rv, lv)
}

func TestBuild(t *testing.T) {
	n := buildFixture(t, "/markets", "https://github.com/example/repo")

	_, err := uuid.Parse(n.RunID)
	assert.NoError(t, err, "run id should be a uuid")
	assert.False(t, n.GeneratedAt.IsZero())
	assert.Equal(t, 14, n.Routes.Summary.TotalRoutes)
	assert.Equal(t, 2, n.Links.Summary.TotalLinks)
	assert.InDelta(t, 2.0, n.Links.Summary.AverageResponseTimeMs, 1e-9)
}

func TestBuildWithoutVerifiers(t *testing.T) {
	n := Build(nil, nil)
	assert.Zero(t, n.Routes.Summary.TotalRoutes)
	assert.Empty(t, n.Links.Details)
	assert.Equal(t, OverallSuccess, n.OverallStatus())
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name string
		r    routes.Summary
		l    links.Summary
		want Overall
	}{
		{"clean", routes.Summary{TotalRoutes: 3, SuccessfulRoutes: 3}, links.Summary{TotalLinks: 1, ValidLinks: 1}, OverallSuccess},
		{"route warning", routes.Summary{WarningRoutes: 1}, links.Summary{}, OverallWarning},
		{"slow link", routes.Summary{}, links.Summary{SlowLinks: 1}, OverallWarning},
		{"redirect link", routes.Summary{}, links.Summary{RedirectLinks: 1}, OverallWarning},
		{"failed route", routes.Summary{FailedRoutes: 1, WarningRoutes: 2}, links.Summary{}, OverallError},
		{"invalid link", routes.Summary{}, links.Summary{InvalidLinks: 1, SlowLinks: 1}, OverallError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Navigation{Routes: routes.Report{Summary: tt.r}, Links: links.Report{Summary: tt.l}}
			assert.Equal(t, tt.want, n.OverallStatus())
		})
	}
}

func TestMarkdown(t *testing.T) {
	n := buildFixture(t, "/markets", "/legacy/news", "/nope")
	md := Markdown(n)

	for _, want := range []string{
		"# Navigation Report",
		"## Navigation",
		"## Links",
		"## Performance",
		"14 routes: 14 passed, 0 warnings, 0 failed.",
		"| `/creator/TMFS` | success | 200 | yes | - |",
		"redirects to /news",
		"| `/nope` | invalid | 404 | Route not found; Missing alt text; Missing ARIA label; Not keyboard accessible |",
		"Overall status: **error**",
		"Slowest routes:",
	} {
		assert.Contains(t, md, want)
	}
	assert.Equal(t, 5, strings.Count(md, " ms\n")-2, "top five slowest routes listed")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	n := buildFixture(t, "/a|b")
	md := Markdown(n)

	assert.Contains(t, md, "| `/a\\|b` | invalid | 404 | Route not found;")
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "| `/a") {
			assert.Equal(t, 5, strings.Count(line, "|")-strings.Count(line, `\|`), line)
		}
	}
}

func TestRenderTerminal(t *testing.T) {
	n := buildFixture(t, "/markets")
	out, err := RenderTerminal(n, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "Navigation Report")
	assert.Contains(t, out, "Performance")
}
