package links

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navcheck/internal/sim"
)

func newTestVerifier(t *testing.T, opts ...Option) *Verifier {
	t.Helper()
	base := []Option{WithClock(sim.NewStepClock(time.Millisecond))}
	v, err := NewVerifier(append(base, opts...)...)
	require.NoError(t, err)
	return v
}

func TestCheckLinkClassification(t *testing.T) {
	ctx := context.Background()
	all := &Accessibility{HasAltText: true, HasAriaLabel: true, IsKeyboardAccessible: true}

	tests := []struct {
		name     string
		url      string
		status   Status
		code     int
		errMsg   string
		redirect string
		access   *Accessibility
	}{
		{"known route", "/markets", StatusValid, 200, "", "", all},
		{"known route with query", "/markets?tab=hot", StatusValid, 200, "", "", all},
		{"absolute same origin", "http://localhost:5173/portfolio", StatusValid, 200, "", "", all},
		{"news rule", "/news/42", StatusValid, 200, "", "", all},
		{"news out of range", "/news/101", StatusInvalid, 404, "Invalid News article with valid ID", "",
			&Accessibility{IsKeyboardAccessible: true}},
		{"creator two letters", "/creator/AB", StatusValid, 200, "", "", all},
		{"creator one letter", "/creator/A", StatusInvalid, 404, "Invalid Creator page with valid symbol", "",
			&Accessibility{IsKeyboardAccessible: true}},
		{"trading sub-page", "/trading/options-desk", StatusValid, 200, "", "", all},
		{"legacy redirect", "/legacy/markets", StatusRedirect, 301, "", "/markets",
			&Accessibility{IsKeyboardAccessible: true}},
		{"old redirect", "/old/news/old/1", StatusRedirect, 301, "", "/news/old/1",
			&Accessibility{IsKeyboardAccessible: true}},
		{"unknown route", "/this-route-does-not-exist", StatusInvalid, 404, "Route not found", "", &Accessibility{}},
		{"trusted external", "https://github.com/example/repo", StatusExternal, 200, "", "", all},
		{"trusted subdomain", "https://gist.github.com/x", StatusExternal, 200, "", "", all},
		{"untrusted external", "https://evil-github.com/x", StatusExternal, 200, "", "", &Accessibility{}},
		{"other port is external", "http://localhost:8080/markets", StatusExternal, 200, "", "", &Accessibility{}},
		{"upper-case host", "http://LOCALHOST:5173/markets", StatusValid, 200, "", "", all},
		{"upper-case scheme", "HTTP://localhost:5173/markets", StatusValid, 200, "", "", all},
		{"other scheme is external", "https://localhost:5173/markets", StatusExternal, 200, "", "", &Accessibility{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(t)
			rec := v.CheckLink(ctx, tt.url)

			assert.Equal(t, tt.url, rec.URL)
			assert.Equal(t, tt.status, rec.Status)
			require.NotNil(t, rec.StatusCode)
			assert.Equal(t, tt.code, *rec.StatusCode)
			assert.Equal(t, tt.errMsg, rec.Error)
			assert.Equal(t, tt.redirect, rec.RedirectURL)
			if diff := cmp.Diff(tt.access, rec.Accessibility); diff != "" {
				t.Errorf("accessibility mismatch (-want +got):\n%s", diff)
			}
			require.NotNil(t, rec.ResponseTimeMs)
			assert.InDelta(t, 1.0, *rec.ResponseTimeMs, 1e-9)
		})
	}
}

func TestCheckLinkMalformed(t *testing.T) {
	v := newTestVerifier(t)
	for _, raw := range []string{"http://[::1", "https://"} {
		rec := v.CheckLink(context.Background(), raw)
		assert.Equal(t, StatusInvalid, rec.Status, raw)
		assert.Equal(t, "Invalid URL format", rec.Error, raw)
		assert.Nil(t, rec.StatusCode, raw)
	}
}

func TestCheckLinkIsMemoized(t *testing.T) {
	clock := sim.NewStepClock(time.Millisecond)
	v := newTestVerifier(t, WithClock(clock))
	ctx := context.Background()

	first := v.CheckLink(ctx, "/news/1")
	clock.Step = time.Hour
	second := v.CheckLink(ctx, "/news/1")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached record changed (-first +second):\n%s", diff)
	}
	assert.Len(t, v.Results(), 1)

	v.ClearCache()
	assert.Empty(t, v.Results())
	third := v.CheckLink(ctx, "/news/1")
	assert.Equal(t, StatusSlow, third.Status, "fresh check after clear")
}

func TestFirstMatchingRuleWins(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	// Matches /creator/A too, but the default creator rule comes first.
	v.AddValidationRule(ValidationRule{
		Pattern:     regexp.MustCompile(`^/creator/.+$`),
		Validator:   func(string) bool { return true },
		Description: "Anything goes",
	})
	rec := v.CheckLink(ctx, "/creator/A")
	assert.Equal(t, StatusInvalid, rec.Status)
	assert.Equal(t, "Invalid Creator page with valid symbol", rec.Error)

	// Only the appended rule matches lower-case symbols.
	rec = v.CheckLink(ctx, "/creator/abc")
	assert.Equal(t, StatusValid, rec.Status)
}

func TestFirstMatchingRuleWinsWithCustomRules(t *testing.T) {
	accept := ValidationRule{Pattern: regexp.MustCompile(`^/x/`), Validator: func(string) bool { return true }, Description: "accept"}
	reject := ValidationRule{Pattern: regexp.MustCompile(`^/x/`), Validator: func(string) bool { return false }, Description: "reject"}

	v := newTestVerifier(t, WithRules([]ValidationRule{reject}))
	v.AddValidationRule(accept)
	assert.Equal(t, StatusInvalid, v.CheckLink(context.Background(), "/x/1").Status)

	v = newTestVerifier(t, WithRules([]ValidationRule{accept}))
	v.AddValidationRule(reject)
	assert.Equal(t, StatusValid, v.CheckLink(context.Background(), "/x/1").Status)
}

func TestSlowOverridesClassification(t *testing.T) {
	v := newTestVerifier(t, WithClock(sim.NewStepClock(3001*time.Millisecond)))
	ctx := context.Background()

	for _, raw := range []string{"/markets", "/this-route-does-not-exist", "https://github.com/example/repo"} {
		rec := v.CheckLink(ctx, raw)
		assert.Equal(t, StatusSlow, rec.Status, raw)
		require.NotNil(t, rec.ResponseTimeMs)
		assert.InDelta(t, 3001.0, *rec.ResponseTimeMs, 1e-9)
	}
	assert.Len(t, v.SlowLinks(), 3)

	// exactly at the threshold is not slow
	v = newTestVerifier(t, WithClock(sim.NewStepClock(3*time.Second)))
	assert.Equal(t, StatusValid, v.CheckLink(ctx, "/markets").Status)
}

func TestValidatorPanicBecomesInvalidRecord(t *testing.T) {
	v := newTestVerifier(t, WithRules([]ValidationRule{{
		Pattern:     regexp.MustCompile(`^/boom$`),
		Validator:   func(string) bool { panic("validator exploded") },
		Description: "explosive",
	}}))

	rec := v.CheckLink(context.Background(), "/boom")
	assert.Equal(t, StatusInvalid, rec.Status)
	assert.Equal(t, "validator exploded", rec.Error)
	require.NotNil(t, rec.ResponseTimeMs)
	assert.Zero(t, *rec.ResponseTimeMs)

	// cached like any other result
	assert.Len(t, v.InvalidLinks(), 1)
}

func TestCheckMultipleLinks(t *testing.T) {
	v := newTestVerifier(t)
	urls := []string{"/markets", "/news/3", "/markets", "https://unsplash.com/p"}

	records := v.CheckMultipleLinks(context.Background(), urls)
	require.Len(t, records, 4)
	for i, rec := range records {
		assert.Equal(t, urls[i], rec.URL)
	}
	assert.Equal(t, records[0], records[2])
	assert.Len(t, v.Results(), 3)
}

func TestAddTrustedDomain(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	assert.False(t, v.CheckLink(ctx, "https://comics.example.org/a").Accessibility.HasAltText)
	v.AddTrustedDomain("example.org")
	v.ClearCache()
	assert.True(t, v.CheckLink(ctx, "https://comics.example.org/a").Accessibility.HasAltText)
	assert.Contains(t, v.TrustedDomains(), "example.org")
}

func TestAccessors(t *testing.T) {
	v := newTestVerifier(t)
	v.CheckMultipleLinks(context.Background(), []string{
		"/markets",
		"/nowhere",
		"/legacy/trading",
		"https://github.com/a",
		"https://example.net/b",
	})

	assert.Len(t, v.InvalidLinks(), 1)
	assert.Len(t, v.ExternalLinks(), 2)
	assert.Len(t, v.RedirectLinks(), 1)
	assert.Empty(t, v.SlowLinks())

	want := []URLIssues{
		{URL: "/nowhere", Issues: []string{"Missing alt text", "Missing ARIA label", "Not keyboard accessible"}},
		{URL: "/legacy/trading", Issues: []string{"Missing alt text", "Missing ARIA label"}},
		{URL: "https://example.net/b", Issues: []string{"Missing alt text", "Missing ARIA label", "Not keyboard accessible"}},
	}
	if diff := cmp.Diff(want, v.AccessibilityIssues()); diff != "" {
		t.Errorf("AccessibilityIssues() mismatch (-want +got):\n%s", diff)
	}

	rep := v.GenerateReport()
	assert.Equal(t, Summary{
		TotalLinks:            5,
		ValidLinks:            1,
		InvalidLinks:          1,
		ExternalLinks:         2,
		RedirectLinks:         1,
		AverageResponseTimeMs: 1,
	}, rep.Summary)
}

func TestScanPageForLinksDefaultsToFixture(t *testing.T) {
	v := newTestVerifier(t)
	found, err := v.ScanPageForLinks(context.Background(), "<html>ignored</html>")
	require.NoError(t, err)
	assert.Equal(t, DefaultFixtureLinks, found)

	records := v.CheckMultipleLinks(context.Background(), found)
	for _, rec := range records {
		assert.NotEqual(t, StatusInvalid, rec.Status, rec.URL)
	}
}

func TestNewVerifierRejectsBadOptions(t *testing.T) {
	_, err := NewVerifier(WithOrigin("not a url"))
	assert.Error(t, err)
	_, err = NewVerifier(WithSlowThreshold(0))
	assert.Error(t, err)

	_, err = NewVerifier(WithLinkSource(nil))
	assert.Error(t, err)

	v, err := NewVerifier(WithOrigin("https://comics.example.com/app"))
	require.NoError(t, err)
	assert.Equal(t, "https://comics.example.com", v.Origin())
}

func TestOriginDefaultPort(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		origin string
		url    string
		status Status
	}{
		{"explicit https port on link", "https://comics.example.com", "https://comics.example.com:443/markets", StatusValid},
		{"explicit https port on origin", "https://comics.example.com:443", "https://comics.example.com/markets", StatusValid},
		{"explicit http port on link", "http://comics.example.com", "http://COMICS.example.com:80/markets", StatusValid},
		{"http port on https link", "https://comics.example.com", "https://comics.example.com:80/markets", StatusExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVerifier(WithOrigin(tt.origin))
			require.NoError(t, err)
			assert.Equal(t, tt.status, v.CheckLink(ctx, tt.url).Status)
		})
	}

	v, err := NewVerifier(WithOrigin("https://Comics.Example.com:443"))
	require.NoError(t, err)
	assert.Equal(t, "https://comics.example.com", v.Origin())
}
