// Package links classifies the dashboard's links as valid internal routes,
// external references, redirects or broken paths, and memoizes each result
// until the cache is cleared.
package links

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"navcheck/internal/aggregate"
	"navcheck/internal/logging"
	"navcheck/internal/sim"
)

// Status classifies a checked link.
type Status string

const (
	StatusValid    Status = "valid"
	StatusInvalid  Status = "invalid"
	StatusExternal Status = "external"
	StatusRedirect Status = "redirect"
	StatusSlow     Status = "slow"
)

const (
	// DefaultOrigin is the dashboard's development server.
	DefaultOrigin = "http://localhost:5173"
	// DefaultSlowThreshold is the check duration above which a link is slow.
	DefaultSlowThreshold = 3 * time.Second
)

// DefaultKnownRoutes are the internal routes accepted without a rule.
var DefaultKnownRoutes = []string{
	"/", "/markets", "/market-index", "/price-trends", "/portfolio",
	"/trading", "/news", "/learn", "/research", "/navigation-test",
}

// DefaultTrustedDomains are external hosts presumed accessible.
var DefaultTrustedDomains = []string{
	"images.unsplash.com",
	"unsplash.com",
	"github.com",
	"stackoverflow.com",
	"developer.mozilla.org",
}

// Accessibility describes what is known about the link target's markup.
type Accessibility struct {
	HasAltText           bool `json:"has_alt_text"`
	HasAriaLabel         bool `json:"has_aria_label"`
	IsKeyboardAccessible bool `json:"is_keyboard_accessible"`
}

// Issues lists the missing properties.
func (a Accessibility) Issues() []string {
	var issues []string
	if !a.HasAltText {
		issues = append(issues, "Missing alt text")
	}
	if !a.HasAriaLabel {
		issues = append(issues, "Missing ARIA label")
	}
	if !a.IsKeyboardAccessible {
		issues = append(issues, "Not keyboard accessible")
	}
	return issues
}

// Record is the cached result of checking one URL.
type Record struct {
	URL            string         `json:"url"`
	Status         Status         `json:"status"`
	StatusCode     *int           `json:"status_code,omitempty"`
	Error          string         `json:"error,omitempty"`
	ResponseTimeMs *float64       `json:"response_time_ms,omitempty"`
	RedirectURL    string         `json:"redirect_url,omitempty"`
	Accessibility  *Accessibility `json:"accessibility,omitempty"`
}

// URLIssues lists the accessibility issues of one link.
type URLIssues struct {
	URL    string   `json:"url"`
	Issues []string `json:"issues"`
}

// Summary holds the aggregate figures of the cache.
type Summary struct {
	TotalLinks            int     `json:"total_links"`
	ValidLinks            int     `json:"valid_links"`
	InvalidLinks          int     `json:"invalid_links"`
	ExternalLinks         int     `json:"external_links"`
	RedirectLinks         int     `json:"redirect_links"`
	SlowLinks             int     `json:"slow_links"`
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
}

// Report is the summary plus every cached record.
type Report struct {
	Summary Summary  `json:"summary"`
	Details []Record `json:"details"`
}

// Verifier checks links and caches the results by URL. It is safe for
// concurrent use; checks and rule evaluation are serialised.
type Verifier struct {
	mu            sync.Mutex
	origin        *url.URL
	clock         sim.Clock
	slowThreshold time.Duration
	known         map[string]bool
	rules         []ValidationRule
	trusted       []string
	source        LinkSource

	cache map[string]Record
	order []string
}

// Option configures a Verifier.
type Option func(*Verifier) error

// WithOrigin sets the application origin that internal links resolve against.
func WithOrigin(origin string) Option {
	return func(v *Verifier) error {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid origin %q", origin)
		}
		v.origin = &url.URL{Scheme: strings.ToLower(u.Scheme), Host: originHost(u)}
		return nil
	}
}

// WithClock sets the clock used to time each check.
func WithClock(c sim.Clock) Option {
	return func(v *Verifier) error { v.clock = c; return nil }
}

// WithSlowThreshold overrides the slow classification threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(v *Verifier) error {
		if d <= 0 {
			return fmt.Errorf("slow threshold must be positive, got %v", d)
		}
		v.slowThreshold = d
		return nil
	}
}

// WithKnownRoutes replaces the list of internal routes accepted as-is.
func WithKnownRoutes(paths []string) Option {
	return func(v *Verifier) error {
		v.known = make(map[string]bool, len(paths))
		for _, p := range paths {
			v.known[p] = true
		}
		return nil
	}
}

// WithRules replaces the validation rules.
func WithRules(rules []ValidationRule) Option {
	return func(v *Verifier) error {
		v.rules = append([]ValidationRule(nil), rules...)
		return nil
	}
}

// WithTrustedDomains replaces the trusted domain list.
func WithTrustedDomains(domains []string) Option {
	return func(v *Verifier) error {
		v.trusted = append([]string(nil), domains...)
		return nil
	}
}

// WithLinkSource sets the source used by ScanPageForLinks.
func WithLinkSource(s LinkSource) Option {
	return func(v *Verifier) error {
		if s == nil {
			return fmt.Errorf("link source must not be nil")
		}
		v.source = s
		return nil
	}
}

// NewVerifier creates a link verifier with the dashboard defaults.
func NewVerifier(opts ...Option) (*Verifier, error) {
	origin, _ := url.Parse(DefaultOrigin)
	v := &Verifier{
		origin:        origin,
		clock:         sim.SystemClock{},
		slowThreshold: DefaultSlowThreshold,
		rules:         DefaultRules(),
		trusted:       append([]string(nil), DefaultTrustedDomains...),
		source:        FixtureSource{},
		cache:         make(map[string]Record),
	}
	if err := WithKnownRoutes(DefaultKnownRoutes)(v); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Origin returns the application origin.
func (v *Verifier) Origin() string { return v.origin.String() }

// CheckLink classifies raw, returning the cached record if it was checked
// before.
func (v *Verifier) CheckLink(ctx context.Context, raw string) Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checkLocked(ctx, raw)
}

func (v *Verifier) checkLocked(_ context.Context, raw string) Record {
	if rec, ok := v.cache[raw]; ok {
		logging.LinksDebug("Cache hit for %s", raw)
		return rec
	}

	start := v.clock.Now()
	rec, panicked := v.classify(raw)
	if !panicked {
		elapsed := v.clock.Now().Sub(start)
		ms := sim.Millis(elapsed)
		rec.ResponseTimeMs = &ms
		if elapsed > v.slowThreshold {
			logging.LinksWarn("Link %s took %v (threshold %v)", raw, elapsed, v.slowThreshold)
			rec.Status = StatusSlow
		}
	}

	v.cache[raw] = rec
	v.order = append(v.order, raw)
	logging.LinksDebug("Checked %s: status=%s", raw, rec.Status)
	return rec
}

// classify runs the classification; a panic yields an invalid record with
// zero response time.
func (v *Verifier) classify(raw string) (rec Record, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			zero := 0.0
			rec = Record{
				URL:            raw,
				Status:         StatusInvalid,
				Error:          fmt.Sprint(r),
				ResponseTimeMs: &zero,
			}
			panicked = true
		}
	}()

	ref, err := url.Parse(raw)
	if err != nil {
		return invalidFormat(raw), false
	}
	resolved := v.origin.ResolveReference(ref)
	if !v.sameOrigin(resolved) {
		return v.checkExternal(raw, resolved), false
	}
	return v.checkInternal(raw, resolved), false
}

func (v *Verifier) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, v.origin.Scheme) && originHost(u) == v.origin.Host
}

// originHost returns the lower-cased host of u with the scheme's default
// port dropped.
func originHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "80" && strings.EqualFold(u.Scheme, "http"),
		port == "443" && strings.EqualFold(u.Scheme, "https"):
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return host
}

func invalidFormat(raw string) Record {
	return Record{URL: raw, Status: StatusInvalid, Error: "Invalid URL format"}
}

func (v *Verifier) checkExternal(raw string, u *url.URL) Record {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return invalidFormat(raw)
	}
	trusted := v.isTrusted(host)
	return Record{
		URL:        raw,
		Status:     StatusExternal,
		StatusCode: code(http.StatusOK),
		Accessibility: &Accessibility{
			HasAltText:           trusted,
			HasAriaLabel:         trusted,
			IsKeyboardAccessible: trusted,
		},
	}
}

func (v *Verifier) isTrusted(host string) bool {
	for _, d := range v.trusted {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (v *Verifier) checkInternal(raw string, u *url.URL) Record {
	path := u.Path
	if path == "" {
		path = "/"
	}

	if v.known[path] {
		return Record{
			URL:           raw,
			Status:        StatusValid,
			StatusCode:    code(http.StatusOK),
			Accessibility: &Accessibility{HasAltText: true, HasAriaLabel: true, IsKeyboardAccessible: true},
		}
	}

	for _, rule := range v.rules {
		if !rule.Matches(path) {
			continue
		}
		ok := rule.Validator != nil && rule.Validator(path)
		rec := Record{
			URL:           raw,
			Status:        StatusValid,
			StatusCode:    code(http.StatusOK),
			Accessibility: &Accessibility{HasAltText: ok, HasAriaLabel: ok, IsKeyboardAccessible: true},
		}
		if !ok {
			rec.Status = StatusInvalid
			rec.StatusCode = code(http.StatusNotFound)
			rec.Error = "Invalid " + rule.Description
		}
		return rec
	}

	if strings.Contains(path, "/old/") || strings.Contains(path, "/legacy/") {
		target := strings.Replace(raw, "/old/", "/", 1)
		target = strings.Replace(target, "/legacy/", "/", 1)
		return Record{
			URL:           raw,
			Status:        StatusRedirect,
			StatusCode:    code(http.StatusMovedPermanently),
			RedirectURL:   target,
			Accessibility: &Accessibility{IsKeyboardAccessible: true},
		}
	}

	return Record{
		URL:           raw,
		Status:        StatusInvalid,
		StatusCode:    code(http.StatusNotFound),
		Error:         "Route not found",
		Accessibility: &Accessibility{},
	}
}

func code(c int) *int { return &c }

// CheckMultipleLinks checks each URL in order. Repeated URLs are computed once.
func (v *Verifier) CheckMultipleLinks(ctx context.Context, urls []string) []Record {
	timer := logging.StartTimer(logging.CategoryLinks, "CheckMultipleLinks")
	defer timer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Record, len(urls))
	for i, u := range urls {
		out[i] = v.checkLocked(ctx, u)
	}
	logging.Links("Checked %d links (%d cached)", len(urls), len(v.cache))
	return out
}

// ScanPageForLinks extracts candidate links with the configured source.
func (v *Verifier) ScanPageForLinks(ctx context.Context, content string) ([]string, error) {
	v.mu.Lock()
	src := v.source
	v.mu.Unlock()

	found, err := src.ScanPage(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("scan page: %w", err)
	}
	logging.LinksDebug("Scanned page: %d links via %T", len(found), src)
	return found, nil
}

// Results returns every cached record in check order.
func (v *Verifier) Results() []Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Record, 0, len(v.order))
	for _, u := range v.order {
		out = append(out, v.cache[u])
	}
	return out
}

func isStatus(s Status) func(Record) bool {
	return func(r Record) bool { return r.Status == s }
}

// InvalidLinks returns invalid records.
func (v *Verifier) InvalidLinks() []Record { return aggregate.Filter(v.Results(), isStatus(StatusInvalid)) }

// SlowLinks returns slow records.
func (v *Verifier) SlowLinks() []Record { return aggregate.Filter(v.Results(), isStatus(StatusSlow)) }

// ExternalLinks returns external records.
func (v *Verifier) ExternalLinks() []Record {
	return aggregate.Filter(v.Results(), isStatus(StatusExternal))
}

// RedirectLinks returns redirect records.
func (v *Verifier) RedirectLinks() []Record {
	return aggregate.Filter(v.Results(), isStatus(StatusRedirect))
}

// AccessibilityIssues returns the links whose accessibility metadata is
// incomplete.
func (v *Verifier) AccessibilityIssues() []URLIssues {
	var out []URLIssues
	for _, r := range v.Results() {
		if r.Accessibility == nil {
			continue
		}
		if issues := r.Accessibility.Issues(); len(issues) > 0 {
			out = append(out, URLIssues{URL: r.URL, Issues: issues})
		}
	}
	return out
}

// GenerateReport folds the cache into a report.
func (v *Verifier) GenerateReport() Report {
	return BuildReport(v.Results())
}

// BuildReport summarises a set of link records.
func BuildReport(records []Record) Report {
	return Report{
		Summary: Summary{
			TotalLinks:    len(records),
			ValidLinks:    aggregate.Count(records, isStatus(StatusValid)),
			InvalidLinks:  aggregate.Count(records, isStatus(StatusInvalid)),
			ExternalLinks: aggregate.Count(records, isStatus(StatusExternal)),
			RedirectLinks: aggregate.Count(records, isStatus(StatusRedirect)),
			SlowLinks:     aggregate.Count(records, isStatus(StatusSlow)),
			AverageResponseTimeMs: aggregate.Mean(records, func(r Record) (float64, bool) {
				return aggregate.Deref(r.ResponseTimeMs)
			}),
		},
		Details: records,
	}
}

// ClearCache forgets every checked link.
func (v *Verifier) ClearCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = make(map[string]Record)
	v.order = nil
	logging.Links("Link cache cleared")
}

// AddValidationRule appends a rule. Earlier rules keep precedence.
func (v *Verifier) AddValidationRule(rule ValidationRule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules = append(v.rules, rule)
}

// AddTrustedDomain appends a trusted external domain.
func (v *Verifier) AddTrustedDomain(domain string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trusted = append(v.trusted, strings.TrimSpace(domain))
}

// TrustedDomains returns the current trusted domain list.
func (v *Verifier) TrustedDomains() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.trusted...)
}
