package routes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"navcheck/internal/aggregate"
	"navcheck/internal/logging"
	"navcheck/internal/sim"
)

// Status is the outcome of verifying one route.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Accessibility issue texts.
const (
	IssueMissingBreadcrumbs = "Expected breadcrumbs not found"
	IssueMissingAltText     = "Missing alt text on images"
	IssueMissingAriaLabels  = "Missing ARIA labels on interactive elements"
	IssueLowContrast        = "Insufficient color contrast ratio"
	IssueTradingKeyboard    = "Complex trading interface may need additional keyboard navigation"
	IssueRouteTestFailed    = "Route test failed"
)

// Record is the result of verifying one route during a pass.
type Record struct {
	Path                string   `json:"path"`
	Status              Status   `json:"status"`
	Error               string   `json:"error,omitempty"`
	BreadcrumbsPresent  bool     `json:"breadcrumbs_present"`
	ChildLinks          []string `json:"child_links"`
	LoadTimeMs          *float64 `json:"load_time_ms,omitempty"`
	AccessibilityIssues []string `json:"accessibility_issues"`
	ResponseCode        *int     `json:"response_code,omitempty"`
}

// PathIssues lists the accessibility issues found on one route.
type PathIssues struct {
	Path   string   `json:"path"`
	Issues []string `json:"issues"`
}

// PathTiming is the load time measured for one route.
type PathTiming struct {
	Path       string  `json:"path"`
	LoadTimeMs float64 `json:"load_time_ms"`
}

// Summary holds the aggregate figures of a pass.
type Summary struct {
	TotalRoutes       int     `json:"total_routes"`
	SuccessfulRoutes  int     `json:"successful_routes"`
	FailedRoutes      int     `json:"failed_routes"`
	WarningRoutes     int     `json:"warning_routes"`
	AverageLoadTimeMs float64 `json:"average_load_time_ms"`
}

// Report is the summary plus every record of the current pass.
type Report struct {
	Summary Summary  `json:"summary"`
	Details []Record `json:"details"`
}

// Verifier owns the record collection of the current verification pass.
// It is safe for concurrent use; calls are serialised.
type Verifier struct {
	mu       sync.Mutex
	registry *Registry
	rand     sim.Rand
	clock    sim.Clock
	prober   StatusProber
	probs    Probabilities

	results map[string]Record
	configs map[string]RouteConfig
	order   []string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithRand sets the random source used by simulated checks.
func WithRand(r sim.Rand) Option { return func(v *Verifier) { v.rand = r } }

// WithClock sets the clock used to time each check.
func WithClock(c sim.Clock) Option { return func(v *Verifier) { v.clock = c } }

// WithProber replaces the simulated response-code source.
func WithProber(p StatusProber) Option { return func(v *Verifier) { v.prober = p } }

// WithProbabilities overrides the simulated fault rates.
func WithProbabilities(p Probabilities) Option { return func(v *Verifier) { v.probs = p } }

// NewVerifier creates a verifier over reg.
func NewVerifier(reg *Registry, opts ...Option) *Verifier {
	v := &Verifier{
		registry: reg,
		clock:    sim.SystemClock{},
		probs:    DefaultProbabilities(),
		results:  make(map[string]Record),
		configs:  make(map[string]RouteConfig),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.rand == nil {
		v.rand = sim.NewRand(0)
	}
	if v.prober == nil {
		v.prober = SimulatedProber{Rand: v.rand, Probabilities: v.probs}
	}
	return v
}

// Registry returns the route table being verified.
func (v *Verifier) Registry() *Registry { return v.registry }

// RunFullVerification replaces the previous pass with a new one and returns
// its records in traversal order: each registered route, then its known
// children depth-first, then the dynamic samples. A path is verified at most
// once per pass.
func (v *Verifier) RunFullVerification(ctx context.Context) []Record {
	timer := logging.StartTimer(logging.CategoryRoutes, "RunFullVerification")
	defer timer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.results = make(map[string]Record)
	v.configs = make(map[string]RouteConfig)
	v.order = nil

	visited := make(map[string]bool)
	for _, cfg := range v.registry.Routes() {
		v.visit(ctx, cfg, visited)
	}
	for _, d := range v.registry.Dynamic() {
		cfg := d.Config()
		if visited[cfg.Path] {
			continue
		}
		visited[cfg.Path] = true
		v.verifyLocked(ctx, cfg)
	}

	out := v.resultsLocked()
	logging.Routes("Verification pass complete: %d routes, %d failed",
		len(out), aggregate.Count(out, isStatus(StatusError)))
	return out
}

func (v *Verifier) visit(ctx context.Context, cfg RouteConfig, visited map[string]bool) {
	if visited[cfg.Path] {
		return
	}
	visited[cfg.Path] = true
	v.verifyLocked(ctx, cfg)

	for _, child := range cfg.ChildRoutes {
		childCfg, ok := v.registry.Lookup(child)
		if !ok {
			logging.RoutesDebug("Child %s of %s is not registered, skipping", child, cfg.Path)
			continue
		}
		v.visit(ctx, childCfg, visited)
	}
}

// VerifyRoute verifies a single route outside of a pass and stores the result,
// replacing any earlier record for the same path.
func (v *Verifier) VerifyRoute(ctx context.Context, cfg RouteConfig) Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verifyLocked(ctx, cfg)
}

func (v *Verifier) verifyLocked(ctx context.Context, cfg RouteConfig) Record {
	start := v.clock.Now()
	rec, err := v.performCheck(ctx, cfg)
	if err != nil {
		logging.RoutesWarn("Route %s check failed: %v", cfg.Path, err)
		rec = Record{
			Path:                cfg.Path,
			Status:              StatusError,
			Error:               err.Error(),
			ChildLinks:          []string{},
			AccessibilityIssues: []string{IssueRouteTestFailed},
		}
	} else {
		ms := sim.Millis(v.clock.Now().Sub(start))
		rec.LoadTimeMs = &ms
	}

	if _, seen := v.results[cfg.Path]; !seen {
		v.order = append(v.order, cfg.Path)
	}
	v.results[cfg.Path] = rec
	v.configs[cfg.Path] = cfg
	logging.RoutesDebug("Verified %s: status=%s", cfg.Path, rec.Status)
	return rec
}

// performCheck runs the checks for one route. A panic in any check is
// returned as an error so the pass can continue.
func (v *Verifier) performCheck(ctx context.Context, cfg RouteConfig) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route check panicked: %v", r)
		}
	}()

	status := StatusSuccess
	var errMsg string
	issues := []string{}

	if !v.registry.Contains(cfg.Path) && !cfg.Parameterized() {
		status = StatusError
		errMsg = "Route not found in configuration"
	}

	present := breadcrumbsPresent(cfg)
	if cfg.WantsBreadcrumbs() && !present {
		issues = append(issues, IssueMissingBreadcrumbs)
		if status == StatusSuccess {
			status = StatusWarning
		}
	}

	issues = append(issues, v.accessibilityChecks(cfg)...)

	code, err := v.prober.Probe(ctx, cfg)
	if err != nil {
		return Record{}, fmt.Errorf("probe %s: %w", cfg.Path, err)
	}
	if code >= 400 {
		status = StatusError
		errMsg = fmt.Sprintf("HTTP %d error", code)
	}

	return Record{
		Path:                cfg.Path,
		Status:              status,
		Error:               errMsg,
		BreadcrumbsPresent:  present,
		ChildLinks:          append([]string{}, cfg.ChildRoutes...),
		AccessibilityIssues: issues,
		ResponseCode:        &code,
	}, nil
}

// breadcrumbsPresent: never on the root page, otherwise unless the route opts out.
func breadcrumbsPresent(cfg RouteConfig) bool {
	if cfg.Path == "/" {
		return false
	}
	depth := 0
	for _, seg := range strings.Split(cfg.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	optedOut := cfg.ExpectedBreadcrumbs != nil && !*cfg.ExpectedBreadcrumbs
	return depth > 0 && !optedOut
}

func (v *Verifier) accessibilityChecks(cfg RouteConfig) []string {
	var issues []string
	if sim.Chance(v.rand, v.probs.MissingAltText) {
		issues = append(issues, IssueMissingAltText)
	}
	if sim.Chance(v.rand, v.probs.MissingAriaLabels) {
		issues = append(issues, IssueMissingAriaLabels)
	}
	if sim.Chance(v.rand, v.probs.LowContrast) {
		issues = append(issues, IssueLowContrast)
	}
	if strings.Contains(cfg.Path, "trading") && sim.Chance(v.rand, v.probs.TradingKeyboard) {
		issues = append(issues, IssueTradingKeyboard)
	}
	return issues
}

func isStatus(s Status) func(Record) bool {
	return func(r Record) bool { return r.Status == s }
}

func (v *Verifier) resultsLocked() []Record {
	out := make([]Record, 0, len(v.order))
	for _, p := range v.order {
		out = append(out, v.results[p])
	}
	return out
}

// Results returns the records of the current pass in traversal order.
func (v *Verifier) Results() []Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resultsLocked()
}

// FailedRoutes returns records with error status.
func (v *Verifier) FailedRoutes() []Record {
	return aggregate.Filter(v.Results(), isStatus(StatusError))
}

// WarningRoutes returns records with warning status.
func (v *Verifier) WarningRoutes() []Record {
	return aggregate.Filter(v.Results(), isStatus(StatusWarning))
}

// MissingBreadcrumbs returns routes whose configuration expected breadcrumbs
// that the verification did not find.
func (v *Verifier) MissingBreadcrumbs() []Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.Filter(v.resultsLocked(), func(r Record) bool {
		cfg, ok := v.configs[r.Path]
		return ok && cfg.WantsBreadcrumbs() && !r.BreadcrumbsPresent
	})
}

// AccessibilityIssues returns the routes with at least one issue.
func (v *Verifier) AccessibilityIssues() []PathIssues {
	var out []PathIssues
	for _, r := range v.Results() {
		if len(r.AccessibilityIssues) > 0 {
			out = append(out, PathIssues{Path: r.Path, Issues: r.AccessibilityIssues})
		}
	}
	return out
}

// PerformanceMetrics returns every timed route, slowest first.
func (v *Verifier) PerformanceMetrics() []PathTiming {
	var timed []PathTiming
	for _, r := range v.Results() {
		if r.LoadTimeMs != nil {
			timed = append(timed, PathTiming{Path: r.Path, LoadTimeMs: *r.LoadTimeMs})
		}
	}
	return aggregate.SortedBy(timed, func(a, b PathTiming) bool { return a.LoadTimeMs > b.LoadTimeMs })
}

// GenerateReport folds the current pass into a report.
func (v *Verifier) GenerateReport() Report {
	return BuildReport(v.Results())
}

// BuildReport summarises a set of records.
func BuildReport(records []Record) Report {
	return Report{
		Summary: Summary{
			TotalRoutes:      len(records),
			SuccessfulRoutes: aggregate.Count(records, isStatus(StatusSuccess)),
			FailedRoutes:     aggregate.Count(records, isStatus(StatusError)),
			WarningRoutes:    aggregate.Count(records, isStatus(StatusWarning)),
			AverageLoadTimeMs: aggregate.Mean(records, func(r Record) (float64, bool) {
				return aggregate.Deref(r.LoadTimeMs)
			}),
		},
		Details: records,
	}
}
