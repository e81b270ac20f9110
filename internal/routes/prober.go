package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"navcheck/internal/sim"
)

// Probabilities sets how often each simulated fault fires. Every check draws
// independently.
type Probabilities struct {
	MissingAltText    float64 `yaml:"missing_alt_text" json:"missing_alt_text"`
	MissingAriaLabels float64 `yaml:"missing_aria_labels" json:"missing_aria_labels"`
	LowContrast       float64 `yaml:"low_contrast" json:"low_contrast"`
	TradingKeyboard   float64 `yaml:"trading_keyboard" json:"trading_keyboard"`
	Unauthorized      float64 `yaml:"unauthorized" json:"unauthorized"`
	ServerError       float64 `yaml:"server_error" json:"server_error"`
}

// DefaultProbabilities returns the rates the dashboard's navigation page used.
func DefaultProbabilities() Probabilities {
	return Probabilities{
		MissingAltText:    0.10,
		MissingAriaLabels: 0.05,
		LowContrast:       0.03,
		TradingKeyboard:   0.15,
		Unauthorized:      0.10,
		ServerError:       0.02,
	}
}

// StatusProber decides the response code a visit to a route produces.
type StatusProber interface {
	Probe(ctx context.Context, cfg RouteConfig) (int, error)
}

// SimulatedProber fabricates response codes from the route path and a random source.
type SimulatedProber struct {
	Rand          sim.Rand
	Probabilities Probabilities
}

// Probe returns 404 for removed pages, 401 sometimes for authenticated
// routes, 500 rarely, and 200 otherwise.
func (p SimulatedProber) Probe(_ context.Context, cfg RouteConfig) (int, error) {
	if strings.Contains(cfg.Path, "404") || strings.Contains(cfg.Path, "error") {
		return http.StatusNotFound, nil
	}
	if cfg.RequiresAuth && sim.Chance(p.Rand, p.Probabilities.Unauthorized) {
		return http.StatusUnauthorized, nil
	}
	if sim.Chance(p.Rand, p.Probabilities.ServerError) {
		return http.StatusInternalServerError, nil
	}
	return http.StatusOK, nil
}

// HTTPProber issues a real GET for each route against a running dev server.
type HTTPProber struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPProber returns a prober with its own client and timeout.
func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Probe requests the route and returns the status code.
func (p *HTTPProber) Probe(ctx context.Context, cfg RouteConfig) (int, error) {
	target, err := url.JoinPath(p.BaseURL, cfg.Path)
	if err != nil {
		return 0, fmt.Errorf("invalid base URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode, nil
}
