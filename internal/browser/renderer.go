// Package browser renders single-page-app routes in headless Chrome so the
// links they build client-side can be scanned.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"navcheck/internal/logging"
)

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string   `yaml:"debugger_url" json:"debugger_url"`
	Launch              []string `yaml:"launch" json:"launch"`
	Headless            bool     `yaml:"headless" json:"headless"`
	ViewportWidth       int      `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms" json:"navigation_timeout_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		ViewportWidth:       1280,
		ViewportHeight:      800,
		NavigationTimeoutMs: 30000,
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1280
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 800
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Renderer owns one Chrome connection and renders pages on demand.
type Renderer struct {
	cfg        Config
	mu         sync.RWMutex
	browser    *rod.Browser
	controlURL string
}

// NewRenderer creates a renderer. Chrome is started on first use.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Start connects to an existing Chrome or launches a new one.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return nil
		}
		logging.BrowserWarn("Stale browser connection detected, reconnecting")
		_ = r.browser.Close()
		r.browser = nil
		r.controlURL = ""
	}

	controlURL := r.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(r.cfg.Headless)
		if len(r.cfg.Launch) > 0 {
			l = l.Bin(r.cfg.Launch[0])
			for _, rawFlag := range r.cfg.Launch[1:] {
				name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
				if hasVal {
					l = l.Set(flags.Flag(name), val)
				} else {
					l = l.Set(flags.Flag(name))
				}
			}
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	r.browser = b
	r.controlURL = controlURL
	logging.Browser("Connected to chrome at %s", controlURL)
	return nil
}

func (r *Renderer) ensureStarted(ctx context.Context) error {
	r.mu.RLock()
	if r.browser != nil {
		r.mu.RUnlock()
		return nil
	}
	r.mu.RUnlock()
	return r.Start(ctx)
}

// IsConnected returns whether the browser is connected.
func (r *Renderer) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.browser != nil
}

// Render loads url in a fresh incognito page, waits for it to settle and
// returns the resulting document.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	timer := logging.StartTimer(logging.CategoryBrowser, "Render")
	defer timer.StopWithThreshold(r.cfg.NavigationTimeout())

	if err := r.ensureStarted(ctx); err != nil {
		return "", err
	}

	r.mu.RLock()
	b := r.browser
	r.mu.RUnlock()
	if b == nil {
		return "", errors.New("browser not connected")
	}

	incognito, err := b.Incognito()
	if err != nil {
		return "", fmt.Errorf("incognito context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.GetViewportWidth(),
		Height:            r.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		logging.BrowserWarn("Failed to set viewport: %v", err)
	}

	p := page.Context(ctx).Timeout(r.cfg.NavigationTimeout())
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait for %s: %w", url, err)
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	logging.Browser("Rendered %s (%d bytes)", url, len(html))
	return html, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.controlURL = ""
	return err
}
