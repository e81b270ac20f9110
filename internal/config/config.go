package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"navcheck/internal/browser"
	"navcheck/internal/routes"
)

// Config holds all navcheck configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Routes     RoutesConfig     `yaml:"routes"`
	Links      LinksConfig      `yaml:"links"`
	Simulation SimulationConfig `yaml:"simulation"`
	Probe      ProbeConfig      `yaml:"probe"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Browser    browser.Config   `yaml:"browser"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RoutesConfig points at an optional route table file.
type RoutesConfig struct {
	// RegistryPath is a YAML route table; empty means the built-in table.
	RegistryPath string `yaml:"registry_path"`
}

// LinksConfig configures the link verifier.
type LinksConfig struct {
	Origin         string   `yaml:"origin"`
	SlowThreshold  string   `yaml:"slow_threshold"`
	TrustedDomains []string `yaml:"trusted_domains"`
	KnownRoutes    []string `yaml:"known_routes"`
	Source         string   `yaml:"source"`   // fixture, html, selector
	Selector       string   `yaml:"selector"` // used by the selector source
}

// SimulationConfig controls the simulated accessibility and response checks.
type SimulationConfig struct {
	Seed          uint64               `yaml:"seed"` // 0 = seeded from the clock
	Probabilities routes.Probabilities `yaml:"probabilities"`
}

// ProbeConfig selects how route response codes are obtained.
type ProbeConfig struct {
	Mode    string `yaml:"mode"` // simulated, http
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// FetchConfig configures page retrieval for link scans.
type FetchConfig struct {
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// StoreConfig configures the report archive.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// Link source names.
const (
	SourceFixture  = "fixture"
	SourceHTML     = "html"
	SourceSelector = "selector"
)

// Probe modes.
const (
	ProbeSimulated = "simulated"
	ProbeHTTP      = "http"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "navcheck",
		Version: "0.3.0",

		Links: LinksConfig{
			Origin:        "http://localhost:5173",
			SlowThreshold: "3s",
			Source:        SourceFixture,
		},

		Simulation: SimulationConfig{
			Probabilities: routes.DefaultProbabilities(),
		},

		Probe: ProbeConfig{
			Mode:    ProbeSimulated,
			BaseURL: "http://localhost:5173",
			Timeout: "10s",
		},

		Fetch: FetchConfig{
			Timeout:     "30s",
			Concurrency: 4,
		},

		Server: ServerConfig{
			Addr:            ":8090",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: "10s",
		},

		Store: StoreConfig{
			DatabasePath: ".navcheck/navcheck.db",
		},

		Browser: browser.DefaultConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    ".navcheck/logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if origin := os.Getenv("NAVCHECK_ORIGIN"); origin != "" {
		c.Links.Origin = origin
	}
	if path := os.Getenv("NAVCHECK_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("NAVCHECK_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if seed := os.Getenv("NAVCHECK_SEED"); seed != "" {
		n, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid NAVCHECK_SEED %q: %w", seed, err)
		}
		c.Simulation.Seed = n
	}
	// A base URL means there is a live server to probe.
	if base := os.Getenv("NAVCHECK_BASE_URL"); base != "" {
		c.Probe.BaseURL = base
		c.Probe.Mode = ProbeHTTP
	}
	return nil
}

// GetSlowThreshold returns the link slow threshold as a duration.
func (c *Config) GetSlowThreshold() time.Duration {
	d, err := time.ParseDuration(c.Links.SlowThreshold)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// GetProbeTimeout returns the HTTP probe timeout as a duration.
func (c *Config) GetProbeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Probe.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetFetchTimeout returns the page fetch timeout as a duration.
func (c *Config) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the server shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidSources lists the supported link sources.
var ValidSources = []string{SourceFixture, SourceHTML, SourceSelector}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Links.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid links.origin: %q", c.Links.Origin)
	}

	validSource := false
	for _, s := range ValidSources {
		if c.Links.Source == s {
			validSource = true
			break
		}
	}
	if !validSource {
		return fmt.Errorf("invalid links.source: %s (valid: %v)", c.Links.Source, ValidSources)
	}
	if c.Links.Source == SourceSelector && c.Links.Selector == "" {
		return fmt.Errorf("links.selector is required for the selector source")
	}

	switch c.Probe.Mode {
	case ProbeSimulated:
	case ProbeHTTP:
		if c.Probe.BaseURL == "" {
			return fmt.Errorf("probe.base_url is required in http mode")
		}
	default:
		return fmt.Errorf("invalid probe.mode: %s (valid: [%s %s])", c.Probe.Mode, ProbeSimulated, ProbeHTTP)
	}

	p := c.Simulation.Probabilities
	for name, v := range map[string]float64{
		"missing_alt_text":    p.MissingAltText,
		"missing_aria_labels": p.MissingAriaLabels,
		"low_contrast":        p.LowContrast,
		"trading_keyboard":    p.TradingKeyboard,
		"unauthorized":        p.Unauthorized,
		"server_error":        p.ServerError,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("simulation.probabilities.%s must be within [0, 1], got %v", name, v)
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}
