// Package routes verifies the trading dashboard's route table: every
// registered route, the child routes it links to, and a fixed set of
// parameterized detail pages.
package routes

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyPath is returned when a route is registered without a path.
	ErrEmptyPath = errors.New("route path is empty")
	// ErrDuplicateRoute is returned when two routes share a path.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrUnknownParent is returned when a dynamic route names an unregistered parent.
	ErrUnknownParent = errors.New("dynamic route parent not registered")
)

// RouteConfig describes one application route and what a visit to it
// should find.
type RouteConfig struct {
	Path         string `yaml:"path" json:"path"`
	Component    string `yaml:"component" json:"component"`
	RequiresAuth bool   `yaml:"requires_auth,omitempty" json:"requires_auth,omitempty"`
	// ExpectedBreadcrumbs is nil when the route does not say either way.
	ExpectedBreadcrumbs *bool    `yaml:"expected_breadcrumbs,omitempty" json:"expected_breadcrumbs,omitempty"`
	ChildRoutes         []string `yaml:"child_routes,omitempty" json:"child_routes,omitempty"`
	Description         string   `yaml:"description,omitempty" json:"description,omitempty"`
	// Pattern is the parameterized template a derived route was built from.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// WantsBreadcrumbs reports whether the route explicitly expects breadcrumbs.
func (c RouteConfig) WantsBreadcrumbs() bool {
	return c.ExpectedBreadcrumbs != nil && *c.ExpectedBreadcrumbs
}

// Parameterized reports whether the route carries a path variable.
func (c RouteConfig) Parameterized() bool {
	return strings.Contains(c.Path, ":") || strings.Contains(c.Pattern, ":")
}

// DynamicRoute pairs a parameterized template with a concrete sample path
// and the parent page that links to it.
type DynamicRoute struct {
	Template string `yaml:"template" json:"template"`
	Path     string `yaml:"path" json:"path"`
	Parent   string `yaml:"parent" json:"parent"`
}

// Config builds the route configuration verified for this sample.
func (d DynamicRoute) Config() RouteConfig {
	return RouteConfig{
		Path:                d.Path,
		Component:           "DynamicComponent",
		ExpectedBreadcrumbs: boolPtr(true),
		Description:         fmt.Sprintf("Dynamic route for %s under %s", d.Path, d.Parent),
		Pattern:             d.Template,
	}
}

// Registry is the ordered, immutable route table.
type Registry struct {
	routes  []RouteConfig
	byPath  map[string]int
	dynamic []DynamicRoute
}

// NewRegistry validates and indexes the given routes. Order is preserved.
func NewRegistry(routes []RouteConfig, dynamic []DynamicRoute) (*Registry, error) {
	r := &Registry{
		routes:  make([]RouteConfig, 0, len(routes)),
		byPath:  make(map[string]int, len(routes)),
		dynamic: make([]DynamicRoute, 0, len(dynamic)),
	}
	for _, rc := range routes {
		if rc.Path == "" {
			return nil, fmt.Errorf("component %q: %w", rc.Component, ErrEmptyPath)
		}
		if _, dup := r.byPath[rc.Path]; dup {
			return nil, fmt.Errorf("%s: %w", rc.Path, ErrDuplicateRoute)
		}
		rc.ChildRoutes = append([]string(nil), rc.ChildRoutes...)
		r.byPath[rc.Path] = len(r.routes)
		r.routes = append(r.routes, rc)
	}
	for _, d := range dynamic {
		if d.Path == "" {
			return nil, fmt.Errorf("dynamic template %q: %w", d.Template, ErrEmptyPath)
		}
		if _, ok := r.byPath[d.Parent]; !ok {
			return nil, fmt.Errorf("%s (parent %s): %w", d.Path, d.Parent, ErrUnknownParent)
		}
		r.dynamic = append(r.dynamic, d)
	}
	return r, nil
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []RouteConfig {
	out := make([]RouteConfig, len(r.routes))
	copy(out, r.routes)
	return out
}

// Dynamic returns the dynamic samples in registration order.
func (r *Registry) Dynamic() []DynamicRoute {
	out := make([]DynamicRoute, len(r.dynamic))
	copy(out, r.dynamic)
	return out
}

// Lookup finds a registered route by exact path.
func (r *Registry) Lookup(path string) (RouteConfig, bool) {
	i, ok := r.byPath[path]
	if !ok {
		return RouteConfig{}, false
	}
	return r.routes[i], true
}

// Contains reports whether path is registered.
func (r *Registry) Contains(path string) bool {
	_, ok := r.byPath[path]
	return ok
}

// Len returns the number of registered (non-dynamic) routes.
func (r *Registry) Len() int { return len(r.routes) }

// registryFile is the on-disk YAML layout.
type registryFile struct {
	Routes  []RouteConfig  `yaml:"routes"`
	Dynamic []DynamicRoute `yaml:"dynamic"`
}

// LoadRegistry reads a route table from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route registry: %w", err)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse route registry: %w", err)
	}
	return NewRegistry(f.Routes, f.Dynamic)
}

// DefaultRegistry returns the comic exchange dashboard's route table.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(defaultRoutes(), defaultDynamic())
	if err != nil {
		panic(fmt.Sprintf("default route registry invalid: %v", err))
	}
	return reg
}

func defaultRoutes() []RouteConfig {
	return []RouteConfig{
		{
			Path:                "/",
			Component:           "Dashboard",
			ExpectedBreadcrumbs: boolPtr(false),
			ChildRoutes:         []string{"/markets", "/portfolio", "/trading", "/news", "/learn"},
			Description:         "Main dashboard with market overview",
		},
		{
			Path:                "/markets",
			Component:           "Markets",
			ExpectedBreadcrumbs: boolPtr(true),
			ChildRoutes:         []string{"/market-index", "/price-trends"},
			Description:         "Market overview and analysis",
		},
		{
			Path:                "/market-index",
			Component:           "ComicMarketIndexTrend",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Comic market index with historical data",
		},
		{
			Path:                "/price-trends",
			Component:           "ComicPriceTrends",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Price trend analysis for key comics",
		},
		{
			Path:                "/portfolio",
			Component:           "PortfolioOverview",
			ExpectedBreadcrumbs: boolPtr(true),
			ChildRoutes:         []string{"/portfolio/positions", "/portfolio/transactions"},
			Description:         "Portfolio management and tracking",
		},
		{
			Path:                "/trading",
			Component:           "Trading",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Trading interface and tools",
		},
		{
			Path:                "/news",
			Component:           "News",
			ExpectedBreadcrumbs: boolPtr(true),
			ChildRoutes:         []string{"/news/1", "/news/2", "/news/3"},
			Description:         "Market news and updates",
		},
		{
			Path:                "/learn",
			Component:           "Learn",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Educational content and tutorials",
		},
		{
			Path:                "/research",
			Component:           "ResearchReport",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Market research and analysis reports",
		},
		{
			Path:                "/navigation-test",
			Component:           "NavigationTestPage",
			ExpectedBreadcrumbs: boolPtr(true),
			Description:         "Navigation system testing interface",
		},
	}
}

func defaultDynamic() []DynamicRoute {
	return []DynamicRoute{
		{Template: "/news/:id", Path: "/news/1", Parent: "/news"},
		{Template: "/news/:id", Path: "/news/2", Parent: "/news"},
		{Template: "/creator/:symbol", Path: "/creator/TMFS", Parent: "/trading"},
		{Template: "/publisher/:symbol", Path: "/publisher/DCCP", Parent: "/trading"},
	}
}

func boolPtr(b bool) *bool { return &b }
