package routes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	if reg.Len() != 10 {
		t.Fatalf("expected 10 routes, got %d", reg.Len())
	}
	if len(reg.Dynamic()) != 4 {
		t.Fatalf("expected 4 dynamic routes, got %d", len(reg.Dynamic()))
	}

	root, ok := reg.Lookup("/")
	if !ok {
		t.Fatal("root route missing")
	}
	if root.WantsBreadcrumbs() {
		t.Error("root should not expect breadcrumbs")
	}
	if len(root.ChildRoutes) != 5 {
		t.Errorf("root children = %v", root.ChildRoutes)
	}
	if reg.Contains("/news/1") {
		t.Error("dynamic samples must not be registered routes")
	}
}

func TestNewRegistryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		routes  []RouteConfig
		dynamic []DynamicRoute
		want    error
	}{
		{
			name:   "empty path",
			routes: []RouteConfig{{Component: "Nowhere"}},
			want:   ErrEmptyPath,
		},
		{
			name:   "duplicate",
			routes: []RouteConfig{{Path: "/a"}, {Path: "/a"}},
			want:   ErrDuplicateRoute,
		},
		{
			name:    "unknown parent",
			routes:  []RouteConfig{{Path: "/a"}},
			dynamic: []DynamicRoute{{Template: "/b/:id", Path: "/b/1", Parent: "/b"}},
			want:    ErrUnknownParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.routes, tt.dynamic)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewRegistry() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistryCopiesAreIndependent(t *testing.T) {
	reg := DefaultRegistry()
	routes := reg.Routes()
	routes[0].Path = "/mutated"
	routes[0].ChildRoutes[0] = "/mutated"

	if _, ok := reg.Lookup("/"); !ok {
		t.Fatal("registry changed through returned slice")
	}
	root, _ := reg.Lookup("/")
	if root.Path != "/" {
		t.Errorf("root path = %q", root.Path)
	}
}

func TestDynamicRouteConfig(t *testing.T) {
	d := DynamicRoute{Template: "/creator/:symbol", Path: "/creator/TMFS", Parent: "/trading"}
	cfg := d.Config()

	if cfg.Path != "/creator/TMFS" || cfg.Component != "DynamicComponent" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.WantsBreadcrumbs() {
		t.Error("dynamic routes expect breadcrumbs")
	}
	if !cfg.Parameterized() {
		t.Error("dynamic routes carry their template and count as parameterized")
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	yamlData := `
routes:
  - path: /
    component: Home
    expected_breadcrumbs: false
    child_routes: [/about]
  - path: /about
    component: About
    requires_auth: true
dynamic:
  - template: /about/:section
    path: /about/team
    parent: /about
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	about, ok := reg.Lookup("/about")
	if !ok || !about.RequiresAuth {
		t.Errorf("about route = %+v, ok=%v", about, ok)
	}
	if about.ExpectedBreadcrumbs != nil {
		t.Error("unspecified breadcrumbs should stay nil")
	}
	root, _ := reg.Lookup("/")
	if root.ExpectedBreadcrumbs == nil || *root.ExpectedBreadcrumbs {
		t.Error("explicit false breadcrumbs lost")
	}
	if got := reg.Dynamic(); len(got) != 1 || got[0].Path != "/about/team" {
		t.Errorf("dynamic = %+v", got)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
