package routes

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, path string, paths ...string) {
	t.Helper()
	data := "routes:\n"
	for _, p := range paths {
		data += "  - path: " + p + "\n    component: Page\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func startWatcher(t *testing.T, path string, onReload func(*Registry)) *RegistryWatcher {
	t.Helper()
	w, err := NewRegistryWatcher(path, onReload)
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	return w
}

func TestRegistryWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeTable(t, path, "/")

	var latest atomic.Pointer[Registry]
	w := startWatcher(t, path, func(r *Registry) { latest.Store(r) })

	writeTable(t, path, "/", "/markets", "/portfolio")

	require.Eventually(t, func() bool {
		r := latest.Load()
		return r != nil && r.Len() == 3
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, w.Stats().Reloads, 1)
}

func TestRegistryWatcherKeepsPreviousOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeTable(t, path, "/")

	var reloads atomic.Int32
	w := startWatcher(t, path, func(*Registry) { reloads.Add(1) })

	require.NoError(t, os.WriteFile(path, []byte("routes: [unclosed"), 0644))

	require.Eventually(t, func() bool { return w.Stats().Errors > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, reloads.Load())
	assert.Contains(t, w.Stats().LastError, "parse")
}

func TestRegistryWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	writeTable(t, path, "/")

	w := startWatcher(t, path, func(*Registry) {})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, w.Stats().Events)
}

func TestRegistryWatcherStopWithoutStart(t *testing.T) {
	w, err := NewRegistryWatcher(filepath.Join(t.TempDir(), "routes.yaml"), func(*Registry) {})
	require.NoError(t, err)
	w.Stop()
}

func TestRegistryWatcherStartFailureStops(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "routes.yaml")
	w, err := NewRegistryWatcher(missing, func(*Registry) {})
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}
