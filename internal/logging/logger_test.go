package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogging(t *testing.T) {
	t.Helper()
	CloseAll()
	require.NoError(t, Initialize(Options{}))
	t.Cleanup(func() {
		CloseAll()
		_ = Initialize(Options{})
	})
}

// TestAllCategoriesLog tests that every category writes its own file when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(Options{Dir: dir, DebugMode: true, Level: "debug"}))
	assert.True(t, IsDebugMode())

	categories := []Category{
		CategoryBoot, CategoryRoutes, CategoryLinks, CategoryFetch,
		CategoryBrowser, CategoryStore, CategoryServer, CategoryUI,
	}
	for _, cat := range categories {
		l := Get(cat)
		l.Info("info for %s", cat)
		l.Debug("debug for %s", cat)
		l.Warn("warn for %s", cat)
		l.Error("error for %s", cat)
	}
	CloseAll()

	date := time.Now().Format("2006-01-02")
	for _, cat := range categories {
		path := filepath.Join(dir, date+"_"+string(cat)+".log")
		data, err := os.ReadFile(path)
		require.NoError(t, err, "missing log file for %s", cat)
		content := string(data)
		assert.Contains(t, content, "info for "+string(cat))
		assert.Contains(t, content, "debug for "+string(cat))
	}
}

func TestDisabledModeWritesNothing(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(Options{Dir: dir, DebugMode: false}))
	Routes("should not appear")
	Links("should not appear")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCategoryFilter(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(Options{
		Dir:        dir,
		DebugMode:  true,
		Categories: map[string]bool{"links": false},
	}))
	assert.False(t, IsCategoryEnabled(CategoryLinks))
	assert.True(t, IsCategoryEnabled(CategoryRoutes), "unlisted categories default on")
}

func TestLevelFiltering(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	require.NoError(t, Initialize(Options{Dir: dir, DebugMode: true, Level: "warn", JSONFormat: true}))
	Get(CategoryStore).Info("quiet info")
	Get(CategoryStore).Warn("loud warning")
	CloseAll()

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+"_store.log"))
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "quiet info")
	assert.Contains(t, content, "loud warning")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(content), "{"), "json format expected")
}

func TestInitializeRequiresDirInDebugMode(t *testing.T) {
	resetLogging(t)
	assert.Error(t, Initialize(Options{DebugMode: true}))
}

func TestTimerThreshold(t *testing.T) {
	resetLogging(t)
	timer := StartTimer(CategoryRoutes, "noop")
	elapsed := timer.StopWithThreshold(time.Hour)
	assert.Less(t, elapsed, time.Hour)
}
