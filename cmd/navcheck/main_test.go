package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"navcheck/internal/config"
	"navcheck/internal/routes"
)

// setupTest installs a quiet, deterministic configuration and resets the
// global flags.
func setupTest(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()

	c := config.DefaultConfig()
	c.Simulation.Seed = 7
	c.Simulation.Probabilities = routes.Probabilities{}
	c.Store.DatabasePath = filepath.Join(t.TempDir(), "navcheck.db")
	c.Logging.Dir = filepath.Join(t.TempDir(), "logs")
	cfg = c

	jsonOutput = false
	timeout = time.Minute
	routesFailedOnly, routesWarningsOnly = false, false
	reportFormat, reportSave = formatTable, false
	historyLimit = 20
	scanFiles, scanURLs, scanRender, scanSelector = nil, nil, false, ""
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
