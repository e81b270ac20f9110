package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var zero Config
	assert.Equal(t, 1280, zero.GetViewportWidth())
	assert.Equal(t, 800, zero.GetViewportHeight())
	assert.Equal(t, 30*time.Second, zero.NavigationTimeout())

	cfg := DefaultConfig()
	cfg.NavigationTimeoutMs = 1500
	cfg.ViewportWidth = 640
	assert.Equal(t, 1500*time.Millisecond, cfg.NavigationTimeout())
	assert.Equal(t, 640, cfg.GetViewportWidth())
	assert.True(t, cfg.Headless)
}

func TestRendererCloseWithoutStart(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	require.False(t, r.IsConnected())
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close(), "close is idempotent")
}
