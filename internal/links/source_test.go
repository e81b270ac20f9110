package links

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardPage = `<!doctype html>
<html>
<head><title>Comic Exchange</title></head>
<body>
  <nav class="main-nav">
    <a href="/">Home</a>
    <a href="/markets">Markets</a>
    <a href=" /trading ">Trading</a>
    <a href="#top">Top</a>
  </nav>
  <main>
    <a href="/news/1">Story</a>
    <a href="/markets">Markets again</a>
    <a href="mailto:desk@example.com">Mail</a>
    <a href="javascript:void(0)">Noop</a>
    <a>no href</a>
    <map><area href="/creator/TMFS" alt="TMFS"></map>
    <a href="https://github.com/example/repo">Source</a>
  </main>
</body>
</html>`

func TestHTMLSourceScanPage(t *testing.T) {
	got, err := HTMLSource{}.ScanPage(context.Background(), dashboardPage)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/", "/markets", "/trading", "/news/1", "/creator/TMFS", "https://github.com/example/repo",
	}, got)
}

func TestHTMLSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := HTMLSource{}.ScanPage(ctx, dashboardPage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectorSourceScopesLinks(t *testing.T) {
	got, err := SelectorSource{Selector: "nav.main-nav"}.ScanPage(context.Background(), dashboardPage)
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/markets", "/trading"}, got)

	got, err = SelectorSource{}.ScanPage(context.Background(), dashboardPage)
	require.NoError(t, err)
	assert.Len(t, got, 6, "empty selector scans the whole document")
}

func TestFixtureSource(t *testing.T) {
	got, err := FixtureSource{}.ScanPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFixtureLinks, got)

	got[0] = "/changed"
	assert.Equal(t, "/", DefaultFixtureLinks[0], "fixture must hand out copies")

	custom, err := FixtureSource{Links: []string{"/a"}}.ScanPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, custom)
}

func TestVerifierUsesConfiguredSource(t *testing.T) {
	v := newTestVerifier(t, WithLinkSource(HTMLSource{}))
	found, err := v.ScanPageForLinks(context.Background(), dashboardPage)
	require.NoError(t, err)
	assert.Contains(t, found, "/creator/TMFS")
	assert.NotContains(t, found, "/news/2")
}
