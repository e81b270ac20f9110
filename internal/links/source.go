package links

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// LinkSource extracts candidate links from a page.
type LinkSource interface {
	ScanPage(ctx context.Context, content string) ([]string, error)
}

// FixtureSource ignores the page and returns a fixed list of the links the
// dashboard is known to render. It is the default source.
type FixtureSource struct {
	Links []string
}

// DefaultFixtureLinks is the illustrative link set of the dashboard home page.
var DefaultFixtureLinks = []string{
	"/",
	"/markets",
	"/portfolio",
	"/trading",
	"/news",
	"/learn",
	"/news/1",
	"/news/2",
	"/creator/TMFS",
	"/publisher/DCCP",
	"https://images.unsplash.com/photo-1234567890",
	"https://github.com/example/repo",
}

// ScanPage returns a copy of the fixture list.
func (f FixtureSource) ScanPage(context.Context, string) ([]string, error) {
	src := f.Links
	if src == nil {
		src = DefaultFixtureLinks
	}
	return append([]string(nil), src...), nil
}

// HTMLSource parses the page and collects every a[href] and area[href] in
// document order, dropping fragments, scripts and mail links.
type HTMLSource struct{}

// ScanPage parses content as HTML.
func (HTMLSource) ScanPage(ctx context.Context, content string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if ctx.Err() != nil {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "a" || n.Data == "area") {
			if href := strings.TrimSpace(getAttr(n, "href")); keepHref(href) && !seen[href] {
				seen[href] = true
				out = append(out, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// SelectorSource collects links only inside elements matching Selector,
// e.g. "nav" or "main .breadcrumbs".
type SelectorSource struct {
	Selector string
}

// ScanPage parses content with goquery and returns hrefs under the selector.
func (s SelectorSource) ScanPage(_ context.Context, content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	scope := doc.Selection
	if s.Selector != "" {
		scope = doc.Find(s.Selector)
	}

	seen := make(map[string]bool)
	var out []string
	scope.Find("a[href], area[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !keepHref(href) || seen[href] {
			return
		}
		seen[href] = true
		out = append(out, href)
	})
	return out, nil
}

func keepHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
