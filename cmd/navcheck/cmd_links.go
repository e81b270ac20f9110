package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"navcheck/internal/browser"
	"navcheck/internal/links"
	"navcheck/internal/pagefetch"
	"navcheck/internal/ui"
)

var (
	scanFiles    []string
	scanURLs     []string
	scanRender   bool
	scanSelector string
)

// linksCmd groups link verification commands
var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Link verification commands",
}

var linksCheckCmd = &cobra.Command{
	Use:   "check [url...]",
	Short: "Classify one or more links",
	Long: `Classifies each URL as valid, invalid, external, redirect or slow.
Relative URLs resolve against the configured origin.

Examples:
  navcheck links check /markets /news/0 /old/trading
  navcheck links check https://github.com/example/repo --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLinksCheck,
}

var linksScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Extract the links of a page and check them",
	Long: `Extracts links from saved HTML files, fetched pages, or pages rendered
in a headless browser, then checks every link found. Without --file or --url
the configured source is scanned (the built-in fixture by default).

Examples:
  navcheck links scan
  navcheck links scan --file dist/index.html
  navcheck links scan --url http://localhost:5173/ --render --selector nav`,
	RunE: runLinksScan,
}

func init() {
	linksScanCmd.Flags().StringSliceVar(&scanFiles, "file", nil, "HTML file to scan (repeatable)")
	linksScanCmd.Flags().StringSliceVar(&scanURLs, "url", nil, "Page URL to fetch and scan (repeatable)")
	linksScanCmd.Flags().BoolVar(&scanRender, "render", false, "Render --url pages in a headless browser first")
	linksScanCmd.Flags().StringVar(&scanSelector, "selector", "", "Only scan links inside elements matching this CSS selector")

	linksCmd.AddCommand(linksCheckCmd)
	linksCmd.AddCommand(linksScanCmd)
}

func runLinksCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	lv, err := buildLinkVerifier(cfg, nil)
	if err != nil {
		return err
	}
	records := lv.CheckMultipleLinks(ctx, args)
	return printLinkResults(lv, records)
}

func runLinksScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	if scanRender && len(scanURLs) == 0 {
		return fmt.Errorf("--render requires --url")
	}

	pages, err := collectPages(ctx)
	if err != nil {
		return err
	}

	lv, err := buildLinkVerifier(cfg, linkSource(cfg, scanSelector, len(pages) > 0))
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		pages = []string{""}
	}

	var found []string
	seen := make(map[string]bool)
	for _, content := range pages {
		hrefs, err := lv.ScanPageForLinks(ctx, content)
		if err != nil {
			return err
		}
		for _, h := range hrefs {
			if !seen[h] {
				seen[h] = true
				found = append(found, h)
			}
		}
	}
	logger.Info("links extracted", zap.Int("pages", len(pages)), zap.Int("links", len(found)))

	records := lv.CheckMultipleLinks(ctx, found)
	return printLinkResults(lv, records)
}

// collectPages reads --file, then fetches or renders --url.
func collectPages(ctx context.Context) ([]string, error) {
	var pages []string
	for _, f := range scanFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		pages = append(pages, string(data))
	}
	if len(scanURLs) == 0 {
		return pages, nil
	}

	if scanRender {
		r := browser.NewRenderer(cfg.Browser)
		defer r.Close()
		for _, u := range scanURLs {
			html, err := r.Render(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("failed to render %s: %w", u, err)
			}
			pages = append(pages, html)
		}
		return pages, nil
	}

	fetcher := pagefetch.New(cfg.GetFetchTimeout())
	for _, res := range fetcher.FetchAll(ctx, scanURLs, cfg.Fetch.Concurrency) {
		if res.Err != nil {
			logger.Warn("skipping page", zap.String("url", res.URL), zap.Error(res.Err))
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", res.URL, res.Err)
			continue
		}
		pages = append(pages, res.Page.Body)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page could be fetched")
	}
	return pages, nil
}

func printLinkResults(lv *links.Verifier, records []links.Record) error {
	if jsonOutput {
		return printJSON(lv.GenerateReport())
	}

	s := lv.GenerateReport().Summary
	fmt.Printf("%d links: %d valid, %d invalid, %d external, %d redirects, %d slow\n\n",
		s.TotalLinks, s.ValidLinks, s.InvalidLinks, s.ExternalLinks, s.RedirectLinks, s.SlowLinks)
	if len(records) == 0 {
		fmt.Println("No links found.")
		return nil
	}
	fmt.Print(ui.LinkTable(records, ui.DefaultStyles()))
	return nil
}
