package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"navcheck/internal/config"
	"navcheck/internal/links"
	"navcheck/internal/report"
	"navcheck/internal/routes"
	"navcheck/internal/sim"
	"navcheck/internal/store"
)

// loadRegistry returns the configured route table, or the built-in one.
func loadRegistry(c *config.Config) (*routes.Registry, error) {
	if c.Routes.RegistryPath == "" {
		return routes.DefaultRegistry(), nil
	}
	reg, err := routes.LoadRegistry(c.Routes.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load route table: %w", err)
	}
	return reg, nil
}

// newRouteVerifier builds a route verifier over reg using the configured
// probe mode.
func newRouteVerifier(c *config.Config, reg *routes.Registry) *routes.Verifier {
	opts := []routes.Option{
		routes.WithRand(sim.NewRand(c.Simulation.Seed)),
		routes.WithProbabilities(c.Simulation.Probabilities),
	}
	if c.Probe.Mode == config.ProbeHTTP {
		logger.Debug("probing routes over HTTP", zap.String("base", c.Probe.BaseURL))
		opts = append(opts, routes.WithProber(routes.NewHTTPProber(c.Probe.BaseURL, c.GetProbeTimeout())))
	}
	return routes.NewVerifier(reg, opts...)
}

// buildRouteVerifier loads the route table and builds a verifier over it.
func buildRouteVerifier(c *config.Config) (*routes.Verifier, error) {
	reg, err := loadRegistry(c)
	if err != nil {
		return nil, err
	}
	return newRouteVerifier(c, reg), nil
}

// buildLinkVerifier builds a link verifier scanning pages with src, or with
// the configured source when src is nil.
func buildLinkVerifier(c *config.Config, src links.LinkSource) (*links.Verifier, error) {
	if src == nil {
		src = linkSource(c, "", false)
	}
	opts := []links.Option{
		links.WithOrigin(c.Links.Origin),
		links.WithSlowThreshold(c.GetSlowThreshold()),
		links.WithLinkSource(src),
	}
	if len(c.Links.KnownRoutes) > 0 {
		opts = append(opts, links.WithKnownRoutes(c.Links.KnownRoutes))
	}
	if len(c.Links.TrustedDomains) > 0 {
		opts = append(opts, links.WithTrustedDomains(append(append([]string(nil), links.DefaultTrustedDomains...), c.Links.TrustedDomains...)))
	}
	return links.NewVerifier(opts...)
}

// linkSource picks the page scanner. A selector flag wins over the config;
// real page content is never handed to the fixture source.
func linkSource(c *config.Config, selector string, haveContent bool) links.LinkSource {
	if selector != "" {
		return links.SelectorSource{Selector: selector}
	}
	switch c.Links.Source {
	case config.SourceHTML:
		return links.HTMLSource{}
	case config.SourceSelector:
		return links.SelectorSource{Selector: c.Links.Selector}
	}
	if haveContent {
		return links.HTMLSource{}
	}
	return links.FixtureSource{}
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openStore opens the report archive.
func openStore(c *config.Config) (*store.ReportStore, error) {
	st, err := store.NewReportStore(c.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}
	return st, nil
}

// runNavigation performs a route pass, checks the links found on the home
// page, and combines both into one report.
func runNavigation(ctx context.Context, rv *routes.Verifier, lv *links.Verifier, content string) (report.Navigation, error) {
	records := rv.RunFullVerification(ctx)
	logger.Info("route pass complete", zap.Int("routes", len(records)))

	found, err := lv.ScanPageForLinks(ctx, content)
	if err != nil {
		return report.Navigation{}, fmt.Errorf("failed to scan page: %w", err)
	}
	lv.CheckMultipleLinks(ctx, found)
	logger.Info("link check complete", zap.Int("links", len(found)))

	if err := ctx.Err(); err != nil {
		return report.Navigation{}, err
	}
	return report.Build(rv, lv), nil
}
