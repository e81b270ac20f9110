package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"navcheck/internal/report"
	"navcheck/internal/ui"
)

var dashboardPlain bool

// dashboardCmd opens the interactive navigation test page
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the terminal navigation dashboard",
	Long: `Runs the navigation tests and shows the results in three tabs:
navigation, links and performance. Press r to run again, q to quit.

With --plain the report is rendered once as styled markdown instead.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardPlain, "plain", false, "Print the report once instead of starting the interactive view")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	// Each run starts from fresh verifiers so the link cache does not carry
	// over between passes.
	run := func(ctx context.Context) (report.Navigation, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		lv, err := buildLinkVerifier(cfg, nil)
		if err != nil {
			return report.Navigation{}, err
		}
		return runNavigation(runCtx, newRouteVerifier(cfg, reg), lv, "")
	}

	if dashboardPlain {
		nav, err := run(ctx)
		if err != nil {
			return err
		}
		out, err := report.RenderTerminal(nav, 100)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	return ui.RunDashboard(ctx, run)
}
