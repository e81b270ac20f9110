package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"navcheck/internal/routes"
	"navcheck/internal/ui"
)

var (
	routesFailedOnly   bool
	routesWarningsOnly bool
)

// routesCmd runs one route verification pass
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Run a route verification pass",
	Long: `Walks every registered route, then its child links, then the dynamic
sample routes. Each route is checked for its response code, breadcrumbs and
accessibility faults.

Examples:
  navcheck routes
  navcheck routes --failed --json
  navcheck routes --seed 42`,
	RunE: runRoutes,
}

func init() {
	routesCmd.Flags().BoolVar(&routesFailedOnly, "failed", false, "Only show failed routes")
	routesCmd.Flags().BoolVar(&routesWarningsOnly, "warnings", false, "Only show routes with warnings")
	routesCmd.MarkFlagsMutuallyExclusive("failed", "warnings")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	rv, err := buildRouteVerifier(cfg)
	if err != nil {
		return err
	}
	rv.RunFullVerification(ctx)

	records := rv.Results()
	switch {
	case routesFailedOnly:
		records = rv.FailedRoutes()
	case routesWarningsOnly:
		records = rv.WarningRoutes()
	}

	if jsonOutput {
		if routesFailedOnly || routesWarningsOnly {
			return printJSON(records)
		}
		return printJSON(rv.GenerateReport())
	}

	styles := ui.DefaultStyles()
	s := routes.BuildReport(rv.Results()).Summary
	fmt.Printf("%d routes: %d passed, %d warnings, %d failed (avg %.1fms)\n\n",
		s.TotalRoutes, s.SuccessfulRoutes, s.WarningRoutes, s.FailedRoutes, s.AverageLoadTimeMs)
	if len(records) == 0 {
		fmt.Println(styles.Muted.Render("No matching routes."))
		return nil
	}
	fmt.Print(ui.RouteTable(records, styles))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
