package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"navcheck/internal/report"
	"navcheck/internal/ui"
)

var (
	reportFormat string
	reportSave   bool
	historyLimit int
)

// Report formats.
const (
	formatTable    = "table"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// reportCmd runs both engines and prints the combined report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run routes and links together and print the navigation report",
	Long: `Runs a route pass, checks the links of the configured page source, and
prints the combined report.

Examples:
  navcheck report
  navcheck report --format markdown > NAVIGATION.md
  navcheck report --save`,
	RunE: runReport,
}

// historyCmd lists archived reports
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived navigation reports",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print one archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", formatTable, "Output format: table, json, markdown")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "Archive the report")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyShowCmd.Flags().StringVarP(&reportFormat, "format", "f", formatTable, "Output format: table, json, markdown")
	historyCmd.AddCommand(historyShowCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	rv, err := buildRouteVerifier(cfg)
	if err != nil {
		return err
	}
	lv, err := buildLinkVerifier(cfg, nil)
	if err != nil {
		return err
	}

	nav, err := runNavigation(ctx, rv, lv, "")
	if err != nil {
		return err
	}

	if reportSave {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveRun(ctx, nav); err != nil {
			return err
		}
		logger.Info("report archived", zap.String("run_id", nav.RunID), zap.String("db", st.Path()))
	}

	return printNavigation(nav, reportFormat)
}

func printNavigation(nav report.Navigation, format string) error {
	if jsonOutput {
		format = formatJSON
	}
	switch format {
	case formatJSON:
		return printJSON(nav)
	case formatMarkdown:
		fmt.Print(report.Markdown(nav))
		return nil
	case formatTable:
		styles := ui.DefaultStyles()
		fmt.Println(styles.Header.Render("Navigation Report " + nav.RunID))
		fmt.Println()
		fmt.Print(ui.SummaryTable(nav, styles))
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: table, json, markdown)", format)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	styles := ui.DefaultStyles()
	t := ui.NewSimpleTable("Archived runs", []string{"ID", "Generated", "Status", "Routes", "Failed", "Warnings", "Links", "Invalid"})
	for _, r := range runs {
		t.AddRow(r.ID, r.GeneratedAt.Local().Format("2006-01-02 15:04:05"), string(r.OverallStatus),
			fmt.Sprint(r.TotalRoutes), fmt.Sprint(r.FailedRoutes), fmt.Sprint(r.WarningRoutes),
			fmt.Sprint(r.TotalLinks), fmt.Sprint(r.InvalidLinks))
	}
	fmt.Print(t.View(styles))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	nav, err := st.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	return printNavigation(nav, reportFormat)
}
