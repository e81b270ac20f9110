package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"navcheck/internal/config"
	"navcheck/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	seed       uint64
	jsonOutput bool
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "navcheck",
	Short: "navcheck - route and link verification for the comic trading dashboard",
	Long: `navcheck walks the dashboard's route table and checks every link a page
exposes.

Route passes verify that each page loads, carries breadcrumbs where expected,
and has no simulated accessibility faults. Link checks classify URLs as valid,
invalid, external, redirect or slow. Reports can be printed, archived in
SQLite, browsed in a terminal dashboard, or served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logging.Initialize(cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize file logging: %w", err)
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("origin", cfg.Links.Origin),
			zap.String("probe", cfg.Probe.Mode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		c.Simulation.Seed = seed
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "navcheck.yaml", "Config file")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Seed for simulated checks (0 = time based)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
