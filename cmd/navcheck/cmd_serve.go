package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"navcheck/internal/routes"
	"navcheck/internal/server"
)

var (
	serveAddr  string
	serveWatch bool
)

// serveCmd exposes the verifiers over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification API over HTTP",
	Long: `Starts the JSON API used by the dashboard's navigation test page.

With --watch, changes to the route table file (routes.registry_path) are
picked up without a restart.

Examples:
  navcheck serve
  navcheck serve --addr 127.0.0.1:9000 --watch`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the route table file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	lv, err := buildLinkVerifier(cfg, nil)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(
		server.Options{Addr: addr, AllowedOrigins: cfg.Server.AllowedOrigins},
		server.Services{Routes: newRouteVerifier(cfg, reg), Links: lv, Store: st, Logger: logger},
	)

	if serveWatch {
		if cfg.Routes.RegistryPath == "" {
			return fmt.Errorf("--watch requires routes.registry_path in the config")
		}
		w, err := routes.NewRegistryWatcher(cfg.Routes.RegistryPath, func(r *routes.Registry) {
			srv.ReplaceRouteVerifier(newRouteVerifier(cfg, r))
		})
		if err != nil {
			return fmt.Errorf("failed to create route table watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Printf("navcheck API listening on %s\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped", zap.String("addr", addr))
	return <-errCh
}
