// Package main is the entry point for the retrieval orchestrator daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simpleflo/rdfusion/internal/config"
	"github.com/simpleflo/rdfusion/internal/daemon"
	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/internal/orchestrator"
)

var (
	// Version is set at build time.
	Version = "dev"
	// BuildTime is set at build time.
	BuildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rdfusion-daemon",
		Short: "rdfusion daemon - multi-source R&D retrieval orchestrator",
		Long: `rdfusion-daemon runs the retrieval workflow engine as a background
service, fusing SQL, Elasticsearch, vector, and graph backends behind an
HTTP/SSE interface.`,
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		RunE:    runDaemon,
	}

	rootCmd.Flags().String("data-dir", "", "Data directory (default: ~/.rdfusion)")
	rootCmd.Flags().String("addr", "", "Listen address, or unix:<path> for a unix socket (default: unix socket at the configured socket path)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-format", "json", "Log format: json, console")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat, _ := cmd.Flags().GetString("log-format"); logFormat != "" {
		cfg.LogFormat = logFormat
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = "unix:" + cfg.SocketPath
	}

	observability.SetupLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	orch, err := orchestrator.New(cfg)
	if err != nil {
		return fmt.Errorf("construct orchestrator: %w", err)
	}
	defer orch.Close()

	d := daemon.New(cfg, orch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Serve(ctx, addr)
}
