package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/romartin/kie-wb-common-sub000/pkg/bootstrap"
	"github.com/romartin/kie-wb-common-sub000/pkg/mcp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "stunner-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := bootstrap.LoadConfig("stunner-mcp", args)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	logger, closeLog, err := bootstrap.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("System started", "component", "stunner-mcp")

	ctx := context.Background()
	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if cfg.MetricsAddr != "" {
		metrics, err := bootstrap.StartMetrics(cfg.MetricsAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metrics.Shutdown(shutdownCtx)
		}()
	}

	editor, err := backend.OpenEditor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer editor.Dispose()

	logger.Info("Serving MCP on stdio", "diagramID", editor.Diagram().ID)
	if err := mcp.NewServer(editor).Serve(); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
