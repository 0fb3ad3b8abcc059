package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/romartin/kie-wb-common-sub000/pkg/bootstrap"
	"github.com/romartin/kie-wb-common-sub000/pkg/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "stunner-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := bootstrap.LoadConfig("stunner-tui", args)
	if err != nil {
		return err
	}
	// The screen belongs to the editor, so logs always go to a file.
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(filepath.Dir(cfg.DBPath), "stunner-tui.log")
	}
	logger, closeLog, err := bootstrap.NewLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

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

	model := tui.New(editor)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
