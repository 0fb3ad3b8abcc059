package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/romartin/kie-wb-common-sub000/pkg/bootstrap"
	"github.com/romartin/kie-wb-common-sub000/pkg/journal"
)

var (
	Version   = "v0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: stunner [flags] <command>

Commands:
  diagrams list            list stored diagrams
  diagrams show <id>       print a diagram as JSON
  diagrams delete <id>     delete a diagram and its journal
  journal log <id>         list the journal entries of a diagram
  journal replay <id>      rebuild a diagram from its journal
  version                  print version information`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Println(usage)
			return
		case errors.Is(err, errUsage):
			fmt.Println(usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := bootstrap.LoadConfig("stunner", args)
	if err != nil {
		return err
	}
	if len(cfg.Args) == 1 && cfg.Args[0] == "version" {
		fmt.Fprintf(out, "stunner %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		return nil
	}
	if len(cfg.Args) < 2 {
		return errUsage
	}

	logger, closeLog, err := bootstrap.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	cmd, sub, rest := cfg.Args[0], cfg.Args[1], cfg.Args[2:]
	switch {
	case cmd == "diagrams" && sub == "list":
		return listDiagrams(ctx, backend, out)
	case cmd == "diagrams" && sub == "show" && len(rest) == 1:
		return showDiagram(ctx, backend, rest[0], out)
	case cmd == "diagrams" && sub == "delete" && len(rest) == 1:
		return deleteDiagram(ctx, backend, rest[0], logger, out)
	case cmd == "journal" && sub == "log" && len(rest) == 1:
		return journalLog(ctx, backend, rest[0], out)
	case cmd == "journal" && sub == "replay" && len(rest) == 1:
		return journalReplay(ctx, backend, rest[0], out)
	default:
		return errUsage
	}
}

func listDiagrams(ctx context.Context, b *bootstrap.Backend, out io.Writer) error {
	summaries, err := b.Diagrams.ListDiagrams(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No diagrams stored.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNODES\tEDGES\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Name, s.Nodes, s.Edges, s.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func showDiagram(ctx context.Context, b *bootstrap.Backend, id string, out io.Writer) error {
	d, err := b.Diagrams.LoadDiagram(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func deleteDiagram(ctx context.Context, b *bootstrap.Backend, id string, logger *slog.Logger, out io.Writer) error {
	if err := b.Diagrams.DeleteDiagram(ctx, id); err != nil {
		return err
	}
	logger.Info("Diagram deleted", "diagramID", id)
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

func journalLog(ctx context.Context, b *bootstrap.Backend, id string, out io.Writer) error {
	entries, err := b.SQLite.ReadJournal(ctx, id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No journal entries for %s.\n", id)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tOP\tRECORDS\tAT")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", e.Seq, e.Op, len(e.Records), e.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

// journalReplay rebuilds the graph from the journal and compares it with
// the stored diagram, when there is one.
func journalReplay(ctx context.Context, b *bootstrap.Backend, id string, out io.Writer) error {
	g, err := b.Journal.Replay(ctx, id)
	if err != nil {
		if errors.Is(err, journal.ErrBadJournal) {
			return fmt.Errorf("journal of %s cannot be replayed: %w", id, err)
		}
		return err
	}
	fmt.Fprintf(out, "Replayed %s: %d nodes, %d edges\n", id, g.NodeCount(), g.EdgeCount())

	d, err := b.Diagrams.LoadDiagram(ctx, id)
	if err != nil {
		fmt.Fprintln(out, "No stored diagram to compare with.")
		return nil
	}
	if d.Graph.Equal(g) {
		fmt.Fprintln(out, "Matches the stored diagram.")
	} else {
		fmt.Fprintln(out, "Differs from the stored diagram (unsaved edits were journaled).")
	}
	return nil
}
