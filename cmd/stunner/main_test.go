package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/romartin/kie-wb-common-sub000/pkg/bootstrap"
	"github.com/romartin/kie-wb-common-sub000/pkg/canvas"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// seed stores a diagram with one node and returns its id.
func seed(t *testing.T, dbPath string) string {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := bootstrap.Config{DBPath: dbPath, Store: bootstrap.StoreSQLite, DiagramName: "orders"}

	b, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	ed, err := b.OpenEditor(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("OpenEditor failed: %v", err)
	}
	defer ed.Dispose()

	n := graph.NewNode(graph.NodeTask, "ship", graph.Bounds{W: 6, H: 3})
	if r := ed.Execute(canvas.Factory{}.AddChildNode(ed.Handler().RootID(), n)); r.IsError() {
		t.Fatalf("Execute failed: %s", r.Message())
	}
	if err := ed.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return ed.Diagram().ID
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"-log-level", "error"}, args...), &out)
	return out.String(), err
}

func TestCLI_Diagrams(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	id := seed(t, dbPath)

	out, err := runCLI(t, "-db", dbPath, "diagrams", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "orders") {
		t.Errorf("expected the diagram in the listing, got:\n%s", out)
	}

	out, err = runCLI(t, "-db", dbPath, "diagrams", "show", id)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, `"ship"`) {
		t.Errorf("expected the node label in the JSON, got:\n%s", out)
	}

	if _, err := runCLI(t, "-db", dbPath, "diagrams", "delete", id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	out, _ = runCLI(t, "-db", dbPath, "diagrams", "list")
	if !strings.Contains(out, "No diagrams stored.") {
		t.Errorf("expected an empty listing, got:\n%s", out)
	}
}

func TestCLI_Journal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	id := seed(t, dbPath)

	out, err := runCLI(t, "-db", dbPath, "journal", "log", id)
	if err != nil {
		t.Fatalf("journal log failed: %v", err)
	}
	if !strings.Contains(out, "snapshot") || !strings.Contains(out, "execute") {
		t.Errorf("expected snapshot and execute entries, got:\n%s", out)
	}

	out, err = runCLI(t, "-db", dbPath, "journal", "replay", id)
	if err != nil {
		t.Fatalf("journal replay failed: %v", err)
	}
	if !strings.Contains(out, "2 nodes, 0 edges") || !strings.Contains(out, "Matches the stored diagram.") {
		t.Errorf("unexpected replay output:\n%s", out)
	}
}

func TestCLI_Usage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	for _, args := range [][]string{
		{},
		{"diagrams"},
		{"diagrams", "show"},
		{"graph", "list"},
	} {
		_, err := runCLI(t, append([]string{"-db", dbPath}, args...)...)
		if !errors.Is(err, errUsage) {
			t.Errorf("args %v: expected usage error, got %v", args, err)
		}
	}

	out, err := runCLI(t, "version")
	if err != nil || !strings.HasPrefix(out, "stunner ") {
		t.Errorf("unexpected version output %q (%v)", out, err)
	}
}
