package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

var _ DiagramService = (*Store)(nil)

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Enable WAL mode (Write-Ahead Logging)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// Diagrams are stored whole as JSON; the columns next to the blob only
	// serve listings. Journal rows are append-only and ordered by seq.
	query := `
	CREATE TABLE IF NOT EXISTS diagrams (
		diagram_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		edge_count INTEGER NOT NULL,
		updated_at DATETIME NOT NULL,
		body JSON NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		diagram_id TEXT NOT NULL,
		op TEXT NOT NULL,
		records JSON NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_diagram ON journal(diagram_id, seq);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// SaveDiagram inserts or replaces the diagram.
func (s *Store) SaveDiagram(ctx context.Context, d *graph.Diagram) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal diagram %s: %w", d.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diagrams (diagram_id, name, node_count, edge_count, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(diagram_id) DO UPDATE SET
			name = excluded.name,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			updated_at = excluded.updated_at,
			body = excluded.body
	`, d.ID, d.Name, d.Graph.NodeCount(), d.Graph.EdgeCount(), d.UpdatedAt.UTC(), body)
	if err != nil {
		return fmt.Errorf("failed to save diagram %s: %w", d.ID, err)
	}
	return nil
}

// LoadDiagram returns the stored diagram or ErrDiagramNotFound.
func (s *Store) LoadDiagram(ctx context.Context, id string) (*graph.Diagram, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM diagrams WHERE diagram_id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDiagramNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load diagram %s: %w", id, err)
	}

	var d graph.Diagram
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diagram %s: %w", id, err)
	}
	if d.Graph == nil {
		d.Graph = graph.NewGraph()
	}
	return &d, nil
}

// ListDiagrams returns summaries ordered by id.
func (s *Store) ListDiagrams(ctx context.Context) ([]DiagramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT diagram_id, name, node_count, edge_count, updated_at
		FROM diagrams
		ORDER BY diagram_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}
	defer rows.Close()

	var out []DiagramSummary
	for rows.Next() {
		var sum DiagramSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Nodes, &sum.Edges, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagram row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteDiagram removes the diagram and its journal.
func (s *Store) DeleteDiagram(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM diagrams WHERE diagram_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete diagram %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDiagramNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM journal WHERE diagram_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete journal of %s: %w", id, err)
	}
	return tx.Commit()
}

// AppendJournal stores entry and returns it with its sequence number set.
func (s *Store) AppendJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	records, err := json.Marshal(entry.Records)
	if err != nil {
		return entry, fmt.Errorf("failed to marshal journal records: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (diagram_id, op, records, created_at)
		VALUES (?, ?, ?, ?)
	`, entry.DiagramID, entry.Op, records, entry.CreatedAt)
	if err != nil {
		return entry, fmt.Errorf("failed to append journal entry: %w", err)
	}
	if entry.Seq, err = res.LastInsertId(); err != nil {
		return entry, fmt.Errorf("failed to read journal seq: %w", err)
	}
	return entry, nil
}

// ReadJournal returns the journal of a diagram in append order.
func (s *Store) ReadJournal(ctx context.Context, diagramID string) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, diagram_id, op, records, created_at
		FROM journal
		WHERE diagram_id = ?
		ORDER BY seq
	`, diagramID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e       JournalEntry
			records []byte
		)
		if err := rows.Scan(&e.Seq, &e.DiagramID, &e.Op, &records, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		if err := json.Unmarshal(records, &e.Records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal journal entry %d: %w", e.Seq, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
