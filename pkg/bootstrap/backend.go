package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
	"github.com/romartin/kie-wb-common-sub000/pkg/journal"
	"github.com/romartin/kie-wb-common-sub000/pkg/session"
	"github.com/romartin/kie-wb-common-sub000/pkg/store"
	"github.com/romartin/kie-wb-common-sub000/pkg/store/redis"
)

// Backend holds the opened stores.
type Backend struct {
	Diagrams store.DiagramService
	Journal  *journal.Journal
	SQLite   *store.Store

	redis *goredis.Client
}

// Open opens the SQLite database and, for store=redis, connects to Redis.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	b := &Backend{
		Diagrams: st,
		Journal:  journal.New(st, logger),
		SQLite:   st,
	}
	logger.Info("Store initialized", "path", cfg.DBPath)

	if cfg.Store == StoreRedis {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			st.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		b.redis = client
		b.Diagrams = redis.NewDiagramStore(client)
		logger.Info("Redis diagram store connected", "addr", cfg.RedisAddr)
	}
	return b, nil
}

func (b *Backend) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	errs = append(errs, b.SQLite.Close())
	return errors.Join(errs...)
}

// OpenEditor loads cfg.DiagramID, or starts a new diagram when the id is
// empty or unknown, and initializes an editor session on it.
func (b *Backend) OpenEditor(ctx context.Context, cfg Config, logger *slog.Logger) (*session.EditorSession, error) {
	var d *graph.Diagram
	if cfg.DiagramID != "" {
		loaded, err := b.Diagrams.LoadDiagram(ctx, cfg.DiagramID)
		switch {
		case err == nil:
			d = loaded
		case errors.Is(err, store.ErrDiagramNotFound):
			logger.Warn("Diagram not found, starting a new one", "diagramID", cfg.DiagramID)
		default:
			return nil, err
		}
	}
	if d == nil {
		d = graph.NewDiagram(cfg.DiagramName)
	}

	ed := session.NewEditorSession(d, session.EditorConfig{
		Diagrams: b.Diagrams,
		Journal:  b.Journal,
		Logger:   logger,
	})
	if err := ed.Init(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

// NewLogger returns a JSON logger writing to cfg.LogPath, or to fallback
// when no path is set. The returned closer releases the log file.
func NewLogger(cfg Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	w, closer := fallback, func() error { return nil }
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f.Close
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return logger, closer, nil
}
