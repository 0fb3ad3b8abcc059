// Package bootstrap loads the configuration shared by the stunner binaries
// and opens the stores, logger and metrics listener it describes.
package bootstrap

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultStore     = StoreSQLite
	defaultRedisAddr = "127.0.0.1:6379"
	defaultLogLevel  = "info"
)

// Diagram store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	// DBPath is the SQLite database. It holds the journal for every backend
	// and the diagrams when Store is sqlite.
	DBPath      string
	Store       string
	RedisAddr   string
	MetricsAddr string
	DiagramID   string
	DiagramName string
	LogPath     string
	LogLevel    slog.Level
	// Args are the positional arguments left after the flags.
	Args []string
}

// LoadConfig reads STUNNER_* environment variables, then lets flags in args
// override them. name is the flag set name used in usage output.
func LoadConfig(name string, args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "stunner.db")

	dbPath := envOrDefault("STUNNER_DB_PATH", defaultDBPath)
	storeKind := envOrDefault("STUNNER_STORE", defaultStore)
	redisAddr := envOrDefault("STUNNER_REDIS_ADDR", defaultRedisAddr)
	metricsAddr := os.Getenv("STUNNER_METRICS_ADDR")
	diagramID := os.Getenv("STUNNER_DIAGRAM")
	logPath := os.Getenv("STUNNER_LOG_PATH")
	logLevel := envOrDefault("STUNNER_LOG_LEVEL", defaultLogLevel)

	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagStore := flagSet.String("store", storeKind, "diagram store: sqlite|redis")
	flagRedis := flagSet.String("redis-addr", redisAddr, "Redis address when store=redis")
	flagMetrics := flagSet.String("metrics-addr", metricsAddr, "Prometheus listen address, empty to disable")
	flagDiagram := flagSet.String("diagram", diagramID, "id of the diagram to open")
	flagName := flagSet.String("name", "untitled", "name of a new diagram")
	flagLog := flagSet.String("log", logPath, "log file, empty for stderr")
	flagLevel := flagSet.String("log-level", logLevel, "log level: debug|info|warn|error")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(*flagLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	config := Config{
		DBPath:      resolvePath(*flagDB, cwd),
		Store:       normalizeStore(*flagStore),
		RedisAddr:   strings.TrimSpace(*flagRedis),
		MetricsAddr: strings.TrimSpace(*flagMetrics),
		DiagramID:   strings.TrimSpace(*flagDiagram),
		DiagramName: strings.TrimSpace(*flagName),
		LogPath:     resolvePath(*flagLog, cwd),
		LogLevel:    level,
		Args:        flagSet.Args(),
	}

	if config.DBPath == "" {
		return Config{}, errors.New("db cannot be empty")
	}

	switch config.Store {
	case StoreSQLite:
	case StoreRedis:
		if config.RedisAddr == "" {
			return Config{}, errors.New("store=redis requires redis-addr")
		}
	default:
		return Config{}, fmt.Errorf("unsupported store: %s", config.Store)
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}

func normalizeStore(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "sqlite", "sqlite3":
		return StoreSQLite
	case "redis":
		return StoreRedis
	default:
		return strings.ToLower(strings.TrimSpace(kind))
	}
}
