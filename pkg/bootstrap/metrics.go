package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the Prometheus registry on /metrics.
type MetricsServer struct {
	server *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// StartMetrics listens on addr and serves /metrics in the background.
func StartMetrics(addr string, logger *slog.Logger) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	m := &MetricsServer{
		server: &http.Server{
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}
	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	logger.Info("Metrics server listening", "addr", ln.Addr().String())
	return m, nil
}

// Addr returns the bound address, useful when addr had port 0.
func (m *MetricsServer) Addr() string { return m.ln.Addr().String() }

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	err := m.server.Shutdown(ctx)
	m.logger.Info("Metrics server stopped", "addr", m.Addr())
	return err
}
