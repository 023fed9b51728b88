// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package observability serves the bot's Prometheus metrics and its
// liveness and readiness probes.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// CodeServerRunning is returned by Start on a server that is already up.
const CodeServerRunning = "OBSERVABILITY_RUNNING"

// ReadinessChecker reports whether the bot holds a live server connection.
type ReadinessChecker func() bool

// goroutineLimit fails liveness when exceeded; a leak in the handler pool
// shows up here first.
const goroutineLimit = 10000

const readHeaderTimeout = 10 * time.Second

var errNotConnected = errors.New("not connected to an IRC server")

// Server exposes /metrics, /live and /ready over HTTP.
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *Metrics
	health   healthcheck.Handler

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

// NewServer creates a server that will listen on addr ("host:port"; port 0
// picks a free one). A nil ready checker always reports ready.
func NewServer(addr string, ready ReadinessChecker) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	health := healthcheck.NewMetricsHandler(registry, "convex")
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(goroutineLimit))
	health.AddReadinessCheck("irc-connection", func() error {
		if ready != nil && !ready() {
			return errNotConnected
		}
		return nil
	})

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		health:   health,
	}
}

// Metrics returns the connection metrics registered on this server.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Registry accepts collectors from other packages for /metrics.
func (s *Server) Registry() prometheus.Registerer { return s.registry }

// Handler routes the observability endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/live", s.health.LiveEndpoint)
	mux.HandleFunc("/ready", s.health.ReadyEndpoint)
	return mux
}

// Start listens and serves in the background. Serve failures arrive on the
// returned channel, which is closed once serving ends.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, oops.Code(CodeServerRunning).With("addr", s.ln.Addr().String()).
			Errorf("observability server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.With("addr", s.addr).Wrapf(err, "listening for observability")
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: readHeaderTimeout}
	s.ln, s.srv = ln, srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server error", "error", err)
			errCh <- err
		}
	}()
	return errCh, nil
}

// Stop shuts the server down gracefully. Stopping an idle server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return oops.With("addr", s.ln.Addr().String()).Wrapf(err, "stopping observability server")
	}
	s.ln, s.srv = nil, nil
	slog.Info("observability server stopped")
	return nil
}

// Addr returns the bound address, or "" when the server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
