// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/holomush/convex/internal/host"
	ircconn "github.com/holomush/convex/internal/irc"
	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/pkg/irc"
)

// fakeConn is a scripted connection.
type fakeConn struct {
	mu       sync.Mutex
	sent     []irc.Outgoing
	messages chan irc.Message
	open     bool
	once     sync.Once
}

func newFakeConn(t *testing.T, lines ...string) *fakeConn {
	t.Helper()
	c := &fakeConn{messages: make(chan irc.Message, len(lines)+1), open: true}
	for _, line := range lines {
		msg, err := irc.Parse(line)
		require.NoError(t, err)
		c.messages <- msg
	}
	return c
}

func (c *fakeConn) SendData(_ context.Context, out irc.Outgoing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, out)
	return nil
}

func (c *fakeConn) Messages() <-chan irc.Message { return c.messages }

func (c *fakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Quit(ctx context.Context, reason string) error {
	_ = c.SendData(ctx, irc.Outgoing{Command: irc.QUIT, Text: reason})
	return c.Close()
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		close(c.messages)
	})
	return nil
}

func (c *fakeConn) Sent() []irc.Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]irc.Outgoing(nil), c.sent...)
}

// dialerFor returns a Dialer that hands out conn and records its config.
func dialerFor(conn host.Connection, got *ircconn.Config) func(context.Context, ircconn.Config) (host.Connection, error) {
	return func(_ context.Context, cfg ircconn.Config) (host.Connection, error) {
		if got != nil {
			*got = cfg
		}
		return conn, nil
	}
}

// fakeObsServer records lifecycle calls.
type fakeObsServer struct {
	registry *prometheus.Registry
	ready    observability.ReadinessChecker
	started  bool
	stopped  bool
	startErr error
}

func (s *fakeObsServer) Start() (<-chan error, error) {
	s.started = true
	if s.startErr != nil {
		return nil, s.startErr
	}
	return make(chan error), nil
}

func (s *fakeObsServer) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func (s *fakeObsServer) Addr() string                    { return "127.0.0.1:0" }
func (s *fakeObsServer) Registry() prometheus.Registerer { return s.registry }
func (s *fakeObsServer) Metrics() *observability.Metrics { return nil }

// keepDefaultLogger restores the default logger replaced by a run.
func keepDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}
