// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/convex/internal/command"
	"github.com/holomush/convex/internal/roster"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// Error codes for host failures.
const (
	CodeConnectionLost = "CONNECTION_LOST"
	CodeNoConnection   = "NO_CONNECTION"
)

// DefaultDrainTimeout bounds how long shutdown waits for running handlers.
const DefaultDrainTimeout = 5 * time.Second

// quitMessage is sent with QUIT on an orderly shutdown.
const quitMessage = "Shutting down"

// Connection is the protocol connection the host drives.
type Connection interface {
	Sender
	Messages() <-chan irc.Message
	Connected() bool
	Quit(ctx context.Context, reason string) error
	Close() error
}

// Config describes the identity the host presents to plugins.
type Config struct {
	Nickname string
	Password string
	Version  string

	// Workers bounds concurrent handlers; zero means unbounded.
	Workers int
	// DrainTimeout defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration
	// RateLimit enables per-sender flood control when set.
	RateLimit *command.RateLimiterConfig
	// Logger receives plugin Log actions; nil uses slog.Default.
	Logger *slog.Logger
}

// Host owns the command table, the dispatcher and the action bridge. It
// implements plugin.Caller for the plugins it loads.
type Host struct {
	cfg        Config
	conn       Connection
	roster     *roster.Roster
	registry   *command.Registry
	dispatcher *command.Dispatcher
	bridge     *Bridge
	builtin    *plugin.Lifecycle

	mu      sync.RWMutex
	plugins []plugin.Plugin

	executing    atomic.Bool
	shutdownOnce sync.Once
}

// New creates a host that reads from conn and tracks state in r.
func New(cfg Config, conn Connection, r *roster.Roster) (*Host, error) {
	if conn == nil {
		return nil, oops.Code(CodeNoConnection).Errorf("connection is required")
	}
	if r == nil {
		r = roster.New()
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}

	info, err := plugin.NewInfo("Host", "convex", cfg.Version)
	if err != nil {
		slog.Debug("host version is not semver, using 0.0.0",
			"version", cfg.Version,
			"error", err)
		info = plugin.MustInfo("Host", "convex", "0.0.0")
	}

	h := &Host{
		cfg:      cfg,
		conn:     conn,
		roster:   r,
		registry: command.NewRegistry(),
		builtin:  plugin.NewLifecycle(info),
	}

	var bridgeOpts []BridgeOption
	if cfg.Logger != nil {
		bridgeOpts = append(bridgeOpts, WithLogger(cfg.Logger))
	}
	h.bridge = NewBridge(h.registry, conn, h, bridgeOpts...)

	opts := []command.DispatcherOption{
		command.WithPoolSize(cfg.Workers),
		command.WithFailureEmitter(h.bridge.EmitterFor(h.builtin)),
	}
	if cfg.RateLimit != nil {
		opts = append(opts, command.WithRateLimiter(command.NewRateLimiter(*cfg.RateLimit, nil)))
	}
	h.dispatcher, err = command.NewDispatcher(h.registry, opts...)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	return h, nil
}

// Nickname implements plugin.Caller.
func (h *Host) Nickname() string { return h.cfg.Nickname }

// Password implements plugin.Caller.
func (h *Host) Password() string { return h.cfg.Password }

// Version implements plugin.Caller.
func (h *Host) Version() string { return h.cfg.Version }

// Roster implements plugin.Caller.
func (h *Host) Roster() plugin.Roster { return h.roster }

// Commands implements plugin.Caller.
func (h *Host) Commands() plugin.CommandIndex { return h.registry }

// Registry returns the command table.
func (h *Host) Registry() *command.Registry { return h.registry }

// Executing reports whether the event loop is running.
func (h *Host) Executing() bool { return h.executing.Load() }

// Loaded returns the plugins started so far, in load order.
func (h *Host) Loaded() []plugin.Plugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]plugin.Plugin, len(h.plugins))
	copy(out, h.plugins)
	return out
}

// Load starts each plugin with its own emitter. A plugin that fails to
// start is logged and skipped; one that registered only some of its
// commands stays loaded.
func (h *Host) Load(ctx context.Context, plugins ...plugin.Plugin) {
	h.bridge.Start(ctx)

	for _, p := range plugins {
		name := p.Info().Name
		err := p.Start(ctx, h.bridge.EmitterFor(p))
		if err != nil && !errutil.HasCode(err, plugin.CodePartialStart) {
			errutil.LogErrorContext(ctx, nil, "failed to load plugin", err, "plugin", name)
			continue
		}
		if err != nil {
			errutil.LogErrorContext(ctx, nil, "plugin loaded incomplete", err, "plugin", name)
		}

		h.mu.Lock()
		h.plugins = append(h.plugins, p)
		h.mu.Unlock()

		slog.InfoContext(ctx, "loaded plugin",
			"plugin", name,
			"author", p.Info().Author,
			"version", p.Info().VersionString())
	}
}

func (h *Host) builtinRegistrations() []plugin.Registration {
	return []plugin.Registration{{
		Command: irc.PRIVMSG,
		Guard:   func(ev *plugin.Event) bool { return ev.InputEquals("info") },
		Handler: h.info,
		Help: plugin.HelpEntry{
			Name:        "Info",
			Description: "returns the basic information about this bot",
		},
	}}
}

func (h *Host) info(ctx context.Context, ev *plugin.Event) error {
	return h.builtin.Reply(ctx, ev.Message.Origin, fmt.Sprintf(
		"[Version %s] %s is an IRC bot created by SemiViral as a primary learning project.",
		h.cfg.Version, h.cfg.Nickname))
}

// Run feeds inbound messages to the dispatcher until a plugin requests
// termination, the connection ends or ctx is cancelled, then shuts down in
// order. A lost connection is returned as CodeConnectionLost.
func (h *Host) Run(ctx context.Context) error {
	h.bridge.Start(ctx)
	if err := h.builtin.Begin(ctx, h.bridge.EmitterFor(h.builtin), h.builtinRegistrations()); err != nil {
		errutil.LogErrorContext(ctx, nil, "built-in commands incomplete", err)
	}

	h.executing.Store(true)
	err := h.loop(ctx)
	h.executing.Store(false)

	h.Shutdown(context.WithoutCancel(ctx))
	return err
}

func (h *Host) loop(ctx context.Context) error {
	messages := h.conn.Messages()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "stopping on signal")
			return nil
		case <-h.bridge.Terminated():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return oops.Code(CodeConnectionLost).Errorf("connection closed by server")
			}
			h.handle(ctx, msg)
		}
	}
}

func (h *Host) handle(ctx context.Context, msg irc.Message) {
	h.logInbound(ctx, msg)
	h.track(msg)

	ev := &plugin.Event{Message: msg, Caller: h}
	if err := h.dispatcher.Dispatch(ctx, ev); err != nil {
		errutil.LogErrorContext(ctx, nil, "dispatch failed", err,
			"command", string(msg.Command))
	}
}

func (h *Host) logInbound(ctx context.Context, msg irc.Message) {
	switch msg.Command {
	case irc.PRIVMSG:
		slog.InfoContext(ctx, "privmsg",
			"origin", msg.Origin,
			"nick", msg.Nickname,
			"text", msg.Args)
	case irc.ERROR:
		slog.ErrorContext(ctx, "server error", "line", msg.Raw)
	default:
		slog.InfoContext(ctx, "inbound", "command", string(msg.Command), "line", msg.Raw)
	}
}

// track keeps the roster in step with the bot's own joins and parts. A
// welcome reply starts a new session, so channels must be joined again.
func (h *Host) track(msg irc.Message) {
	if msg.Command == irc.WelcomeReply {
		h.roster.ResetConnections()
		return
	}
	if !strings.EqualFold(msg.Nickname, h.cfg.Nickname) || len(msg.Params) == 0 {
		return
	}
	name := msg.Params[0]
	switch msg.Command {
	case irc.JOIN:
		if !h.roster.MarkConnected(name) {
			h.roster.AddChannel(irc.Channel{Name: name, Connected: true})
		}
	case irc.PART:
		h.roster.RemoveChannel(name)
	}
}

// Shutdown stops intake, lets running handlers finish within the drain
// timeout, force-stops every plugin, applies the remaining actions and
// leaves the server. It runs once.
func (h *Host) Shutdown(ctx context.Context) {
	h.shutdownOnce.Do(func() {
		h.executing.Store(false)

		drainCtx, cancel := context.WithTimeout(ctx, h.cfg.DrainTimeout)
		defer cancel()
		if err := h.dispatcher.Close(drainCtx); err != nil {
			errutil.LogErrorContext(ctx, nil, "handlers still running at shutdown", err)
		}

		h.bridge.terminate(ctx, h.builtin)
		if err := h.builtin.ForceStop(ctx); err != nil {
			slog.DebugContext(ctx, "built-in stop not logged", "error", err)
		}
		h.bridge.Close()

		if h.conn.Connected() {
			if err := h.conn.Quit(ctx, quitMessage); err != nil {
				slog.WarnContext(ctx, "quit failed", "error", err)
			}
		} else if err := h.conn.Close(); err != nil {
			slog.WarnContext(ctx, "closing connection failed", "error", err)
		}
		slog.InfoContext(ctx, "shutdown complete")
	})
}
