// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package host loads plugins, feeds them inbound protocol events and
// applies the actions they emit.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/convex/internal/command"
	"github.com/holomush/convex/internal/logging"
	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// Error codes for bridge failures.
const (
	CodeBridgeClosed  = "BRIDGE_CLOSED"
	CodeUnknownAction = "UNKNOWN_ACTION"
)

// drainBatch is how many queued actions the drain loop takes at once.
const drainBatch = 16

// Sender writes outbound protocol lines.
type Sender interface {
	SendData(ctx context.Context, out irc.Outgoing) error
}

// PluginSet lists the plugins a terminate request must stop.
type PluginSet interface {
	Loaded() []plugin.Plugin
}

// envelope is one queued action and the plugin that emitted it.
type envelope struct {
	source command.Owner
	action plugin.Action
	span   trace.SpanContext
}

// Bridge applies plugin actions in the order they were emitted. Every
// plugin gets its own emitter; all emitters feed one FIFO queue drained by
// a single goroutine, so the actions of one handler are never reordered.
type Bridge struct {
	registry *command.Registry
	sender   Sender
	plugins  PluginSet
	logger   *slog.Logger

	queue *queue.Queue

	terminateOnce sync.Once
	terminated    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	ctx       context.Context
	drained   chan struct{}
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the logger plugin Log actions are written to.
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge creates a bridge. Call Start before plugins emit.
func NewBridge(registry *command.Registry, sender Sender, plugins PluginSet, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		registry:   registry,
		sender:     sender,
		plugins:    plugins,
		logger:     slog.Default(),
		queue:      queue.New(64),
		terminated: make(chan struct{}),
		drained:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EmitterFor returns the emitter given to source when it starts.
func (b *Bridge) EmitterFor(source command.Owner) plugin.Emitter {
	return plugin.EmitterFunc(func(ctx context.Context, action plugin.Action) error {
		return b.enqueue(ctx, source, action)
	})
}

func (b *Bridge) enqueue(ctx context.Context, source command.Owner, action plugin.Action) error {
	err := b.queue.Put(envelope{
		source: source,
		action: action,
		span:   trace.SpanContextFromContext(ctx),
	})
	if errors.Is(err, queue.ErrDisposed) {
		return oops.Code(CodeBridgeClosed).
			With("plugin", source.Info().Name).
			With("action", action.Kind().String()).
			Errorf("bridge is closed")
	}
	return oops.Wrap(err)
}

// Start launches the drain goroutine. Actions are applied with ctx.
func (b *Bridge) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.ctx = ctx
		go b.drain()
	})
}

func (b *Bridge) drain() {
	defer close(b.drained)
	for {
		items, err := b.queue.Get(drainBatch)
		if err != nil {
			return
		}
		for _, item := range items {
			b.apply(item)
		}
	}
}

func (b *Bridge) apply(item any) {
	env, ok := item.(envelope)
	if !ok {
		slog.Error("dropping unexpected queue item", "type", fmt.Sprintf("%T", item))
		return
	}
	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if env.span.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, env.span)
	}
	if err := b.HandleAction(ctx, env.source, env.action); err != nil {
		errutil.LogErrorContext(ctx, nil, "plugin action failed", err,
			"plugin", env.source.Info().Name,
			"action", env.action.Kind().String())
	}
}

// HandleAction applies one action on behalf of source.
func (b *Bridge) HandleAction(ctx context.Context, source command.Owner, action plugin.Action) error {
	kind := action.Kind()

	switch kind {
	case plugin.ActionRegisterHandler:
		reg, _ := action.Registration()
		if err := b.registry.Register(source, reg); err != nil {
			return err //nolint:wrapcheck // already coded
		}

	case plugin.ActionSendMessage:
		msg, _ := action.Message()
		if err := b.sender.SendData(ctx, msg); err != nil {
			return err //nolint:wrapcheck // already coded
		}

	case plugin.ActionLog:
		entry, _ := action.LogEntry()
		logging.Write(ctx, b.logger, entry.Severity, entry.Text,
			"plugin", source.Info().Name)

	case plugin.ActionSignalTerminate:
		b.terminate(ctx, source)

	default:
		return oops.Code(CodeUnknownAction).
			With("plugin", source.Info().Name).
			With("kind", int(kind)).
			Errorf("unknown action kind")
	}

	observability.RecordAction(kind.String())
	return nil
}

// terminate force-stops every loaded plugin and then signals the host.
func (b *Bridge) terminate(ctx context.Context, source command.Owner) {
	b.terminateOnce.Do(func() {
		slog.InfoContext(ctx, "terminate requested", "plugin", source.Info().Name)
		if b.plugins != nil {
			for _, p := range b.plugins.Loaded() {
				if err := p.ForceStop(ctx); err != nil {
					slog.WarnContext(ctx, "force stop failed",
						"plugin", p.Info().Name,
						"error", err)
				}
			}
		}
		close(b.terminated)
	})
}

// Terminated is closed once a plugin has requested termination.
func (b *Bridge) Terminated() <-chan struct{} {
	return b.terminated
}

// Close stops accepting actions, waits for the drain goroutine and applies
// whatever was still queued. It is safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.startOnce.Do(func() { close(b.drained) })
		pending := b.queue.Dispose()
		<-b.drained
		for _, item := range pending {
			b.apply(item)
		}
	})
}
