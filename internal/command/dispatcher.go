// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command owns the command table and dispatches inbound events to
// the handlers plugins registered.
package command

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/convex/internal/logging"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

var tracer = otel.Tracer("convex/command")

// poolReleaseTimeout bounds how long Close waits for idle pool workers.
const poolReleaseTimeout = time.Second

// Dispatcher evaluates registrations for each inbound event and runs the
// accepted handlers on a worker pool. Dispatch never waits for handlers.
type Dispatcher struct {
	registry    *Registry
	pool        *ants.Pool
	poolSize    int
	failures    plugin.Emitter // optional
	rateLimiter *RateLimiter   // optional

	handlerCtx     context.Context
	cancelHandlers context.CancelFunc

	mu       sync.RWMutex // orders Dispatch against Close
	closed   atomic.Bool
	inflight sync.WaitGroup
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithPoolSize bounds the number of handlers running at once. Zero or a
// negative size means unbounded.
func WithPoolSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		d.poolSize = size
	}
}

// WithFailureEmitter sets where failure replies go. Without it, failures
// are only logged.
func WithFailureEmitter(emitter plugin.Emitter) DispatcherOption {
	return func(d *Dispatcher) {
		d.failures = emitter
	}
}

// WithRateLimiter throttles senders that address the bot too often.
// Operators (access 0) are exempt. The dispatcher closes rl on Close.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}

	pool, err := ants.NewPool(d.poolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(recovered any) {
			slog.Error("handler pool worker panicked", "panic", recovered)
		}),
	)
	if err != nil {
		return nil, oops.Code(CodePoolOverload).
			With("size", d.poolSize).
			Wrapf(err, "creating handler pool")
	}
	d.pool = pool
	d.handlerCtx, d.cancelHandlers = context.WithCancel(context.Background())
	return d, nil
}

// Registry returns the command table the dispatcher reads.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch launches every accepted handler for ev and returns without
// waiting for them. Registrations are evaluated in insertion order;
// registrations of stopped plugins are skipped. Unmatched events are
// dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *plugin.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return ErrDispatcherClosed()
	}

	command := ev.Message.Command.Normalize()
	RecordDispatch(string(command))

	ctx, span := tracer.Start(ctx, "command.dispatch",
		trace.WithAttributes(
			attribute.String("irc.command", string(command)),
			attribute.String("irc.origin", ev.Message.Origin),
		),
	)
	defer span.End()

	if d.throttled(ctx, ev) {
		span.SetAttributes(attribute.Bool("command.rate_limited", true))
		return nil
	}

	launched := 0
	for _, entry := range d.registry.Snapshot(command) {
		if entry.Owner.Status() == plugin.StatusStopped {
			continue
		}
		if !d.accepts(ctx, entry, ev) {
			continue
		}
		d.launch(ctx, entry, ev)
		launched++
	}
	span.SetAttributes(attribute.Int("command.handlers", launched))
	return nil
}

func (d *Dispatcher) throttled(ctx context.Context, ev *plugin.Event) bool {
	if d.rateLimiter == nil || ev.Caller == nil || ev.Message.Command != irc.PRIVMSG {
		return false
	}
	if !ev.Message.AddressedTo(ev.Caller.Nickname()) {
		return false
	}
	if u, ok := ev.Caller.Roster().User(ev.Message.Realname); ok && u.Access == 0 {
		return false
	}

	allowed, cooldownMs := d.rateLimiter.Allow(ev.Message.Source)
	if allowed {
		return false
	}
	slog.WarnContext(ctx, "sender throttled",
		"error", ErrRateLimited(ev.Message.Source, cooldownMs),
		"cooldown_ms", cooldownMs)
	return true
}

// accepts evaluates the guard; a panicking guard rejects the event.
func (d *Dispatcher) accepts(ctx context.Context, e Entry, ev *plugin.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			errutil.LogErrorContext(ctx, nil, "command guard panicked",
				ErrGuardPanic(e.PluginName(), e.Label(), r))
			ok = false
		}
	}()
	return e.Registration.Matches(ev)
}

func (d *Dispatcher) launch(ctx context.Context, e Entry, ev *plugin.Event) {
	// handlers outlive the dispatch call; keep the trace, drop the deadline
	hctx := trace.ContextWithSpanContext(d.handlerCtx, trace.SpanContextFromContext(ctx))

	d.inflight.Add(1)
	err := d.pool.Submit(func() {
		defer d.inflight.Done()
		d.invoke(hctx, e, ev)
	})
	if err == nil {
		return
	}
	d.inflight.Done()

	rec := newInvocationRecorder(e)
	rec.setStatus(StatusRejected)
	rec.record()

	err = ErrPoolOverload(e.PluginName(), e.Label(), err)
	errutil.LogErrorContext(ctx, nil, "command handler not scheduled", err)
	d.replyFailure(ctx, ev, err)
}

func (d *Dispatcher) invoke(ctx context.Context, e Entry, ev *plugin.Event) {
	rec := newInvocationRecorder(e)
	defer rec.record()

	ctx, span := tracer.Start(ctx, "command.handler",
		trace.WithAttributes(
			attribute.String("plugin.name", e.PluginName()),
			attribute.String("command.name", e.Label()),
		),
	)
	defer span.End()
	ctx = logging.WithHandler(ctx, e.PluginName(), e.Label())

	err := d.run(ctx, e, ev, rec)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	errutil.LogErrorContext(ctx, nil, "command handler failed", err,
		"origin", ev.Message.Origin)
	d.replyFailure(ctx, ev, err)
}

// run calls the handler, converting a panic into an error.
func (d *Dispatcher) run(ctx context.Context, e Entry, ev *plugin.Event, rec *invocationRecorder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rec.setStatus(StatusPanic)
			err = ErrHandlerPanic(e.PluginName(), e.Label(), r)
		}
	}()

	if herr := e.Registration.Handler(ctx, ev); herr != nil {
		rec.setStatus(StatusError)
		return ErrHandlerFailed(e.PluginName(), e.Label(), herr)
	}
	return nil
}

// replyFailure tells the sender of a message that their command failed.
func (d *Dispatcher) replyFailure(ctx context.Context, ev *plugin.Event, err error) {
	if d.failures == nil || ev.Message.Command != irc.PRIVMSG || ev.Message.Origin == "" {
		return
	}
	if emitErr := d.failures.Emit(ctx, plugin.Reply(ev.Message.Origin, UserMessage(err))); emitErr != nil {
		slog.WarnContext(ctx, "failed to send failure reply",
			"origin", ev.Message.Origin,
			"error", emitErr)
	}
}

// Running returns the number of handlers currently executing.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Wait blocks until every launched handler has returned.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// Close stops intake and waits for in-flight handlers until ctx is done.
// Handlers still running at that point see their context cancelled and
// Close returns CodeDrainTimeout. Close is idempotent.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	first := d.closed.CompareAndSwap(false, true)
	d.mu.Unlock()
	if !first {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = oops.Code(CodeDrainTimeout).
			With("running", d.pool.Running()).
			Wrapf(ctx.Err(), "waiting for in-flight handlers")
	}
	d.cancelHandlers()

	if releaseErr := d.pool.ReleaseTimeout(poolReleaseTimeout); releaseErr != nil {
		slog.WarnContext(ctx, "handler pool did not release in time", "error", releaseErr)
	}
	if d.rateLimiter != nil {
		d.rateLimiter.Close()
	}
	return err
}
