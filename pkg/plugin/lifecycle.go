// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

// Error codes for lifecycle failures.
const (
	CodeAlreadyRunning  = "ALREADY_RUNNING"
	CodePartialStart    = "PARTIAL_START"
	CodeEmitterDetached = "EMITTER_DETACHED"
)

// Lifecycle implements the shared parts of the Plugin contract. Plugins
// embed it and supply their own Start, which calls Lifecycle.Begin with the
// registrations they support.
type Lifecycle struct {
	info     Info
	status   StatusTracker
	teardown func(ctx context.Context)

	mu      sync.RWMutex
	emitter Emitter
}

// NewLifecycle creates a stopped lifecycle for the plugin described by info.
func NewLifecycle(info Info) *Lifecycle {
	return &Lifecycle{info: info}
}

// OnTeardown sets a func run when Stop succeeds.
func (l *Lifecycle) OnTeardown(fn func(ctx context.Context)) {
	l.teardown = fn
}

// Info returns identity metadata.
func (l *Lifecycle) Info() Info {
	return l.info
}

// Status returns the current state.
func (l *Lifecycle) Status() Status {
	return l.status.Status()
}

// Begin attaches emitter, moves the plugin to Running, emits one
// RegisterHandler action per registration and then a final Log action.
// Each registration carries its position in regs, so starting again after
// a stop replaces the earlier handlers instead of adding copies.
//
// Registrations that fail validation or emission are skipped; the others
// are still registered and a CodePartialStart error reports the count.
func (l *Lifecycle) Begin(ctx context.Context, emitter Emitter, regs []Registration) error {
	if !l.status.MarkRunning() {
		return oops.Code(CodeAlreadyRunning).
			With("plugin", l.info.Name).
			Errorf("plugin %s is already running", l.info.Name)
	}

	l.mu.Lock()
	l.emitter = emitter
	l.mu.Unlock()

	failed := 0
	for i, reg := range regs {
		reg.slot = i + 1
		err := reg.Validate()
		if err == nil {
			err = l.Emit(ctx, RegisterHandler(reg))
		}
		if err != nil {
			failed++
			slog.WarnContext(ctx, "command registration failed",
				"plugin", l.info.Name,
				"command", string(reg.Command),
				"help", reg.Help.Name,
				"error", err)
		}
	}

	if err := l.Logf(ctx, SeverityInfo, "%s loaded.", l.info.Name); err != nil {
		return err
	}

	if failed > 0 {
		return oops.Code(CodePartialStart).
			With("plugin", l.info.Name).
			With("failed", failed).
			With("total", len(regs)).
			Errorf("%d of %d registrations failed", failed, len(regs))
	}
	return nil
}

// Stop refuses while the plugin is Running or Processing; the refusal is
// reported as a Log action. Otherwise it logs, tears down and stays Stopped.
func (l *Lifecycle) Stop(ctx context.Context) error {
	switch l.status.Status() {
	case StatusRunning, StatusProcessing:
		return l.Logf(ctx, SeverityInfo, "Stop called but process is running from: %s", l.info.Name)
	}

	l.status.MarkStopped()
	if l.teardown != nil {
		l.teardown(ctx)
	}
	return l.Logf(ctx, SeverityInfo, "Stop called from: %s", l.info.Name)
}

// ForceStop moves the plugin to Stopped unconditionally. In-flight
// handlers are not cancelled.
func (l *Lifecycle) ForceStop(ctx context.Context) error {
	l.status.MarkStopped()
	return l.Logf(ctx, SeverityInfo, "Force stop, unloading: %s", l.info.Name)
}

// Track wraps h so the plugin reports Processing while it runs.
func (l *Lifecycle) Track(h Handler) Handler {
	return func(ctx context.Context, ev *Event) error {
		end := l.status.Begin()
		defer end()
		return h(ctx, ev)
	}
}

// Emit forwards action to the attached emitter. Actions emitted before
// Begin are dropped with CodeEmitterDetached.
func (l *Lifecycle) Emit(ctx context.Context, action Action) error {
	l.mu.RLock()
	emitter := l.emitter
	l.mu.RUnlock()

	if emitter == nil {
		return oops.Code(CodeEmitterDetached).
			With("plugin", l.info.Name).
			With("action", action.Kind().String()).
			Errorf("plugin %s has no emitter", l.info.Name)
	}
	//nolint:wrapcheck // emitter errors already carry host context
	return emitter.Emit(ctx, action)
}

// Logf emits a Log action.
func (l *Lifecycle) Logf(ctx context.Context, severity Severity, format string, args ...any) error {
	return l.Emit(ctx, Logf(severity, format, args...))
}

// Reply emits a PRIVMSG to target.
func (l *Lifecycle) Reply(ctx context.Context, target, text string) error {
	return l.Emit(ctx, Reply(target, text))
}
