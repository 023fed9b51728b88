// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package logging provides structured logging for the bot. Records carry
// the service identity, the OpenTelemetry trace of the event being handled
// and, inside a command handler, the plugin and command that produced them.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

type handlerKey struct{}

// origin names the command handler a context belongs to.
type origin struct {
	plugin  string
	command string
}

// WithHandler tags ctx so records logged with it name the plugin and
// command being run.
func WithHandler(ctx context.Context, pluginName, commandName string) context.Context {
	return context.WithValue(ctx, handlerKey{}, origin{plugin: pluginName, command: commandName})
}

// contextHandler decorates records with fixed identity attributes and
// whatever the context knows about the current event.
type contextHandler struct {
	next   slog.Handler
	static []slog.Attr
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.static...)

	if o, ok := ctx.Value(handlerKey{}).(origin); ok {
		r.AddAttrs(slog.String("plugin", o.plugin), slog.String("command", o.command))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), static: h.static}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), static: h.static}
}

// Options configures Setup.
type Options struct {
	Service string
	Version string
	Format  string       // "json" or "text"; empty means "json"
	Level   slog.Leveler // nil means LevelTrace
	Writer  io.Writer    // nil means os.Stderr
}

// Setup creates a configured slog.Logger. Level names are rendered with
// the TRACE and FATAL extensions.
func Setup(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = LevelTrace
	}

	handlerOpts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel}

	var next slog.Handler
	if opts.Format == "text" {
		next = slog.NewTextHandler(w, handlerOpts)
	} else {
		next = slog.NewJSONHandler(w, handlerOpts)
	}

	var static []slog.Attr
	if opts.Service != "" {
		static = append(static, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		static = append(static, slog.String("version", opts.Version))
	}
	return slog.New(&contextHandler{next: next, static: static})
}

// SetDefault sets up and installs the default logger.
func SetDefault(opts Options) *slog.Logger {
	logger := Setup(opts)
	slog.SetDefault(logger)
	return logger
}
