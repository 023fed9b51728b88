// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"fmt"

	"github.com/samber/oops"
)

// Error codes for dispatch failures.
const (
	CodeHandlerFailed    = "HANDLER_FAILED"
	CodeHandlerPanic     = "HANDLER_PANIC"
	CodeGuardPanic       = "GUARD_PANIC"
	CodePoolOverload     = "POOL_OVERLOAD"
	CodeRateLimited      = "RATE_LIMITED"
	CodeDispatcherClosed = "DISPATCHER_CLOSED"
	CodeDrainTimeout     = "DRAIN_TIMEOUT"
	CodeNilRegistry      = "NIL_REGISTRY"
)

// ErrNilRegistry is returned by NewDispatcher without a registry.
var ErrNilRegistry = oops.Code(CodeNilRegistry).Errorf("registry is required")

// ErrHandlerFailed wraps an error returned by a handler.
func ErrHandlerFailed(pluginName, command string, cause error) error {
	return oops.Code(CodeHandlerFailed).
		With("plugin", pluginName).
		With("command", command).
		Wrapf(cause, "handler failed")
}

// ErrHandlerPanic converts a recovered handler panic into an error.
func ErrHandlerPanic(pluginName, command string, recovered any) error {
	return oops.Code(CodeHandlerPanic).
		With("plugin", pluginName).
		With("command", command).
		With("panic", fmt.Sprint(recovered)).
		Errorf("handler panicked: %v", recovered)
}

// ErrGuardPanic converts a recovered guard panic into an error.
func ErrGuardPanic(pluginName, command string, recovered any) error {
	return oops.Code(CodeGuardPanic).
		With("plugin", pluginName).
		With("command", command).
		With("panic", fmt.Sprint(recovered)).
		Errorf("guard panicked: %v", recovered)
}

// ErrPoolOverload reports that a handler could not be scheduled.
func ErrPoolOverload(pluginName, command string, cause error) error {
	return oops.Code(CodePoolOverload).
		With("plugin", pluginName).
		With("command", command).
		Wrapf(cause, "scheduling handler")
}

// ErrRateLimited reports a sender that exceeded its command budget.
func ErrRateLimited(sender string, cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("sender", sender).
		With("cooldown_ms", cooldownMs).
		Errorf("Too many commands. Please slow down.")
}

// ErrDispatcherClosed is returned by Dispatch after Close.
func ErrDispatcherClosed() error {
	return oops.Code(CodeDispatcherClosed).Errorf("dispatcher is closed")
}

// UserMessage extracts a short user-facing reply from a dispatch error.
func UserMessage(err error) string {
	const generic = "Something went wrong running that command."
	if err == nil {
		return generic
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return generic
	}

	switch oopsErr.Code() {
	case CodeHandlerFailed, CodeHandlerPanic:
		return "That command failed. Try again later."
	case CodePoolOverload:
		return "I'm too busy right now. Try again shortly."
	default:
		return generic
	}
}
