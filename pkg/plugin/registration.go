// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/convex/pkg/irc"
)

// CodeInvalidRegistration is returned for registrations that cannot be dispatched.
const CodeInvalidRegistration = "INVALID_REGISTRATION"

// Handler processes an inbound event. Results are reported through the
// owning plugin's Emitter; a returned error is a dispatch-level failure.
type Handler func(ctx context.Context, ev *Event) error

// Guard decides whether a handler runs for an event. Guards must be pure
// functions of the event.
type Guard func(ev *Event) bool

// HelpEntry is user-facing discovery metadata for a command.
type HelpEntry struct {
	Name        string
	Description string
}

// Listed reports whether the entry should appear in help output.
func (h HelpEntry) Listed() bool {
	return h.Name != ""
}

// Registration binds a handler to a protocol command.
type Registration struct {
	Handler Handler
	Guard   Guard       // nil matches every event
	Command irc.Command // e.g. irc.PRIVMSG
	Help    HelpEntry   // zero value for unlisted handlers

	slot int // position in the owner's start sequence, 1-based; 0 if unset
}

// Slot returns the registration's position in its plugin's start sequence,
// or 0 for registrations not emitted by Lifecycle.Begin. The host uses it to
// replace, rather than duplicate, the handlers of a restarted plugin.
func (r Registration) Slot() int {
	return r.slot
}

// Matches reports whether the registration's guard accepts ev.
func (r Registration) Matches(ev *Event) bool {
	return r.Guard == nil || r.Guard(ev)
}

// Validate checks that the registration can be dispatched.
func (r Registration) Validate() error {
	if r.Handler == nil {
		return oops.Code(CodeInvalidRegistration).
			With("command", string(r.Command)).
			With("help", r.Help.Name).
			Errorf("registration has no handler")
	}
	if r.Command == "" {
		return oops.Code(CodeInvalidRegistration).
			With("help", r.Help.Name).
			Errorf("registration has no command")
	}
	return nil
}
