// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"fmt"

	"github.com/holomush/convex/pkg/irc"
)

// ActionKind identifies what an Action asks the host to do.
type ActionKind uint8

// Action kinds.
const (
	ActionRegisterHandler ActionKind = iota + 1
	ActionSendMessage
	ActionLog
	ActionSignalTerminate
)

// String returns the string representation of an ActionKind.
// Unrecognized kinds return "unknown".
func (k ActionKind) String() string {
	switch k {
	case ActionRegisterHandler:
		return "register_handler"
	case ActionSendMessage:
		return "send_message"
	case ActionLog:
		return "log"
	case ActionSignalTerminate:
		return "signal_terminate"
	default:
		return "unknown"
	}
}

// LogEntry is the payload of a Log action.
type LogEntry struct {
	Text     string
	Severity Severity
}

// Action is an immutable request for a side effect. Build actions with the
// constructors below; the zero value is invalid.
type Action struct {
	kind         ActionKind
	registration Registration
	message      irc.Outgoing
	log          LogEntry
}

// RegisterHandler asks the host to add reg to its command table.
func RegisterHandler(reg Registration) Action {
	return Action{kind: ActionRegisterHandler, registration: reg}
}

// SendMessage asks the host to send a protocol message.
func SendMessage(command irc.Command, target, text string) Action {
	return Action{kind: ActionSendMessage, message: irc.Outgoing{Command: command, Target: target, Text: text}}
}

// Reply is SendMessage of a PRIVMSG to target.
func Reply(target, text string) Action {
	return SendMessage(irc.PRIVMSG, target, text)
}

// Log asks the host to write text at the given severity.
func Log(severity Severity, text string) Action {
	return Action{kind: ActionLog, log: LogEntry{Text: text, Severity: severity}}
}

// Logf is Log with formatting.
func Logf(severity Severity, format string, args ...any) Action {
	return Log(severity, fmt.Sprintf(format, args...))
}

// SignalTerminate asks the host to shut down.
func SignalTerminate() Action {
	return Action{kind: ActionSignalTerminate}
}

// Kind returns the action kind.
func (a Action) Kind() ActionKind { return a.kind }

// Registration returns the payload of a RegisterHandler action.
func (a Action) Registration() (Registration, bool) {
	return a.registration, a.kind == ActionRegisterHandler
}

// Message returns the payload of a SendMessage action.
func (a Action) Message() (irc.Outgoing, bool) {
	return a.message, a.kind == ActionSendMessage
}

// LogEntry returns the payload of a Log action.
func (a Action) LogEntry() (LogEntry, bool) {
	return a.log, a.kind == ActionLog
}

func (a Action) String() string {
	switch a.kind {
	case ActionRegisterHandler:
		return fmt.Sprintf("%s(%s %s)", a.kind, a.registration.Command, a.registration.Help.Name)
	case ActionSendMessage:
		return fmt.Sprintf("%s(%s)", a.kind, a.message)
	case ActionLog:
		return fmt.Sprintf("%s(%s: %s)", a.kind, a.log.Severity, a.log.Text)
	default:
		return a.kind.String()
	}
}

// Emitter receives actions from a plugin.
type Emitter interface {
	Emit(ctx context.Context, action Action) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, action Action) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, action Action) error {
	return f(ctx, action)
}
