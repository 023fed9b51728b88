// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"strings"

	"github.com/holomush/convex/pkg/irc"
)

// NotFound is returned by CommandIndex.HelpFor for unregistered names.
const NotFound = "not found"

// Event is an inbound protocol message together with a view of the host
// that received it.
type Event struct {
	Message irc.Message
	Caller  Caller
}

// InputEquals reports whether the message addresses the bot by nickname
// and names command as its second token.
func (e *Event) InputEquals(command string) bool {
	if e == nil || e.Caller == nil {
		return false
	}
	return e.Message.AddressedTo(e.Caller.Nickname()) &&
		e.Message.InputCommand == strings.ToLower(command)
}

// Caller is the read-mostly view of the host that handlers may consult.
type Caller interface {
	Nickname() string
	Password() string
	Version() string
	Roster() Roster
	Commands() CommandIndex
}

// Roster tracks the channels the bot is in and the users it knows.
type Roster interface {
	Channels() []irc.Channel
	Channel(name string) (irc.Channel, bool)
	AddChannel(ch irc.Channel) bool
	RemoveChannel(name string) bool
	MarkConnected(name string) bool

	User(realname string) (irc.User, bool)
	Users() []irc.User

	Ignored(nickname, realname, hostname string) bool

	Identified() bool
	// MarkIdentified sets the identified flag and reports whether this call
	// changed it.
	MarkIdentified() bool
}

// CommandIndex exposes the help metadata of registered commands.
type CommandIndex interface {
	// HelpEntries lists listed commands in registration order.
	HelpEntries() []HelpEntry
	// Help returns the entry registered under name, ignoring case.
	Help(name string) (HelpEntry, bool)
	// HelpFor returns the description registered under name, or NotFound.
	HelpFor(name string) string
	// Exists reports whether a listed command is registered under name.
	Exists(name string) bool
}
