// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package irc defines the chat-protocol message model shared by the host and plugins.
package irc

import "strings"

// Command identifies a protocol command or numeric reply.
type Command string

// Commands the bot sends or reacts to.
const (
	PRIVMSG Command = "PRIVMSG"
	NOTICE  Command = "NOTICE"
	JOIN    Command = "JOIN"
	PART    Command = "PART"
	MODE    Command = "MODE"
	NICK    Command = "NICK"
	USER    Command = "USER"
	PASS    Command = "PASS"
	PING    Command = "PING"
	PONG    Command = "PONG"
	QUIT    Command = "QUIT"
	ERROR   Command = "ERROR"

	// WelcomeReply is sent by the server once registration succeeds.
	WelcomeReply Command = "001"
	// MotdReplyEnd terminates the server greeting.
	MotdReplyEnd Command = "376"
)

// Normalize upper-cases a command so table lookups are case-insensitive.
func (c Command) Normalize() Command {
	return Command(strings.ToUpper(string(c)))
}

func (c Command) String() string {
	return string(c)
}
