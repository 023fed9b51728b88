// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package irc

import (
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/samber/oops"
)

// CodeMalformedLine is returned when a raw protocol line cannot be parsed.
const CodeMalformedLine = "MALFORMED_LINE"

// Message is a parsed inbound protocol line.
type Message struct {
	Raw      string
	Source   string // full prefix, e.g. "nick!user@host"
	Nickname string
	Realname string // user part of the prefix
	Hostname string
	Command  Command
	Params   []string

	// Origin is where replies go: the channel for channel messages,
	// otherwise the sender's nickname.
	Origin string
	// Args is the trailing parameter (the message text for PRIVMSG).
	Args string
	// SplitArgs is Args split on whitespace.
	SplitArgs []string
	// InputCommand is the lower-cased second token of Args, if present.
	InputCommand string
}

// Parse converts a raw protocol line into a Message.
func Parse(line string) (Message, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return Message{}, oops.Code(CodeMalformedLine).Errorf("empty line")
	}

	parsed, err := ircmsg.ParseLine(trimmed)
	if err != nil {
		return Message{}, oops.Code(CodeMalformedLine).
			With("line", trimmed).
			Wrapf(err, "parsing protocol line")
	}

	msg := Message{
		Raw:     trimmed,
		Source:  parsed.Source,
		Command: Command(parsed.Command).Normalize(),
		Params:  parsed.Params,
	}
	msg.Nickname, msg.Realname, msg.Hostname = splitSource(parsed.Source)

	if len(msg.Params) > 0 {
		msg.Args = msg.Params[len(msg.Params)-1]
	}
	msg.SplitArgs = strings.Fields(msg.Args)
	if len(msg.SplitArgs) > 1 {
		msg.InputCommand = strings.ToLower(msg.SplitArgs[1])
	}

	msg.Origin = msg.Nickname
	if len(msg.Params) > 0 && IsChannel(msg.Params[0]) {
		msg.Origin = msg.Params[0]
	}

	return msg, nil
}

// IsChannel reports whether name is a channel name.
func IsChannel(name string) bool {
	return strings.HasPrefix(name, "#") || strings.HasPrefix(name, "&")
}

// splitSource breaks "nick!user@host" into its parts. Server sources have
// no '!' and are returned as the nickname.
func splitSource(source string) (nick, user, host string) {
	nick, rest, hasUser := strings.Cut(source, "!")
	if !hasUser {
		nick, host, _ = strings.Cut(source, "@")
		return nick, "", host
	}
	user, host, _ = strings.Cut(rest, "@")
	return nick, user, host
}

// Token returns the i-th whitespace-delimited token of Args, or "" if absent.
func (m Message) Token(i int) string {
	if i < 0 || i >= len(m.SplitArgs) {
		return ""
	}
	return m.SplitArgs[i]
}

// AddressedTo reports whether the first token of Args names nickname,
// ignoring case and a trailing ',' or ':'.
func (m Message) AddressedTo(nickname string) bool {
	first := strings.TrimRight(m.Token(0), ",:")
	return first != "" && strings.EqualFold(first, nickname)
}
