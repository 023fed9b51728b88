// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package irc

import (
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/samber/oops"
)

// Outgoing is a protocol line the bot wants to send.
//
// Target, when set, becomes the first parameter and Text the trailing one.
// Without a target, Text is split into middle parameters; anything after
// " :" (or a leading ':') is the trailing one. This is how JOIN, MODE and
// QUIT style commands are written.
type Outgoing struct {
	Command Command
	Target  string
	Text    string
}

// Line serializes the message without the line terminator.
func (o Outgoing) Line() (string, error) {
	if o.Command == "" {
		return "", oops.Code(CodeMalformedLine).Errorf("outgoing message has no command")
	}

	var params []string
	if o.Target != "" {
		params = append(params, o.Target)
		if o.Text != "" {
			params = append(params, o.Text)
		}
	} else if o.Text != "" {
		text := o.Text
		if strings.HasPrefix(text, ":") {
			text = " " + text
		}
		middle, trailing, hasTrailing := strings.Cut(text, " :")
		params = append(params, strings.Fields(middle)...)
		if hasTrailing {
			params = append(params, trailing)
		}
	}

	msg := ircmsg.MakeMessage(nil, "", string(o.Command.Normalize()), params...)
	line, err := msg.Line()
	if err != nil {
		return "", oops.Code(CodeMalformedLine).
			With("command", string(o.Command)).
			Wrapf(err, "serializing outgoing message")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (o Outgoing) String() string {
	line, err := o.Line()
	if err != nil {
		return string(o.Command) + " " + o.Target + " " + o.Text
	}
	return line
}
