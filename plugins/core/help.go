// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"strings"

	"github.com/holomush/convex/pkg/plugin"
)

// help answers messages addressed to the bot: a bare mention, the help
// listing, help for one command, or an unknown command.
func (p *Plugin) help(ctx context.Context, ev *plugin.Event) error {
	msg := ev.Message
	caller := ev.Caller
	if !msg.AddressedTo(caller.Nickname()) {
		return nil
	}
	if caller.Roster().Ignored(msg.Nickname, msg.Realname, msg.Hostname) {
		return nil
	}

	hint := "Type '" + caller.Nickname() + " help' to view my command list."

	switch {
	case len(msg.SplitArgs) < 2:
		return p.reply(ctx, ev, hint)

	case msg.InputCommand == "help" && len(msg.SplitArgs) == 2:
		entries := caller.Commands().HelpEntries()
		if len(entries) == 0 {
			return p.reply(ctx, ev, "No commands currently active.")
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return p.reply(ctx, ev, "Active commands: "+strings.Join(names, ", "))

	case msg.InputCommand == "help":
		entry, ok := caller.Commands().Help(msg.Token(2))
		if !ok {
			return p.reply(ctx, ev, "Command not found.")
		}
		return p.reply(ctx, ev, entry.Name+": "+entry.Description)

	case caller.Commands().Exists(msg.InputCommand):
		return nil

	default:
		return p.reply(ctx, ev, "Invalid command. "+hint)
	}
}
