// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"strings"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// maxChannelAccess is the highest access level allowed to join and part.
const maxChannelAccess = 1

// permitted reports whether the sender is a known user with enough access.
func permitted(ev *plugin.Event) bool {
	u, ok := ev.Caller.Roster().User(ev.Message.Realname)
	return ok && u.Access <= maxChannelAccess
}

func (p *Plugin) join(ctx context.Context, ev *plugin.Event) error {
	name := ev.Message.Token(2)
	roster := ev.Caller.Roster()

	switch {
	case !permitted(ev):
		return p.reply(ctx, ev, "Insufficient permissions.")
	case name == "":
		return p.reply(ctx, ev, usage(ev, "join", "command's help index."))
	case !strings.HasPrefix(name, "#"):
		return p.reply(ctx, ev, "Channel name must start with '#'.")
	}
	if _, ok := roster.Channel(name); ok {
		return p.reply(ctx, ev, "I'm already in that channel.")
	}

	if err := p.Emit(ctx, plugin.SendMessage(irc.JOIN, "", name)); err != nil {
		return err
	}
	roster.AddChannel(irc.Channel{Name: strings.ToLower(name)})

	return p.reply(ctx, ev, "Successfully joined channel: "+name+".")
}

func (p *Plugin) part(ctx context.Context, ev *plugin.Event) error {
	name := ev.Message.Token(2)
	roster := ev.Caller.Roster()

	switch {
	case !permitted(ev):
		return p.reply(ctx, ev, "Insufficient permissions.")
	case name == "":
		return p.reply(ctx, ev, usage(ev, "part", "command's help index."))
	case !strings.HasPrefix(name, "#"):
		return p.reply(ctx, ev, "Channel parameter must be a proper name (starts with '#').")
	}
	if _, ok := roster.Channel(name); !ok {
		return p.reply(ctx, ev, "I'm not in that channel.")
	}

	name = strings.ToLower(name)
	roster.RemoveChannel(name)

	if err := p.reply(ctx, ev, "Successfully parted channel: "+name); err != nil {
		return err
	}
	return p.Emit(ctx, plugin.SendMessage(irc.PART, name,
		"Channel part invoked by: "+ev.Message.Nickname))
}

func (p *Plugin) channels(ctx context.Context, ev *plugin.Event) error {
	var names []string
	for _, ch := range ev.Caller.Roster().Channels() {
		if strings.HasPrefix(ch.Name, "#") {
			names = append(names, ch.Name)
		}
	}
	if len(names) == 0 {
		return p.reply(ctx, ev, "I'm not in any channels.")
	}
	return p.reply(ctx, ev, strings.Join(names, ", "))
}
