// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// motdReplyEnd identifies with services, sets the bot mode and joins the
// configured channels. It runs once per connection.
func (p *Plugin) motdReplyEnd(ctx context.Context, ev *plugin.Event) error {
	caller := ev.Caller
	roster := caller.Roster()
	if !roster.MarkIdentified() {
		return nil
	}

	if pw := caller.Password(); pw != "" {
		if err := p.Emit(ctx, plugin.SendMessage(irc.PRIVMSG, "NICKSERV", "IDENTIFY "+pw)); err != nil {
			return err
		}
	}
	if err := p.Emit(ctx, plugin.SendMessage(irc.MODE, caller.Nickname(), "+B")); err != nil {
		return err
	}

	for _, ch := range roster.Channels() {
		if ch.Connected || ch.Private {
			continue
		}
		if err := p.Emit(ctx, plugin.SendMessage(irc.JOIN, "", ch.Name)); err != nil {
			return err
		}
	}
	return nil
}
