// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package core implements the bot's built-in plugin: greeting handling,
// the help command, channel management and the web lookups.
package core

import (
	"context"

	"github.com/holomush/convex/internal/webapi"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// Version of the core plugin.
const Version = "1.0.0"

// Lookups fetches the data behind the YouTube, define and lookup commands.
// *webapi.Client satisfies it.
type Lookups interface {
	Video(ctx context.Context, id string) (webapi.Video, error)
	Define(ctx context.Context, word, partOfSpeech string) (webapi.Definition, error)
	Summary(ctx context.Context, query string) (webapi.Summary, error)
}

// Plugin is the core plugin.
type Plugin struct {
	*plugin.Lifecycle
	lookups Lookups
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates a stopped core plugin. With nil lookups the lookup commands
// stay registered and reply that they are not configured.
func New(lookups Lookups) *Plugin {
	if lookups == nil {
		lookups = unconfigured{}
	}
	return &Plugin{
		Lifecycle: plugin.NewLifecycle(plugin.MustInfo("Core", "SemiViral", Version)),
		lookups:   lookups,
	}
}

// Start registers every core command.
func (p *Plugin) Start(ctx context.Context, emitter plugin.Emitter) error {
	return p.Begin(ctx, emitter, p.registrations())
}

// registrations lists the core commands in the order they are offered to
// the host. Listed entries appear in help output in this order.
func (p *Plugin) registrations() []plugin.Registration {
	return []plugin.Registration{
		{Command: irc.MotdReplyEnd, Handler: p.motdReplyEnd},
		{Command: irc.PRIVMSG, Handler: p.help},
		{Command: irc.PRIVMSG, Guard: hasVideoLink, Handler: p.Track(p.youtube)},
		command("quit", "Quit", "terminates bot execution", p.quit),
		command("eval", "Eval", "(<expression>) — evaluates given mathematical expression.", p.Track(p.eval)),
		command("join", "Join", "(< channel> *<message>) — joins specified channel.", p.Track(p.join)),
		command("part", "Part", "(< channel> *<message>) — parts from specified channel.", p.Track(p.part)),
		command("channels", "Channels", "returns a list of connected channels.", p.channels),
		command("define", "Define", "(< word> *<part of speech>) — returns definition for given word.", p.Track(p.define)),
		command("lookup", "Lookup", "(<term/phrase>) — returns the wikipedia summary of given term or phrase.", p.Track(p.lookup)),
		command("users", "Users", "returns a list of stored user realnames.", p.users),
	}
}

// command builds a listed PRIVMSG registration guarded by "<nick> input".
func command(input, name, description string, h plugin.Handler) plugin.Registration {
	return plugin.Registration{
		Command: irc.PRIVMSG,
		Guard:   func(ev *plugin.Event) bool { return ev.InputEquals(input) },
		Handler: h,
		Help:    plugin.HelpEntry{Name: name, Description: description},
	}
}

func (p *Plugin) reply(ctx context.Context, ev *plugin.Event, text string) error {
	return p.Reply(ctx, ev.Message.Origin, text)
}

// usage is the hint given when a command is missing parameters.
func usage(ev *plugin.Event, input, suffix string) string {
	return "Insufficient parameters. Type '" + ev.Caller.Nickname() + " help " + input + "' to view " + suffix
}
