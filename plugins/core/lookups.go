// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"regexp"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/convex/internal/webapi"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// maxDescriptionLength is where video descriptions are cut.
const maxDescriptionLength = 100

var videoLink = regexp.MustCompile(`(?i)https?://(?:www\.)?youtu(?:be\.com/watch\?v=|\.be/)([\w-]+)`)

func hasVideoLink(ev *plugin.Event) bool {
	return videoLink.MatchString(ev.Message.Args)
}

func (p *Plugin) youtube(ctx context.Context, ev *plugin.Event) error {
	m := videoLink.FindStringSubmatch(ev.Message.Args)
	if m == nil {
		return nil
	}

	v, err := p.lookups.Video(ctx, m[1])
	if err != nil {
		return p.lookupFailed(ctx, ev, "video", err)
	}
	return p.reply(ctx, ev, v.Title+" (by "+v.Channel+") — "+shortDescription(v.Description))
}

// shortDescription keeps the first line of a description, cut at the first
// word boundary past maxDescriptionLength.
func shortDescription(desc string) string {
	desc, _, _ = strings.Cut(desc, "\n")
	desc = strings.TrimSpace(desc)
	if len(desc) <= maxDescriptionLength {
		return desc
	}

	var b strings.Builder
	for _, word := range strings.Fields(desc) {
		if b.Len() >= maxDescriptionLength {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	return b.String() + "...."
}

func (p *Plugin) define(ctx context.Context, ev *plugin.Event) error {
	msg := ev.Message
	if len(msg.SplitArgs) < 3 {
		return p.reply(ctx, ev, usage(ev, "define", "correct usage."))
	}

	d, err := p.lookups.Define(ctx, msg.Token(2), msg.Token(3))
	if err != nil {
		return p.lookupFailed(ctx, ev, "define", err)
	}
	return p.reply(ctx, ev, d.String())
}

func (p *Plugin) lookup(ctx context.Context, ev *plugin.Event) error {
	msg := ev.Message
	if len(msg.SplitArgs) < 3 {
		return p.reply(ctx, ev, usage(ev, "lookup", "correct usage."))
	}

	s, err := p.lookups.Summary(ctx, strings.Join(msg.SplitArgs[2:], " "))
	if errutil.HasCode(err, webapi.CodeNoResults) {
		return p.reply(ctx, ev, "Query failed to return results. Perhaps try a different term?")
	}
	if err != nil {
		return p.lookupFailed(ctx, ev, "lookup", err)
	}

	text := "\x02" + s.Title + "\x0F — " + strings.Join(strings.Fields(s.Extract), " ")
	for _, chunk := range irc.LengthSplit(text, irc.MaxReplyLength) {
		if err := p.Reply(ctx, msg.Nickname, chunk); err != nil {
			return err
		}
	}
	return nil
}

// lookupFailed logs err through the host and tells the user what happened.
func (p *Plugin) lookupFailed(ctx context.Context, ev *plugin.Event, what string, err error) error {
	if !errutil.HasCode(err, webapi.CodeNoResults) {
		if logErr := p.Logf(ctx, plugin.SeverityWarning, "%s lookup failed: %v", what, err); logErr != nil {
			return logErr
		}
	}
	return p.reply(ctx, ev, webapi.UserMessage(err))
}

// unconfigured stands in when no lookup client is available.
type unconfigured struct{}

func (unconfigured) Video(context.Context, string) (webapi.Video, error) {
	return webapi.Video{}, notConfigured()
}

func (unconfigured) Define(context.Context, string, string) (webapi.Definition, error) {
	return webapi.Definition{}, notConfigured()
}

func (unconfigured) Summary(context.Context, string) (webapi.Summary, error) {
	return webapi.Summary{}, notConfigured()
}

func notConfigured() error {
	return oops.Code(webapi.CodeMissingKey).Errorf("web lookups are not configured")
}
