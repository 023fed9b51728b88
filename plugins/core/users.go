// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"strings"

	"github.com/holomush/convex/pkg/plugin"
)

func (p *Plugin) users(ctx context.Context, ev *plugin.Event) error {
	users := ev.Caller.Roster().Users()
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Realname)
	}
	if len(names) == 0 {
		return p.reply(ctx, ev, "No users stored.")
	}
	return p.reply(ctx, ev, strings.Join(names, ", "))
}
