// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"strings"

	"github.com/holomush/convex/internal/calc"
	"github.com/holomush/convex/pkg/plugin"
)

// eval evaluates everything after "<nick> eval" as one expression, so
// "eve eval 2 + 2" and "eve eval 2+2" agree.
func (p *Plugin) eval(ctx context.Context, ev *plugin.Event) error {
	args := ev.Message.SplitArgs
	if len(args) < 3 {
		return p.reply(ctx, ev, "Not enough parameters.")
	}

	v, err := calc.Evaluate(strings.Join(args[2:], ""))
	if err != nil {
		return p.reply(ctx, ev, calc.UserMessage(err))
	}
	return p.reply(ctx, ev, calc.Format(v))
}
