// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"

	"github.com/holomush/convex/pkg/plugin"
)

func (p *Plugin) quit(ctx context.Context, ev *plugin.Event) error {
	if err := p.reply(ctx, ev, "Shutting down."); err != nil {
		return err
	}
	return p.Emit(ctx, plugin.SignalTerminate())
}
