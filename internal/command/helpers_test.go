// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
	"github.com/holomush/convex/pkg/plugin/plugintest"
)

func noopHandler(context.Context, *plugin.Event) error { return nil }

// owner returns a lifecycle in the Running state.
func owner(t *testing.T, name string) *plugin.Lifecycle {
	t.Helper()
	lc := plugin.NewLifecycle(plugin.MustInfo(name, "test", "1.0.0"))
	require.NoError(t, lc.Begin(context.Background(), plugintest.NewRecorder(), nil))
	return lc
}

func listed(name string, guard plugin.Guard, h plugin.Handler) plugin.Registration {
	return plugin.Registration{
		Handler: h,
		Guard:   guard,
		Command: irc.PRIVMSG,
		Help:    plugin.HelpEntry{Name: name, Description: name + " description"},
	}
}

func message(text string) *plugin.Event {
	return plugintest.NewCaller("Eve").Event("alice", "#testgrounds", text)
}
