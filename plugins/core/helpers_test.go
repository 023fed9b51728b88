// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/convex/internal/webapi"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
	"github.com/holomush/convex/pkg/plugin/plugintest"
)

// started returns a running core plugin whose start-up actions have been
// cleared from the recorder.
func started(t *testing.T, lookups Lookups) (*Plugin, *plugintest.Recorder, []plugin.Registration) {
	t.Helper()
	p := New(lookups)
	rec := plugintest.NewRecorder()
	require.NoError(t, p.Start(context.Background(), rec))
	regs := rec.Registrations()
	rec.Reset()
	return p, rec, regs
}

// newCaller returns a caller named Eve that knows alice as an operator and
// lists regs in its help index.
func newCaller(regs []plugin.Registration) *plugintest.Caller {
	c := plugintest.NewCaller("Eve")
	c.RosterV.PutUser(irc.User{Nickname: "alice", Realname: "alice", Access: 0})
	for _, reg := range regs {
		if reg.Help.Listed() {
			c.Index.Entries = append(c.Index.Entries, reg.Help)
		}
	}
	return c
}

// dispatch runs every registration that accepts ev, in order, the way the
// host does for a single event.
func dispatch(t *testing.T, regs []plugin.Registration, ev *plugin.Event) {
	t.Helper()
	for _, reg := range regs {
		if reg.Command == ev.Message.Command && reg.Matches(ev) {
			require.NoError(t, reg.Handler(context.Background(), ev))
		}
	}
}

func sent(rec *plugintest.Recorder) []irc.Outgoing {
	var out []irc.Outgoing
	for _, a := range rec.OfKind(plugin.ActionSendMessage) {
		msg, _ := a.Message()
		out = append(out, msg)
	}
	return out
}

// fakeLookups returns canned results and records queries.
type fakeLookups struct {
	mu sync.Mutex

	video      webapi.Video
	definition webapi.Definition
	summary    webapi.Summary
	err        error

	queries []string
}

func (f *fakeLookups) record(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
}

func (f *fakeLookups) Video(_ context.Context, id string) (webapi.Video, error) {
	f.record(id)
	return f.video, f.err
}

func (f *fakeLookups) Define(_ context.Context, word, pos string) (webapi.Definition, error) {
	f.record(word + "/" + pos)
	return f.definition, f.err
}

func (f *fakeLookups) Summary(_ context.Context, query string) (webapi.Summary, error) {
	f.record(query)
	return f.summary, f.err
}

// registration returns the listed registration called name.
func registration(t *testing.T, regs []plugin.Registration, name string) plugin.Registration {
	t.Helper()
	for _, reg := range regs {
		if reg.Help.Name == name {
			return reg
		}
	}
	require.FailNow(t, "registration not found", name)
	return plugin.Registration{}
}
