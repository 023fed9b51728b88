// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// fakeConn records outbound lines and lets tests push inbound ones.
type fakeConn struct {
	mu       sync.Mutex
	sent     []irc.Outgoing
	sendErr  error
	messages chan irc.Message
	open     atomic.Bool
	closes   atomic.Int32
	closeMsg sync.Once
}

func newFakeConn() *fakeConn {
	c := &fakeConn{messages: make(chan irc.Message, 16)}
	c.open.Store(true)
	return c
}

func (c *fakeConn) SendData(_ context.Context, out irc.Outgoing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, out)
	return nil
}

func (c *fakeConn) Messages() <-chan irc.Message { return c.messages }

func (c *fakeConn) Connected() bool { return c.open.Load() }

func (c *fakeConn) Quit(ctx context.Context, reason string) error {
	err := c.SendData(ctx, irc.Outgoing{Command: irc.QUIT, Text: reason})
	_ = c.Close()
	return err
}

func (c *fakeConn) Close() error {
	c.open.Store(false)
	c.closes.Add(1)
	return nil
}

// hangup simulates the server closing the connection.
func (c *fakeConn) hangup() {
	c.open.Store(false)
	c.closeMsg.Do(func() { close(c.messages) })
}

func (c *fakeConn) push(t *testing.T, line string) {
	t.Helper()
	msg, err := irc.Parse(line)
	require.NoError(t, err)
	c.messages <- msg
}

func (c *fakeConn) Sent() []irc.Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]irc.Outgoing, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) Texts() []string {
	var out []string
	for _, o := range c.Sent() {
		out = append(out, o.Text)
	}
	return out
}

// testPlugin registers whatever its regs func returns.
type testPlugin struct {
	*plugin.Lifecycle
	regs     func(p *testPlugin) []plugin.Registration
	startErr error
}

func newTestPlugin(name string, regs func(p *testPlugin) []plugin.Registration) *testPlugin {
	return &testPlugin{
		Lifecycle: plugin.NewLifecycle(plugin.MustInfo(name, "test", "1.0.0")),
		regs:      regs,
	}
}

func (p *testPlugin) Start(ctx context.Context, emitter plugin.Emitter) error {
	if p.startErr != nil {
		return p.startErr
	}
	var regs []plugin.Registration
	if p.regs != nil {
		regs = p.regs(p)
	}
	return p.Begin(ctx, emitter, regs)
}

// quitPlugin answers "<nick> quit" the way the core plugin does.
func quitPlugin() *testPlugin {
	return newTestPlugin("Quitter", func(p *testPlugin) []plugin.Registration {
		return []plugin.Registration{{
			Command: irc.PRIVMSG,
			Guard:   func(ev *plugin.Event) bool { return ev.InputEquals("quit") },
			Help:    plugin.HelpEntry{Name: "Quit", Description: "terminates bot execution"},
			Handler: func(ctx context.Context, ev *plugin.Event) error {
				if err := p.Reply(ctx, ev.Message.Origin, "Shutting down."); err != nil {
					return err
				}
				return p.Emit(ctx, plugin.SignalTerminate())
			},
		}}
	})
}

type pluginList []plugin.Plugin

func (l pluginList) Loaded() []plugin.Plugin { return l }
