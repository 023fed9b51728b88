// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugintest

import (
	"sort"
	"strings"
	"sync"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// Caller is an in-memory plugin.Caller.
type Caller struct {
	Nick    string
	Pass    string
	Ver     string
	RosterV *Roster
	Index   *Index
}

// NewCaller creates a caller with an empty roster and command index.
func NewCaller(nickname string) *Caller {
	return &Caller{
		Nick:    nickname,
		Ver:     "1.0.0",
		RosterV: NewRoster(),
		Index:   &Index{},
	}
}

// Nickname implements plugin.Caller.
func (c *Caller) Nickname() string { return c.Nick }

// Password implements plugin.Caller.
func (c *Caller) Password() string { return c.Pass }

// Version implements plugin.Caller.
func (c *Caller) Version() string { return c.Ver }

// Roster implements plugin.Caller.
func (c *Caller) Roster() plugin.Roster { return c.RosterV }

// Commands implements plugin.Caller.
func (c *Caller) Commands() plugin.CommandIndex { return c.Index }

// Event builds an event for a PRIVMSG from nick to target with text.
func (c *Caller) Event(nick, target, text string) *plugin.Event {
	return c.EventFor(irc.PRIVMSG, nick, target, text)
}

// EventFor builds an event for an arbitrary command.
func (c *Caller) EventFor(command irc.Command, nick, target, text string) *plugin.Event {
	msg := irc.Message{
		Source:   nick + "!" + nick + "@test.host",
		Nickname: nick,
		Realname: nick,
		Hostname: "test.host",
		Command:  command,
		Params:   []string{target, text},
		Origin:   nick,
		Args:     text,
	}
	if irc.IsChannel(target) {
		msg.Origin = target
	}
	msg.SplitArgs = strings.Fields(text)
	if len(msg.SplitArgs) > 1 {
		msg.InputCommand = strings.ToLower(msg.SplitArgs[1])
	}
	return &plugin.Event{Message: msg, Caller: c}
}

// Index is an in-memory plugin.CommandIndex.
type Index struct {
	Entries []plugin.HelpEntry
}

// HelpEntries implements plugin.CommandIndex.
func (i *Index) HelpEntries() []plugin.HelpEntry {
	return append([]plugin.HelpEntry(nil), i.Entries...)
}

// Help implements plugin.CommandIndex.
func (i *Index) Help(name string) (plugin.HelpEntry, bool) {
	for _, e := range i.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return plugin.HelpEntry{}, false
}

// HelpFor implements plugin.CommandIndex.
func (i *Index) HelpFor(name string) string {
	if e, ok := i.Help(name); ok {
		return e.Description
	}
	return plugin.NotFound
}

// Exists implements plugin.CommandIndex.
func (i *Index) Exists(name string) bool {
	_, ok := i.Help(name)
	return ok
}

// Roster is an in-memory plugin.Roster.
type Roster struct {
	mu         sync.Mutex
	channels   []irc.Channel
	users      map[string]irc.User
	ignored    map[string]bool
	identified bool
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{users: make(map[string]irc.User), ignored: make(map[string]bool)}
}

// Ignore marks a nickname as ignored.
func (r *Roster) Ignore(nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored[strings.ToLower(nickname)] = true
}

// PutUser stores a user.
func (r *Roster) PutUser(u irc.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[strings.ToLower(u.Realname)] = u
}

// Channels implements plugin.Roster.
func (r *Roster) Channels() []irc.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]irc.Channel(nil), r.channels...)
}

// Channel implements plugin.Roster.
func (r *Roster) Channel(name string) (irc.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels {
		if strings.EqualFold(ch.Name, name) {
			return ch, true
		}
	}
	return irc.Channel{}, false
}

// AddChannel implements plugin.Roster.
func (r *Roster) AddChannel(ch irc.Channel) bool {
	if _, ok := r.Channel(ch.Name); ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, ch)
	return true
}

// RemoveChannel implements plugin.Roster.
func (r *Roster) RemoveChannel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ch := range r.channels {
		if strings.EqualFold(ch.Name, name) {
			r.channels = append(r.channels[:i], r.channels[i+1:]...)
			return true
		}
	}
	return false
}

// MarkConnected implements plugin.Roster.
func (r *Roster) MarkConnected(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ch := range r.channels {
		if strings.EqualFold(ch.Name, name) && !ch.Connected {
			r.channels[i].Connected = true
			return true
		}
	}
	return false
}

// User implements plugin.Roster.
func (r *Roster) User(realname string) (irc.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[strings.ToLower(realname)]
	return u, ok
}

// Users implements plugin.Roster.
func (r *Roster) Users() []irc.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]irc.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Realname < out[j].Realname })
	return out
}

// Ignored implements plugin.Roster.
func (r *Roster) Ignored(nickname, _, _ string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ignored[strings.ToLower(nickname)]
}

// Identified implements plugin.Roster.
func (r *Roster) Identified() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identified
}

// MarkIdentified implements plugin.Roster.
func (r *Roster) MarkIdentified() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identified {
		return false
	}
	r.identified = true
	return true
}
