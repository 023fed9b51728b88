// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package roster tracks the channels the bot is in, the users it knows
// and whom it ignores.
package roster

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/samber/oops"

	"github.com/holomush/convex/pkg/irc"
)

// CodeInvalidMask is returned for ignore masks that do not compile.
const CodeInvalidMask = "INVALID_IGNORE_MASK"

// Roster is safe for concurrent use. It satisfies plugin.Roster.
type Roster struct {
	mu       sync.RWMutex
	channels []irc.Channel

	users      cmap.ConcurrentMap[string, irc.User]
	ignore     []ignoreMask
	identified atomic.Bool
}

type ignoreMask struct {
	pattern string
	glob    glob.Glob
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{users: cmap.New[irc.User]()}
}

// Channels returns the known channels in the order they were added.
func (r *Roster) Channels() []irc.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]irc.Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Channel looks up a channel by name, ignoring case.
func (r *Roster) Channel(name string) (irc.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(name); i >= 0 {
		return r.channels[i], true
	}
	return irc.Channel{}, false
}

// AddChannel appends ch unless a channel of that name exists. It reports
// whether the roster changed.
func (r *Roster) AddChannel(ch irc.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(ch.Name) >= 0 {
		return false
	}
	r.channels = append(r.channels, ch)
	return true
}

// RemoveChannel drops the named channel and reports whether it was present.
func (r *Roster) RemoveChannel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(name)
	if i < 0 {
		return false
	}
	r.channels = append(r.channels[:i], r.channels[i+1:]...)
	return true
}

// MarkConnected flags the named channel as joined and reports whether the
// flag changed.
func (r *Roster) MarkConnected(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(name)
	if i < 0 || r.channels[i].Connected {
		return false
	}
	r.channels[i].Connected = true
	return true
}

// ResetConnections clears every Connected flag and the identified flag,
// for use after a reconnect.
func (r *Roster) ResetConnections() {
	r.mu.Lock()
	for i := range r.channels {
		r.channels[i].Connected = false
	}
	r.mu.Unlock()
	r.identified.Store(false)
}

// caller holds r.mu.
func (r *Roster) indexOf(name string) int {
	for i, ch := range r.channels {
		if strings.EqualFold(ch.Name, name) {
			return i
		}
	}
	return -1
}

// Upsert stores u keyed by its realname.
func (r *Roster) Upsert(u irc.User) {
	r.users.Set(strings.ToLower(u.Realname), u)
}

// User looks up a user by realname, ignoring case.
func (r *Roster) User(realname string) (irc.User, bool) {
	return r.users.Get(strings.ToLower(realname))
}

// Users returns every stored user sorted by realname.
func (r *Roster) Users() []irc.User {
	items := r.users.Items()
	out := make([]irc.User, 0, len(items))
	for _, u := range items {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Realname) < strings.ToLower(out[j].Realname)
	})
	return out
}

// Ignore adds a mask to the ignore list. A mask without '!' or '@' matches
// the nickname alone; otherwise it is matched against nick!user@host.
// Matching ignores case.
func (r *Roster) Ignore(mask string) error {
	g, err := glob.Compile(strings.ToLower(mask))
	if err != nil {
		return oops.Code(CodeInvalidMask).
			With("mask", mask).
			Wrapf(err, "compiling ignore mask")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignore = append(r.ignore, ignoreMask{pattern: mask, glob: g})
	return nil
}

// Ignored reports whether a sender matches any ignore mask.
func (r *Roster) Ignored(nickname, realname, hostname string) bool {
	nick := strings.ToLower(nickname)
	full := strings.ToLower(nickname + "!" + realname + "@" + hostname)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.ignore {
		subject := full
		if !strings.ContainsAny(m.pattern, "!@") {
			subject = nick
		}
		if m.glob.Match(subject) {
			return true
		}
	}
	return false
}

// Identified reports whether the bot has identified with services on the
// current connection.
func (r *Roster) Identified() bool {
	return r.identified.Load()
}

// MarkIdentified sets the identified flag and reports whether this call
// changed it.
func (r *Roster) MarkIdentified() bool {
	return r.identified.CompareAndSwap(false, true)
}
