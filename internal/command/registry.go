// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
)

// Owner is the plugin a registration belongs to.
type Owner interface {
	Info() plugin.Info
	Status() plugin.Status
}

// Entry is one row of the command table.
type Entry struct {
	Owner        Owner
	Registration plugin.Registration
}

// PluginName returns the owning plugin's name.
func (e Entry) PluginName() string {
	return e.Owner.Info().Name
}

// Label names the entry in logs and metrics: the help name when listed,
// otherwise the protocol command.
func (e Entry) Label() string {
	if e.Registration.Help.Listed() {
		return e.Registration.Help.Name
	}
	return string(e.Registration.Command)
}

type helpRecord struct {
	key   string // plugin/name, lower-cased
	entry plugin.HelpEntry
	seq   uint64
}

// Registry is the dispatcher's command table and help index. It is safe for
// concurrent use; readers get snapshots so a partially inserted
// registration is never visible.
type Registry struct {
	mu    sync.RWMutex
	table map[irc.Command][]Entry
	help  []helpRecord
	seq   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[irc.Command][]Entry)}
}

// Register appends reg to the table for its command. A registration with
// the same owner instance and start slot as an existing one replaces it in
// place, so a restarted plugin keeps one handler per command. A listed help
// entry is indexed under owner/name; registering the same name again from
// the same owner replaces the entry in place. Other registrations for the
// command are never removed.
func (r *Registry) Register(owner Owner, reg plugin.Registration) error {
	if err := reg.Validate(); err != nil {
		return err //nolint:wrapcheck // already coded
	}
	command := reg.Command.Normalize()
	reg.Command = command

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{Owner: owner, Registration: reg}
	if i := r.slotIndex(owner, reg); i >= 0 {
		r.table[command][i] = entry
	} else {
		r.table[command] = append(r.table[command], entry)
	}

	if !reg.Help.Listed() {
		return nil
	}
	r.seq++
	key := strings.ToLower(owner.Info().Name + "/" + reg.Help.Name)
	for i := range r.help {
		if r.help[i].key == key {
			slog.Warn("help entry replaced",
				"plugin", owner.Info().Name,
				"command", reg.Help.Name)
			r.help[i].entry = reg.Help
			r.help[i].seq = r.seq
			return nil
		}
	}
	r.help = append(r.help, helpRecord{key: key, entry: reg.Help, seq: r.seq})
	return nil
}

// slotIndex finds the entry reg replaces, or -1. Caller holds r.mu.
func (r *Registry) slotIndex(owner Owner, reg plugin.Registration) int {
	if reg.Slot() == 0 {
		return -1
	}
	id := owner.Info().ID
	for i, e := range r.table[reg.Command] {
		if e.Registration.Slot() == reg.Slot() && e.Owner.Info().ID == id {
			return i
		}
	}
	return -1
}

// Snapshot returns the registrations for command in insertion order. The
// slice is a copy.
func (r *Registry) Snapshot(command irc.Command) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.table[command.Normalize()]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of registrations across all commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, entries := range r.table {
		n += len(entries)
	}
	return n
}

// HelpEntries lists help entries in registration order.
func (r *Registry) HelpEntries() []plugin.HelpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.HelpEntry, 0, len(r.help))
	for _, rec := range r.help {
		out = append(out, rec.entry)
	}
	return out
}

// Help returns the entry registered under name, ignoring case. When several
// plugins use the name, the latest registration wins.
func (r *Registry) Help(name string) (plugin.HelpEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found plugin.HelpEntry
		seq   uint64
		ok    bool
	)
	for _, rec := range r.help {
		if strings.EqualFold(rec.entry.Name, name) && rec.seq >= seq {
			found, seq, ok = rec.entry, rec.seq, true
		}
	}
	return found, ok
}

// HelpFor returns the description registered under name, or plugin.NotFound.
func (r *Registry) HelpFor(name string) string {
	if entry, ok := r.Help(name); ok {
		return entry.Description
	}
	return plugin.NotFound
}

// Exists reports whether a listed command is registered under name.
func (r *Registry) Exists(name string) bool {
	_, ok := r.Help(name)
	return ok
}
