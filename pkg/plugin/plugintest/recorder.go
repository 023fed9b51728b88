// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugintest provides test doubles for plugin authors.
package plugintest

import (
	"context"
	"sync"

	"github.com/holomush/convex/pkg/plugin"
)

// Recorder is an Emitter that keeps every action it receives.
type Recorder struct {
	mu      sync.Mutex
	actions []plugin.Action
	err     error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Emit calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Emit records action.
func (r *Recorder) Emit(_ context.Context, action plugin.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.actions = append(r.actions, action)
	return nil
}

// Actions returns a copy of everything recorded so far.
func (r *Recorder) Actions() []plugin.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]plugin.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// OfKind returns the recorded actions of the given kind.
func (r *Recorder) OfKind(kind plugin.ActionKind) []plugin.Action {
	var out []plugin.Action
	for _, a := range r.Actions() {
		if a.Kind() == kind {
			out = append(out, a)
		}
	}
	return out
}

// Registrations returns the payloads of recorded RegisterHandler actions.
func (r *Recorder) Registrations() []plugin.Registration {
	var out []plugin.Registration
	for _, a := range r.OfKind(plugin.ActionRegisterHandler) {
		reg, _ := a.Registration()
		out = append(out, reg)
	}
	return out
}

// Texts returns the text of every recorded SendMessage action.
func (r *Recorder) Texts() []string {
	var out []string
	for _, a := range r.OfKind(plugin.ActionSendMessage) {
		msg, _ := a.Message()
		out = append(out, msg.Text)
	}
	return out
}

// Logs returns the text of every recorded Log action.
func (r *Recorder) Logs() []string {
	var out []string
	for _, a := range r.OfKind(plugin.ActionLog) {
		entry, _ := a.LogEntry()
		out = append(out, entry.Text)
	}
	return out
}

// Reset forgets recorded actions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
