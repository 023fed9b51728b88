// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import "sync/atomic"

// Status is a plugin's self-reported execution state.
type Status uint8

// Plugin states.
const (
	StatusStopped Status = iota
	StatusRunning
	StatusProcessing
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	case StatusProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// StatusTracker derives a plugin's Status from its lifecycle flag and the
// number of tracked handler invocations in flight.
//
// Transitions happen only at lifecycle calls and handler boundaries, so
// concurrent handlers of one plugin never leave a stale state behind: the
// plugin is Processing while at least one tracked handler runs.
type StatusTracker struct {
	running  atomic.Bool
	inflight atomic.Int64
}

// Status returns the current state.
func (t *StatusTracker) Status() Status {
	if !t.running.Load() {
		return StatusStopped
	}
	if t.inflight.Load() > 0 {
		return StatusProcessing
	}
	return StatusRunning
}

// MarkRunning moves Stopped to Running. It reports whether the state changed.
func (t *StatusTracker) MarkRunning() bool {
	return t.running.CompareAndSwap(false, true)
}

// MarkStopped moves any state to Stopped. In-flight handlers keep running
// but no longer affect the reported state.
func (t *StatusTracker) MarkStopped() {
	t.running.Store(false)
}

// Begin records the start of a tracked handler and returns the func that
// records its end. The returned func is safe to call more than once.
func (t *StatusTracker) Begin() (end func()) {
	t.inflight.Add(1)
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			t.inflight.Add(-1)
		}
	}
}

// InFlight returns the number of tracked handlers currently running.
func (t *StatusTracker) InFlight() int64 {
	return t.inflight.Load()
}
