// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import "time"

// invocationRecorder collects the metrics of a single handler run.
type invocationRecorder struct {
	startTime  time.Time
	pluginName string
	command    string
	status     string
}

func newInvocationRecorder(e Entry) *invocationRecorder {
	return &invocationRecorder{
		startTime:  time.Now(),
		pluginName: e.PluginName(),
		command:    e.Label(),
		status:     StatusSuccess,
	}
}

func (m *invocationRecorder) setStatus(status string) {
	m.status = status
}

// record writes the invocation counter, and the duration for runs that
// actually started.
func (m *invocationRecorder) record() {
	RecordHandlerInvocation(m.pluginName, m.command, m.status)
	if m.status != StatusRejected {
		RecordHandlerDuration(m.pluginName, m.command, time.Since(m.startTime))
	}
}
