// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"strings"

	"github.com/samber/oops"
)

// CodeInvalidSeverity is returned for severities outside the known set.
const CodeInvalidSeverity = "INVALID_SEVERITY"

// Severity is the level of a Log action.
type Severity uint8

// Supported severities, lowest first.
const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{"trace", "debug", "info", "warning", "error", "fatal"}

// Valid reports whether s is one of the six known severities.
func (s Severity) Valid() bool {
	return int(s) < len(severityNames)
}

// String returns the lower-case name of the severity.
// Unrecognized severities return "unknown".
func (s Severity) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity converts a name such as "warning" into a Severity.
// "warn" and "information" are accepted as aliases.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "verbose":
		return SeverityTrace, nil
	case "debug":
		return SeverityDebug, nil
	case "info", "information":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return 0, oops.Code(CodeInvalidSeverity).
			With("severity", name).
			Errorf("unknown severity %q", name)
	}
}
