// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// File sink rotation limits.
const (
	maxFileSizeMB  = 10
	maxFileBackups = 5
	maxFileAgeDays = 28
)

// Sink is the destination of log output: the console plus an optional
// rolling file.
type Sink struct {
	io.Writer
	file *lumberjack.Logger
}

// NewSink returns a sink writing to console and, when path is non-empty,
// to a rolling file at path. A nil console means os.Stderr.
func NewSink(console io.Writer, path string) *Sink {
	if console == nil {
		console = os.Stderr
	}
	if path == "" {
		return &Sink{Writer: console}
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxFileBackups,
		MaxAge:     maxFileAgeDays,
	}
	return &Sink{Writer: io.MultiWriter(console, file), file: file}
}

// Close closes the file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	//nolint:wrapcheck // close errors are reported verbatim at shutdown
	return s.file.Close()
}
