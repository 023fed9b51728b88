// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeInvalidInfo is returned when plugin identity metadata is malformed.
const CodeInvalidInfo = "INVALID_PLUGIN_INFO"

// Plugin is an independently loadable unit of commands.
type Plugin interface {
	// Info returns identity metadata.
	Info() Info

	// Status returns the plugin's self-reported state.
	Status() Status

	// Start registers the plugin's commands through emitter and moves the
	// plugin to Running.
	Start(ctx context.Context, emitter Emitter) error

	// Stop tears the plugin down unless it is Running or Processing, in
	// which case the refusal is logged and nothing changes.
	Stop(ctx context.Context) error

	// ForceStop moves the plugin to Stopped regardless of in-flight work.
	ForceStop(ctx context.Context) error
}

// Info identifies a plugin instance.
type Info struct {
	Name    string
	Author  string
	Version *semver.Version
	ID      ulid.ULID // fresh for every instance
}

// NewInfo validates identity metadata and assigns a fresh instance ID.
func NewInfo(name, author, version string) (Info, error) {
	if name == "" {
		return Info{}, oops.Code(CodeInvalidInfo).Errorf("plugin name is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return Info{}, oops.Code(CodeInvalidInfo).
			With("plugin", name).
			With("version", version).
			Wrapf(err, "parsing plugin version")
	}
	return Info{
		Name:    name,
		Author:  author,
		Version: v,
		ID:      NewInstanceID(),
	}, nil
}

// MustInfo is NewInfo for compile-time constants; it panics on error.
func MustInfo(name, author, version string) Info {
	info, err := NewInfo(name, author, version)
	if err != nil {
		panic(err)
	}
	return info
}

// VersionString returns the version or "0.0.0" when unset.
func (i Info) VersionString() string {
	if i.Version == nil {
		return "0.0.0"
	}
	return i.Version.String()
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewInstanceID generates a new plugin instance ID.
func NewInstanceID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}
