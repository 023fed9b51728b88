// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg locates the bot's files under the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// CodeNoHome is returned when neither the XDG variable nor HOME is set.
const CodeNoHome = "NO_HOME_DIR"

const appName = "convex"

// ConfigFileName is the file looked for in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

func dir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", oops.Code(CodeNoHome).
				With("env", env).
				Errorf("neither %s nor HOME is set", env)
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigFile returns the config file in ConfigDir when it exists,
// and "" when it does not or there is no home directory.
func DefaultConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", nil //nolint:nilerr // no home means no default file
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.With("path", path).Wrapf(err, "checking config file")
	}
	return path, nil
}
