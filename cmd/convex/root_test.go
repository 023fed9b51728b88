// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/convex/internal/config"
)

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCmd()

	tests := []struct {
		name     string
		defValue string
	}{
		{"log-format", config.DefaultLogFormat},
		{"metrics-addr", config.DefaultMetricsAddr},
		{"nickname", config.DefaultNickname},
		{"server", config.DefaultServerAddress},
		{"port", "6667"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, f, "flag %q not registered", tt.name)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCommand_FlagsMapOntoConfig(t *testing.T) {
	for name := range config.FlagKeys {
		assert.NotNil(t, NewRootCmd().Flags().Lookup(name), "config flag %q has no command line flag", name)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", "/etc/convex.yaml", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/etc/convex.yaml", configFile)
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "1.2.3 (commit: abc, built: today)"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1.2.3")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", "/nonexistent/convex.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestRootCommand_RejectsArguments(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.Execute())
}
