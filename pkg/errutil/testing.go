// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireOops stops the test unless err is an oops error and returns it.
func RequireOops(t testing.TB, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.Truef(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode checks the code carried by err.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	oopsErr := RequireOops(t, err)
	assert.Equalf(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext checks one key of the context attached to err.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	ctx := RequireOops(t, err).Context()
	if assert.Containsf(t, ctx, key, "error: %v", err) {
		assert.Equal(t, value, ctx[key])
	}
}
