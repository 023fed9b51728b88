// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package roster

import (
	"github.com/holomush/convex/pkg/irc"
)

// Seed is the initial content of a roster.
type Seed struct {
	Channels []string
	Users    []irc.User
	Ignore   []string
}

// FromSeed builds a roster from configuration. Channels start out
// unconnected.
func FromSeed(seed Seed) (*Roster, error) {
	r := New()
	for _, name := range seed.Channels {
		r.AddChannel(irc.Channel{Name: name})
	}
	for _, u := range seed.Users {
		r.Upsert(u)
	}
	for _, mask := range seed.Ignore {
		if err := r.Ignore(mask); err != nil {
			return nil, err
		}
	}
	return r, nil
}
