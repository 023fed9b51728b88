// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package irc

// Channel is a channel the bot knows about.
type Channel struct {
	Name      string
	Connected bool
	Private   bool
}

// User is a known user. Lower Access values carry more rights; 0 is an operator.
type User struct {
	Nickname string `yaml:"nickname" koanf:"nickname"`
	Realname string `yaml:"realname" koanf:"realname"`
	Access   int    `yaml:"access" koanf:"access"`
}
