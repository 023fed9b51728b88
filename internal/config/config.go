// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads bot configuration from defaults, a YAML file and
// command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/convex/pkg/irc"
)

// Error codes for configuration failures.
const (
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeConfigNotFound = "CONFIG_NOT_FOUND"
)

// Config is the complete bot configuration.
type Config struct {
	Server      ServerConfig    `koanf:"server"`
	Nickname    string          `koanf:"nickname"`
	Realname    string          `koanf:"realname"`
	Password    string          `koanf:"password"`
	Channels    []string        `koanf:"channels"`
	Ignore      []string        `koanf:"ignore"`
	Users       []irc.User      `koanf:"users"`
	APIKeys     APIKeys         `koanf:"api_keys"`
	Endpoints   Endpoints       `koanf:"endpoints"`
	Log         LogConfig       `koanf:"log"`
	MetricsAddr string          `koanf:"metrics_addr"`
	Workers     int             `koanf:"workers"`
	Reconnect   ReconnectConfig `koanf:"reconnect"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`

	// DrainTimeout bounds how long shutdown waits for running commands.
	DrainTimeout time.Duration `koanf:"drain_timeout"`
}

// ServerConfig locates the IRC server.
type ServerConfig struct {
	Address  string `koanf:"address"`
	Port     int    `koanf:"port"`
	TLS      bool   `koanf:"tls"`
	Password string `koanf:"password"` // sent with PASS when set
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// APIKeys holds credentials for third-party lookups.
type APIKeys struct {
	YouTube string `koanf:"youtube"`
}

// Endpoints are the base URLs of the web lookups.
type Endpoints struct {
	YouTube    string `koanf:"youtube"`
	Dictionary string `koanf:"dictionary"`
	Wikipedia  string `koanf:"wikipedia"`
}

// LogConfig controls log output.
type LogConfig struct {
	Path   string `koanf:"path"`
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// ReconnectConfig bounds connection retries.
type ReconnectConfig struct {
	MaxAttempts uint64        `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
}

// RateLimitConfig throttles users who address the bot too often. A zero
// burst disables throttling.
type RateLimitConfig struct {
	Burst int     `koanf:"burst"`
	Rate  float64 `koanf:"rate"` // commands per second
}

// Default values.
const (
	DefaultServerAddress = "irc.foonetic.net"
	DefaultServerPort    = 6667
	DefaultNickname      = "Eve"
	DefaultRealname      = "Evealyn"
	DefaultChannel       = "#testgrounds"
	DefaultLogPath       = "convex.log"
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultDrainTimeout  = 5 * time.Second

	DefaultYouTubeEndpoint    = "https://www.googleapis.com/youtube/v3/videos"
	DefaultDictionaryEndpoint = "http://api.pearson.com/v2/dictionaries/laad3/entries"
	DefaultWikipediaEndpoint  = "https://en.wikipedia.org/w/api.php"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: DefaultServerAddress,
			Port:    DefaultServerPort,
		},
		Nickname: DefaultNickname,
		Realname: DefaultRealname,
		Channels: []string{DefaultChannel},
		Endpoints: Endpoints{
			YouTube:    DefaultYouTubeEndpoint,
			Dictionary: DefaultDictionaryEndpoint,
			Wikipedia:  DefaultWikipediaEndpoint,
		},
		Log: LogConfig{
			Path:   DefaultLogPath,
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
		MetricsAddr: DefaultMetricsAddr,
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			BaseDelay:   2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Burst: 5,
			Rate:  0.5,
		},
		DrainTimeout: DefaultDrainTimeout,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(field string, format string, args ...any) error {
		return oops.Code(CodeInvalidConfig).With("field", field).Errorf(format, args...)
	}

	if strings.TrimSpace(c.Server.Address) == "" {
		return invalid("server.address", "server address is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "server port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Nickname) == "" || strings.ContainsAny(c.Nickname, " ,:#") {
		return invalid("nickname", "nickname %q is not a valid nickname", c.Nickname)
	}
	for _, ch := range c.Channels {
		if !irc.IsChannel(ch) {
			return invalid("channels", "channel %q must start with '#' or '&'", ch)
		}
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Workers < 0 {
		return invalid("workers", "workers must not be negative, got %d", c.Workers)
	}
	if c.RateLimit.Burst < 0 || c.RateLimit.Rate < 0 {
		return invalid("rate_limit", "rate limit values must not be negative")
	}
	if c.DrainTimeout < 0 {
		return invalid("drain_timeout", "drain timeout must not be negative, got %s", c.DrainTimeout)
	}
	return nil
}
