// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"io/fs"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// FlagKeys maps command line flag names onto configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"server":       "server.address",
	"port":         "server.port",
	"nickname":     "nickname",
	"log-format":   "log.format",
	"metrics-addr": "metrics_addr",
}

// Load builds a Config from the defaults, the YAML file at path and the
// flags the user set explicitly. A missing file is not an error when
// path is empty; an explicit path must exist.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			code := CodeInvalidConfig
			if errors.Is(err, fs.ErrNotExist) {
				code = CodeConfigNotFound
			}
			return Config{}, oops.Code(code).
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code(CodeInvalidConfig).Wrapf(err, "loading flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code(CodeInvalidConfig).
			With("path", path).
			Wrapf(err, "decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
