package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FITLINK_CONFIG is set
//  3. env (prefix FITLINK_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FITLINK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// FITLINK_WATCH_DIR -> watch_dir; underscores are kept so env keys line
	// up with the koanf tags on the struct.
	envProvider := env.Provider("FITLINK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "fitlink_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.WatchDir == "" {
		return nil, errors.New("watch_dir must not be empty")
	}
	if cfg.UserID == "" {
		return nil, errors.New("user_id must not be empty")
	}
	switch cfg.Source {
	case "garmin", "wahoo":
	default:
		return nil, errors.New("source must be garmin or wahoo")
	}
	return &cfg, nil
}
