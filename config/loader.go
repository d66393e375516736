package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. A double underscore separates
// sections: NODEPNL_ENGINE__WORKERS sets engine.workers.
const EnvPrefix = "NODEPNL_"

// LoadFromFile builds a Config by layering, low to high: Default, the file
// (YAML or JSON) and NODEPNL_ environment variables. The result is validated.
func LoadFromFile(path string) (*Config, error) {
	k := koanf.New(".")

	// JSON is valid YAML, so one parser reads both.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := Default()
	// Slices are decoded in place, so clear the sample values a shorter list
	// in the file would otherwise leave behind.
	cfg.Schedule.Holidays = nil
	cfg.Positions = nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
