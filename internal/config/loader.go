package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if PROSPECTOR_CONFIG is set
//  3. env (prefix PROSPECTOR_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PROSPECTOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Env keys map PROSPECTOR_PROBE_TIMEOUT_MS -> probe_timeout_ms,
	// preserving underscores to match the koanf struct tags.
	envProvider := env.Provider("PROSPECTOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "prospector_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.ProbeTimeoutMS <= 0 {
		return fmt.Errorf("%w: probe_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("%w: max_redirects must not be negative", ErrInvalidConfig)
	}
	if c.ProbesPerSecond <= 0 {
		return fmt.Errorf("%w: probes_per_second must be positive", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.ContactThreshold <= c.MaybeThreshold {
		return fmt.Errorf("%w: contact_threshold must exceed maybe_threshold", ErrInvalidConfig)
	}
	if c.InputCSV == "" {
		return fmt.Errorf("%w: input_csv must not be empty", ErrInvalidConfig)
	}
	return nil
}
