package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using its
// `env` / `envDefault` tags.
//
//	type Config struct {
//	    Port       int    `env:"ADMIN_HTTP_PORT" envDefault:"8020"`
//	    BackendURL string `env:"CATALOG_BACKEND_URL,required"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadWithPrefix is like Load but every variable name is prefixed, which lets
// tests and side-by-side deployments run isolated configurations.
func LoadWithPrefix(cfg any, prefix string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse config with prefix %q: %w", prefix, err)
	}
	return nil
}
