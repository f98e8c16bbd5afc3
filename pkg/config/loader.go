package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using its `env`
// tags. Slices use `envSeparator`, defaults come from `envDefault`.
//
//	type Config struct {
//	    Port    int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
//	    Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
