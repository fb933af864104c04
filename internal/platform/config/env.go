package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable the engine reads.
const EnvPrefix = "THROWDOWN_"

// ParseEnv loads configuration into target from EnvPrefix-qualified
// environment variables. Struct tags name variables without the prefix.
func ParseEnv(target any) error {
	opts := env.Options{Prefix: EnvPrefix}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
