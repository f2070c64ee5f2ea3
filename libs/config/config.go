package config

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Parse loads configuration from environment variables into target, which
// must be a pointer to a struct tagged for caarlos0/env.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Port(key, value string) (string, error) {
	p, err := strconv.Atoi(value)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, value)
	}
	return value, nil
}
