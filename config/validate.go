package config

import (
	"fmt"
	"strings"
)

var knownModules = map[string]struct{}{
	"sale":     {},
	"linkdrop": {},
}

// Validate rejects configurations the ledger cannot start with.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	params, err := c.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	for _, module := range c.PausedModules {
		if _, ok := knownModules[strings.ToLower(strings.TrimSpace(module))]; !ok {
			return fmt.Errorf("PausedModules: unknown module %q", module)
		}
	}
	if c.Auth.Enabled && len(c.Auth.HMACSecret) < 32 {
		return fmt.Errorf("auth: HMACSecret must be at least 32 bytes when auth is enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit: Burst must be positive")
	}
	return nil
}
