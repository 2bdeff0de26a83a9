package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.NavigationTimeout <= 0 || c.NavigationTimeout > MaxNavigationTimeout {
		return fmt.Errorf("navigation timeout must be > 0 and <= %s", MaxNavigationTimeout)
	}
	if c.LaunchTimeout < 0 {
		return fmt.Errorf("launch timeout must be >= 0")
	}
	if c.AllowedOrigin == "" {
		return fmt.Errorf("allowed origin must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	if c.NATSURL != "" && strings.TrimSpace(c.NATSSubject) == "" {
		return fmt.Errorf("nats subject is required when a nats url is set")
	}
	return nil
}
