package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP server
	Port          int
	AllowedOrigin string

	// Browser
	NavigationTimeout time.Duration
	LaunchTimeout     time.Duration
	BrowserHeadless   bool
	ChromePath        string
	UserAgent         string
	Proxy             string
	Headers           map[string]string

	// Expiry
	Timezone string

	// Notifications
	NATSURL     string
	NATSSubject string
}

// Load builds a Config by combining defaults, an optional .env file, environment
// variables, and CLI flags. Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		Port:              DefaultPort,
		AllowedOrigin:     DefaultAllowedOrigin,
		NavigationTimeout: DefaultNavigationTimeout,
		LaunchTimeout:     DefaultLaunchTimeout,
		BrowserHeadless:   DefaultBrowserHeadless,
		UserAgent:         DefaultUserAgent,
		Timezone:          DefaultTimezone,
		NATSSubject:       DefaultNATSSubject,
		Headers:           map[string]string{},
	}

	envFile := ".env"
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	// .env is optional; existing environment variables take precedence
	if err := godotenv.Load(envFile); err == nil {
		log.Debug().Str("path", envFile).Msg("Loaded env file")
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("BOUNTY_ALLOWED_ORIGIN"); v != "" {
		cfg.AllowedOrigin = v
	}
	if v := os.Getenv("BOUNTY_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("BOUNTY_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("BOUNTY_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("BOUNTY_NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("BOUNTY_NATS_SUBJECT"); v != "" {
		cfg.NATSSubject = v
	}

	// Read CLI flags if provided
	if cmd != nil {
		flags := cmd.Flags()
		if f := flags.Lookup("port"); f != nil && f.Changed {
			port, err := strconv.Atoi(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid port %q: %w", f.Value.String(), err)
			}
			cfg.Port = port
		}
		if f := flags.Lookup("allowed-origin"); f != nil && f.Changed {
			cfg.AllowedOrigin = f.Value.String()
		}
		if f := flags.Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := flags.Lookup("proxy"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Proxy = s
			}
		}
		if f := flags.Lookup("chrome-path"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ChromePath = s
			}
		}
		if f := flags.Lookup("timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				d, err := time.ParseDuration(s)
				if err != nil {
					return nil, fmt.Errorf("invalid timeout %q: %w", s, err)
				}
				cfg.NavigationTimeout = d
			}
		}
		if f := flags.Lookup("headful"); f != nil && f.Value.String() == "true" {
			cfg.BrowserHeadless = false
		}
		if f := flags.Lookup("header"); f != nil {
			if values, err := flags.GetStringArray("header"); err == nil {
				for k, v := range ParseHeaders(values) {
					cfg.Headers[k] = v
				}
			}
		}
		if f := flags.Lookup("nats-url"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.NATSURL = s
			}
		}
		if f := flags.Lookup("json"); f != nil && f.Value.String() == "true" {
			cfg.JSONLog = true
		}
		if f := flags.Lookup("quiet"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "error"
		}
		if f := flags.Lookup("verbose"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
