package config

import (
	"strings"

	"github.com/spf13/cobra"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("timeout", DefaultNavigationTimeout.String(), "Navigation timeout per scrape")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("proxy", "", "Proxy server for the browser (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().Bool("headful", false, "Run the browser with a visible window")
	cmd.PersistentFlags().StringArrayP("header", "H", []string{}, "Extra request header for page loads (e.g., -H \"Accept-Language: en\")")
	cmd.PersistentFlags().String("nats-url", "", "NATS server to publish new bounties to")
	cmd.PersistentFlags().String("env-file", "", "Path to a .env file (default .env)")
}

// ParseHeaders converts "Key: Value" strings into a map, skipping malformed entries
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		m[key] = strings.TrimSpace(parts[1])
	}
	return m
}
