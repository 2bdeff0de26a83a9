package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that urlStr is an absolute http or https URL with a host
func ValidateURL(urlStr string) error {
	if strings.TrimSpace(urlStr) == "" {
		return fmt.Errorf("invalid URL: empty")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Host returns the host part of urlStr, or urlStr itself when it does not parse
func Host(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return urlStr
	}
	return parsed.Host
}
