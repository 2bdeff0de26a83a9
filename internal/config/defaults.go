package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultPort              = 3000
	DefaultAllowedOrigin     = "*"
	DefaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36 BountyWatch/1.0"
	DefaultNavigationTimeout = 60 * time.Second
	DefaultLaunchTimeout     = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultBrowserHeadless   = true
	DefaultTimezone          = "Local"
	DefaultNATSSubject       = "bounty.new"
	DefaultWatchSchedule     = "@every 10m"
	MaxNavigationTimeout     = 5 * time.Minute
)
