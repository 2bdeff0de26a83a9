package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func paint(color, s string, enabled bool) string {
	if !enabled {
		return s
	}
	return color + s + ColorReset
}

// Status renders a bounty's expiry state
func Status(expired bool, color bool) string {
	if expired {
		return paint(ColorDim+ColorRed, "expired", color)
	}
	return paint(ColorGreen, "active", color)
}

// NewMarker flags a bounty first seen in this scrape
func NewMarker(color bool) string {
	return paint(ColorBold+ColorYellow, "NEW", color)
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}
