// internal/engine/dynamic/chrome.go
package dynamic

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog/log"
)

// linuxCandidates are the usual install paths in containers and desktops
var linuxCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/snap/bin/chromium",
	"/headless-shell/headless-shell",
}

var darwinCandidates = []string{
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

// pathNames are looked up in PATH when no candidate exists
var pathNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome-stable",
	"google-chrome",
	"headless-shell",
	"chrome",
}

// FindChrome returns the browser executable to launch. A configured path wins
// when it is executable; an empty result lets chromedp use its own lookup.
func FindChrome(configured string) string {
	if configured != "" {
		if isExecutable(configured) {
			return configured
		}
		log.Warn().Str("path", configured).Msg("Configured chrome path is not executable")
	}

	var candidates []string
	switch runtime.GOOS {
	case "linux":
		candidates = linuxCandidates
	case "darwin":
		candidates = darwinCandidates
	}

	for _, path := range candidates {
		if isExecutable(path) {
			log.Debug().Str("path", path).Msg("Chrome found at standard location")
			return path
		}
	}

	for _, name := range pathNames {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", path).Msg("Chrome found in PATH")
			return path
		}
	}

	log.Warn().Str("os", runtime.GOOS).Msg("Chrome not found, falling back to chromedp default")
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}
