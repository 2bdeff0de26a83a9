// Package cli provides the command-line interface for the bounty application.
package cli

import (
	"sync"

	"github.com/law-makers/bounty/internal/app"
	"github.com/spf13/cobra"
)

var (
	appMu     sync.Mutex
	globalApp *app.Application
)

// SetApp stores the Application for the running command
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	appMu.Lock()
	globalApp = a
	appMu.Unlock()
}

// GetApp retrieves the Application for the running command
func GetApp() *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	return globalApp
}

// GetAppFromCmd retrieves the Application initialized for cmd
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	if cmd == nil {
		return nil
	}
	return GetApp()
}
