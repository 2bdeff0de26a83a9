package engine

import (
	"context"

	"github.com/law-makers/bounty/pkg/models"
)

// Page is a single browser tab scope. Close must be called on every path.
type Page interface {
	// Load navigates to url and returns the rendered document once the DOM is ready
	Load(ctx context.Context, url string) (string, error)

	// Close closes the tab
	Close() error
}

// Browser is a running browser engine instance shared across requests
type Browser interface {
	// NewPage opens an independent tab on the browser
	NewPage(ctx context.Context) (Page, error)

	// Close shuts the browser down
	Close() error
}

// Session hands out the shared Browser, launching it on first use
type Session interface {
	Acquire(ctx context.Context) (Browser, error)
}

// Extractor loads a page in the browser and returns the complete listing records
type Extractor interface {
	Extract(ctx context.Context, browser Browser, url string) ([]models.RawRecord, error)
}

// Notifier is told about bounties that were not seen before
type Notifier interface {
	NotifyNew(ctx context.Context, url string, records []models.BountyRecord) error
}
