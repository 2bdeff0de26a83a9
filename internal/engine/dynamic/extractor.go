// internal/engine/dynamic/extractor.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/internal/engine/selectors"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Extractor loads the listings page in its own tab and pulls the bounty
// records out of the rendered document
type Extractor struct {
	chain   selectors.Chain
	timeout time.Duration
}

// NewExtractor creates an Extractor. A nil chain uses selectors.DefaultChain,
// a zero timeout uses config.DefaultNavigationTimeout.
func NewExtractor(chain selectors.Chain, timeout time.Duration) *Extractor {
	if len(chain) == 0 {
		chain = selectors.DefaultChain
	}
	if timeout <= 0 {
		timeout = config.DefaultNavigationTimeout
	}
	return &Extractor{chain: chain, timeout: timeout}
}

// Extract opens a tab, navigates to url and returns the records that have a
// tag, title and date. The tab is closed on every path. Failures are reported
// as a single EXTRACTION_FAILED error, never as partial results.
func (e *Extractor) Extract(ctx context.Context, browser engine.Browser, url string) ([]models.RawRecord, error) {
	if url == "" {
		return nil, engine.Validation(engine.ErrURLRequired)
	}
	if browser == nil {
		return nil, engine.EngineUnavailable(engine.ErrEngineUnavailable).AtStage(engine.StageNavigating)
	}

	start := time.Now()

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, engine.ExtractionFailed("failed to open page", err).
			AtStage(engine.StageNavigating).
			WithDetail("url", url)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("url", url).Msg("Failed to close page")
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := page.Load(navCtx, url)
	if err != nil {
		msg := "navigation failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("navigation timed out after %s", e.timeout)
		}
		return nil, engine.ExtractionFailed(msg, fmt.Errorf("%w: %w", engine.ErrNavigation, err)).
			AtStage(engine.StageNavigating).
			WithDetail("url", url)
	}

	log.Debug().
		Str("url", url).
		Int("html_bytes", len(html)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("Page loaded")

	raw, err := e.chain.Parse(strings.NewReader(html))
	if err != nil {
		return nil, engine.ExtractionFailed("failed to parse document", err).
			AtStage(engine.StageExtracting).
			WithDetail("url", url)
	}

	records := selectors.Complete(raw)

	log.Info().
		Str("url", url).
		Int("containers", len(raw)).
		Int("records", len(records)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("Extraction completed")

	return records, nil
}
