// internal/engine/pipeline.go
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/law-makers/bounty/internal/reqctx"
	"github.com/law-makers/bounty/internal/response"
	urlutil "github.com/law-makers/bounty/internal/utils/url"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Classifier stamps raw records with their expiry flag
type Classifier interface {
	ClassifyBatch(raw []models.RawRecord) []models.BountyRecord
}

// Store diffs a batch against everything seen so far and merges it in.
// All returns every stored record in first-seen order.
type Store interface {
	DiffAndMerge(batch []models.BountyRecord) []models.BountyRecord
	All() []models.BountyRecord
}

// Pipeline runs one scrape: acquire the browser, extract, classify, diff,
// assemble. Any stage error ends the run with a stage-tagged EngineError.
type Pipeline struct {
	session    Session
	extractor  Extractor
	classifier Classifier
	store      Store
	notifier   Notifier
}

// NewPipeline wires the scrape stages together. notifier may be nil.
func NewPipeline(session Session, extractor Extractor, classifier Classifier, store Store, notifier Notifier) *Pipeline {
	return &Pipeline{
		session:    session,
		extractor:  extractor,
		classifier: classifier,
		store:      store,
		notifier:   notifier,
	}
}

// Run scrapes url and returns the payload for the caller
func (p *Pipeline) Run(ctx context.Context, url string) (models.ResponsePayload, error) {
	start := time.Now()
	logger := log.With().
		Str("request_id", reqctx.GetRequestContext(ctx).RequestID).
		Str("host", urlutil.Host(url)).
		Logger()

	fail := func(stage Stage, err error) (models.ResponsePayload, error) {
		var ee *EngineError
		if !errors.As(err, &ee) {
			ee = ExtractionFailed("scrape failed", err)
		}
		ee.AtStage(stage)
		logger.Error().
			Str("stage", string(ee.Stage)).
			Str("code", string(ee.Code)).
			Err(ee.Underlying).
			Dur("elapsed_ms", time.Since(start)).
			Msg(ee.Message)
		return models.ResponsePayload{}, ee
	}

	if url == "" {
		return fail(StageIdle, Validation(ErrURLRequired))
	}
	if err := urlutil.ValidateURL(url); err != nil {
		return fail(StageIdle, Validation(ErrInvalidURL).WithDetail("reason", err.Error()))
	}

	logger.Debug().Str("stage", string(StageBrowserAcquiring)).Msg("Acquiring browser")
	browser, err := p.session.Acquire(ctx)
	if err != nil {
		return fail(StageBrowserAcquiring, err)
	}
	if browser == nil {
		return fail(StageBrowserAcquiring, EngineUnavailable(ErrEngineUnavailable))
	}

	raw, err := p.extractor.Extract(ctx, browser, url)
	if err != nil {
		return fail(StageExtracting, err)
	}

	logger.Debug().Str("stage", string(StageClassifying)).Int("records", len(raw)).Msg("Classifying records")
	classified := p.classifier.ClassifyBatch(raw)

	logger.Debug().Str("stage", string(StageDiffing)).Msg("Diffing against store")
	added := p.store.DiffAndMerge(classified)
	stored := p.store.All()

	payload := response.Assemble(stored, added)

	logger.Info().
		Str("url", url).
		Str("stage", string(StageResponding)).
		Int("bounties", len(classified)).
		Int("stored", len(stored)).
		Int("new", len(added)).
		Dur("elapsed_ms", time.Since(start)).
		Msg(payload.Message)

	if len(added) > 0 && p.notifier != nil {
		if err := p.notifier.NotifyNew(ctx, url, added); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish new bounties")
		}
	}

	return payload, nil
}
