package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/internal/expiry"
	"github.com/law-makers/bounty/internal/reqctx"
	"github.com/law-makers/bounty/internal/response"
	"github.com/law-makers/bounty/internal/store"
	"github.com/law-makers/bounty/pkg/models"
)

type fakeBrowser struct{}

func (fakeBrowser) NewPage(ctx context.Context) (engine.Page, error) { return nil, nil }
func (fakeBrowser) Close() error                                     { return nil }

type fakeSession struct {
	mu       sync.Mutex
	err      error
	nilValue bool
	calls    int
}

func (s *fakeSession) Acquire(ctx context.Context) (engine.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.nilValue {
		return nil, nil
	}
	return fakeBrowser{}, nil
}

type fakeExtractor struct {
	records []models.RawRecord
	err     error
	urls    []string
}

func (e *fakeExtractor) Extract(ctx context.Context, b engine.Browser, url string) ([]models.RawRecord, error) {
	e.urls = append(e.urls, url)
	if e.err != nil {
		return nil, e.err
	}
	return e.records, nil
}

type fakeNotifier struct {
	calls   int
	records []models.BountyRecord
	err     error
}

func (n *fakeNotifier) NotifyNew(ctx context.Context, url string, records []models.BountyRecord) error {
	n.calls++
	n.records = records
	return n.err
}

func raw(tag, title, date string) models.RawRecord {
	return models.RawRecord{Tag: &tag, Title: &title, Date: &date}
}

func newPipeline(session engine.Session, extractor engine.Extractor, s *store.BountyStore, n engine.Notifier) *engine.Pipeline {
	now := func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return engine.NewPipeline(session, extractor, expiry.New(time.UTC, expiry.WithClock(now)), s, n)
}

func TestPipelineFirstScrapeReportsNew(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	s := store.New()
	p := newPipeline(&fakeSession{}, ext, s, nil)

	payload, err := p.Run(context.Background(), "https://example.com/bounties")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if payload.Message != response.MessageUpdated {
		t.Errorf("expected %q, got %q", response.MessageUpdated, payload.Message)
	}
	if len(payload.NewlyAddedBounties) != 1 {
		t.Fatalf("expected 1 new bounty, got %d", len(payload.NewlyAddedBounties))
	}
	got := payload.NewlyAddedBounties[0]
	if got.Tag != "DeFi" || got.Title != "Build X" || got.DateString != "2099-01-01" || got.IsExpired {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(payload.BountiesByTag["DeFi"]) != 1 {
		t.Errorf("expected DeFi group with 1 record, got %v", payload.BountiesByTag)
	}
}

func TestPipelineRepeatScrapeReportsNothingNew(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	s := store.New()
	p := newPipeline(&fakeSession{}, ext, s, nil)

	if _, err := p.Run(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	payload, err := p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if payload.Message != response.MessageUnchanged {
		t.Errorf("expected %q, got %q", response.MessageUnchanged, payload.Message)
	}
	if payload.NewlyAddedBounties == nil || len(payload.NewlyAddedBounties) != 0 {
		t.Errorf("expected empty new list, got %#v", payload.NewlyAddedBounties)
	}
	if len(payload.BountiesByTag["DeFi"]) != 1 {
		t.Errorf("expected grouping to still contain the record, got %v", payload.BountiesByTag)
	}
	if s.Len() != 1 {
		t.Errorf("expected store size 1, got %d", s.Len())
	}
}

func TestPipelineGroupsWholeStore(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	s := store.New()
	p := newPipeline(&fakeSession{}, ext, s, nil)

	if _, err := p.Run(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	ext.records = []models.RawRecord{raw("Design", "Logo Y", "2099-02-01")}
	payload, err := p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if len(payload.BountiesByTag) != 2 {
		t.Fatalf("expected tags DeFi and Design, got %v", payload.BountiesByTag)
	}
	if len(payload.BountiesByTag["DeFi"]) != 1 || payload.BountiesByTag["DeFi"][0].Title != "Build X" {
		t.Errorf("expected earlier record under DeFi, got %v", payload.BountiesByTag["DeFi"])
	}
	if len(payload.BountiesByTag["Design"]) != 1 || payload.BountiesByTag["Design"][0].Title != "Logo Y" {
		t.Errorf("expected new record under Design, got %v", payload.BountiesByTag["Design"])
	}
	if len(payload.NewlyAddedBounties) != 1 || payload.NewlyAddedBounties[0].Title != "Logo Y" {
		t.Errorf("expected only Logo Y as new, got %+v", payload.NewlyAddedBounties)
	}
}

func TestPipelineStoredExpiryIsNotRecomputed(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2025-06-10")}}
	p := engine.NewPipeline(&fakeSession{}, ext, expiry.New(time.UTC, expiry.WithClock(clock)), store.New(), nil)

	payload, err := p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if payload.BountiesByTag["DeFi"][0].IsExpired {
		t.Fatal("expected record to be active on the first scrape")
	}

	mu.Lock()
	now = time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC)
	mu.Unlock()

	ext.records = []models.RawRecord{raw("Design", "Logo Y", "2025-06-01")}
	payload, err = p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	defi := payload.BountiesByTag["DeFi"]
	if len(defi) != 1 || defi[0].IsExpired {
		t.Errorf("expected stored record to keep isExpired=false, got %+v", defi)
	}
	design := payload.BountiesByTag["Design"]
	if len(design) != 1 || !design[0].IsExpired {
		t.Errorf("expected newly scraped record to be expired, got %+v", design)
	}
}

func TestPipelineExpiredRecord(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("Content", "Old", "2000-01-01")}}
	p := newPipeline(&fakeSession{}, ext, store.New(), nil)

	payload, err := p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !payload.BountiesByTag["Content"][0].IsExpired {
		t.Error("expected record to be expired")
	}
}

func TestPipelineEmptyURL(t *testing.T) {
	session := &fakeSession{}
	p := newPipeline(session, &fakeExtractor{}, store.New(), nil)

	_, err := p.Run(context.Background(), "")
	if engine.CodeOf(err) != engine.ErrCodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
	if session.calls != 0 {
		t.Errorf("expected no browser acquisition, got %d", session.calls)
	}
}

func TestPipelineRejectsInvalidURL(t *testing.T) {
	session := &fakeSession{}
	p := newPipeline(session, &fakeExtractor{}, store.New(), nil)

	for _, u := range []string{"ftp://example.com", "example.com", "http://"} {
		_, err := p.Run(context.Background(), u)
		if !errors.Is(err, engine.ErrInvalidURL) {
			t.Errorf("Run(%q): expected ErrInvalidURL, got %v", u, err)
		}
	}
	if session.calls != 0 {
		t.Errorf("expected no browser acquisition, got %d", session.calls)
	}
}

func TestPipelineLaunchFailureLeavesStoreUntouched(t *testing.T) {
	session := &fakeSession{err: engine.EngineUnavailable(errors.New("chrome not found"))}
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	s := store.New()
	p := newPipeline(session, ext, s, nil)

	_, err := p.Run(context.Background(), "https://example.com")
	if engine.CodeOf(err) != engine.ErrCodeEngineUnavailable {
		t.Fatalf("expected ENGINE_UNAVAILABLE, got %v", err)
	}
	if engine.StageOf(err) != engine.StageBrowserAcquiring {
		t.Errorf("expected stage %s, got %s", engine.StageBrowserAcquiring, engine.StageOf(err))
	}
	if len(ext.urls) != 0 {
		t.Error("extractor should not run without a browser")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestPipelineNilBrowser(t *testing.T) {
	p := newPipeline(&fakeSession{nilValue: true}, &fakeExtractor{}, store.New(), nil)

	_, err := p.Run(context.Background(), "https://example.com")
	if !errors.Is(err, engine.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestPipelineExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{err: engine.ExtractionFailed("navigation failed", errors.New("net::ERR_NAME_NOT_RESOLVED")).AtStage(engine.StageNavigating)}
	s := store.New()
	p := newPipeline(&fakeSession{}, ext, s, nil)

	_, err := p.Run(context.Background(), "https://example.invalid")
	if engine.CodeOf(err) != engine.ErrCodeExtractionFailed {
		t.Fatalf("expected EXTRACTION_FAILED, got %v", err)
	}
	if engine.StageOf(err) != engine.StageNavigating {
		t.Errorf("expected stage kept as %s, got %s", engine.StageNavigating, engine.StageOf(err))
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestPipelinePlainErrorIsWrapped(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("boom")}
	p := newPipeline(&fakeSession{}, ext, store.New(), nil)

	_, err := p.Run(context.Background(), "https://example.com")
	var ee *engine.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if ee.Code != engine.ErrCodeExtractionFailed || ee.Stage != engine.StageExtracting {
		t.Errorf("unexpected code/stage: %s/%s", ee.Code, ee.Stage)
	}
}

func TestPipelineNotifiesOnlyNew(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	n := &fakeNotifier{}
	p := newPipeline(&fakeSession{}, ext, store.New(), n)

	ctx := reqctx.WithRequestID(context.Background(), "req-1")
	if _, err := p.Run(ctx, "https://example.com"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := p.Run(ctx, "https://example.com"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if n.calls != 1 {
		t.Errorf("expected 1 notification, got %d", n.calls)
	}
	if len(n.records) != 1 || n.records[0].Title != "Build X" {
		t.Errorf("unexpected notified records: %+v", n.records)
	}
}

func TestPipelineNotifierFailureDoesNotFailScrape(t *testing.T) {
	ext := &fakeExtractor{records: []models.RawRecord{raw("DeFi", "Build X", "2099-01-01")}}
	n := &fakeNotifier{err: errors.New("nats down")}
	p := newPipeline(&fakeSession{}, ext, store.New(), n)

	payload, err := p.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("expected success despite notifier error, got %v", err)
	}
	if !payload.Updated() {
		t.Error("expected new bounties in payload")
	}
}
