package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/internal/response"
	"github.com/law-makers/bounty/pkg/models"
)

type fakeScraper struct {
	mu      sync.Mutex
	calls   int
	lastURL string
	payload models.ResponsePayload
	err     error
	panics  bool
}

func (f *fakeScraper) Run(ctx context.Context, url string) (models.ResponsePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastURL = url
	if f.panics {
		panic("boom")
	}
	return f.payload, f.err
}

type fakeStatus struct{ active bool }

func (f fakeStatus) Active() bool { return f.active }

type fakeStats struct{ n int }

func (f fakeStats) Len() int { return f.n }

func newTestServer(scraper Scraper) *Server {
	return New(Options{
		Addr:          "127.0.0.1:0",
		AllowedOrigin: "*",
		Scraper:       scraper,
		Browser:       fakeStatus{active: true},
		Store:         fakeStats{n: 3},
	})
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error
}

func TestScrapeMissingURL(t *testing.T) {
	scraper := &fakeScraper{}
	rec := do(t, newTestServer(scraper), http.MethodGet, "/scrape")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgURLRequired {
		t.Errorf("expected %q, got %q", msgURLRequired, msg)
	}
	if scraper.calls != 0 {
		t.Error("scraper must not run without a url")
	}
}

func TestScrapeInvalidURL(t *testing.T) {
	scraper := &fakeScraper{}
	rec := do(t, newTestServer(scraper), http.MethodGet, "/scrape?url=ftp://example.com")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgInvalidURL {
		t.Errorf("expected %q, got %q", msgInvalidURL, msg)
	}
	if scraper.calls != 0 {
		t.Error("scraper must not run for an invalid url")
	}
}

func TestScrapeSuccess(t *testing.T) {
	record := models.BountyRecord{Tag: "DeFi", Title: "Build X", DateString: "2099-01-01"}
	scraper := &fakeScraper{payload: response.Assemble([]models.BountyRecord{record}, []models.BountyRecord{record})}

	rec := do(t, newTestServer(scraper), http.MethodGet, "/scrape?url=https%3A%2F%2Fexample.com%2Fbounties")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if scraper.lastURL != "https://example.com/bounties" {
		t.Errorf("unexpected url passed to scraper: %s", scraper.lastURL)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var payload models.ResponsePayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Message != response.MessageUpdated || len(payload.NewlyAddedBounties) != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.BountiesByTag["DeFi"][0].Title != "Build X" {
		t.Errorf("unexpected grouping: %+v", payload.BountiesByTag)
	}
}

func TestScrapeUnchangedBodyHasEmptyList(t *testing.T) {
	record := models.BountyRecord{Tag: "DeFi", Title: "Build X", DateString: "2099-01-01"}
	scraper := &fakeScraper{payload: response.Assemble([]models.BountyRecord{record}, nil)}

	rec := do(t, newTestServer(scraper), http.MethodGet, "/scrape?url=https://example.com")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["newlyAddedBounties"]) != "[]" {
		t.Errorf("expected newlyAddedBounties to be [], got %s", raw["newlyAddedBounties"])
	}
}

func TestScrapeErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"engine unavailable", engine.EngineUnavailable(errors.New("no chrome")), http.StatusInternalServerError, msgEngineUnavailable},
		{"extraction failed", engine.ExtractionFailed("navigation failed", errors.New("dns")), http.StatusInternalServerError, msgScrapeFailed},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError, msgScrapeFailed},
		{"validation", engine.Validation(engine.ErrURLRequired), http.StatusBadRequest, msgURLRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&fakeScraper{err: tt.err}), http.MethodGet, "/scrape?url=https://example.com")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeError(t, rec); msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestScrapeErrorDoesNotLeakDetail(t *testing.T) {
	scraper := &fakeScraper{err: engine.ExtractionFailed("navigation failed", errors.New("secret internal path /opt/chrome"))}
	rec := do(t, newTestServer(scraper), http.MethodGet, "/scrape?url=https://example.com")

	if msg := decodeError(t, rec); msg != msgScrapeFailed {
		t.Errorf("expected generic message, got %q", msg)
	}
}

func TestCORSHeaders(t *testing.T) {
	s := New(Options{AllowedOrigin: "https://dash.example.com", Scraper: &fakeScraper{}})

	for _, target := range []string{"/scrape", "/healthz", "/missing"} {
		rec := do(t, s, http.MethodGet, target)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
			t.Errorf("%s: unexpected Allow-Origin %q", target, got)
		}
	}

	rec := do(t, s, http.MethodGet, "/scrape")
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("unexpected Allow-Methods %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("unexpected Allow-Headers %q", got)
	}
}

func TestPreflight(t *testing.T) {
	scraper := &fakeScraper{}
	rec := do(t, newTestServer(scraper), http.MethodOptions, "/scrape")

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on preflight")
	}
	if scraper.calls != 0 {
		t.Error("preflight must not scrape")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(&fakeScraper{}), http.MethodDelete, "/scrape")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(&fakeScraper{})

	rec := do(t, s, http.MethodGet, "/healthz")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected incoming id to be kept, got %q", got)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeScraper{}), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || !body.Browser || body.Bounties != 3 {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestRecoverFromPanic(t *testing.T) {
	rec := do(t, newTestServer(&fakeScraper{panics: true}), http.MethodGet, "/scrape?url=https://example.com")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := New(Options{Scraper: &fakeScraper{}, ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
