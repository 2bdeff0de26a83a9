// Package expiry decides whether a bounty is past its due date.
package expiry

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/law-makers/bounty/internal/engine"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Classifier compares due dates against the start of the current day
type Classifier struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Classifier
type Option func(*Classifier)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// New creates a Classifier that interprets dates in loc (time.Local when nil)
func New(loc *time.Location, opts ...Option) *Classifier {
	if loc == nil {
		loc = time.Local
	}
	c := &Classifier{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today returns midnight of the current day in the classifier's location
func (c *Classifier) Today() time.Time {
	return StartOfDay(c.now().In(c.loc))
}

// StartOfDay truncates t to 00:00:00.000 in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Parse reads a due date in any of the common layouts
func (c *Classifier) Parse(dateString string) (time.Time, error) {
	return dateparse.ParseIn(strings.TrimSpace(dateString), c.loc)
}

// IsExpired reports whether dateString falls strictly before today.
// Absent or unparseable dates count as expired; the latter is logged as a
// classification warning naming the bounty title.
func (c *Classifier) IsExpired(title, dateString string, today time.Time) bool {
	if strings.TrimSpace(dateString) == "" {
		return true
	}

	parsed, err := c.Parse(dateString)
	if err != nil {
		log.Warn().
			Str("code", string(engine.ErrCodeClassificationWarning)).
			Str("title", title).
			Str("date", dateString).
			Err(err).
			Msg("Unparseable due date, treating bounty as expired")
		return true
	}

	return StartOfDay(parsed.In(c.loc)).Before(today)
}

// ClassifyBatch turns raw records into bounty records. Every record in the
// batch is compared against the same start-of-day instant.
func (c *Classifier) ClassifyBatch(raw []models.RawRecord) []models.BountyRecord {
	today := c.Today()
	out := make([]models.BountyRecord, 0, len(raw))
	for _, r := range raw {
		rec := models.BountyRecord{
			Tag:        deref(r.Tag),
			Title:      deref(r.Title),
			DateString: deref(r.Date),
		}
		rec.IsExpired = c.IsExpired(rec.Title, rec.DateString, today)
		out = append(out, rec)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
