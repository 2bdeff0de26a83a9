// Package notify publishes newly found bounties to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/law-makers/bounty/internal/reqctx"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Event is the message published for each scrape that found new bounties
type Event struct {
	URL       string                `json:"url"`
	FoundAt   time.Time             `json:"foundAt"`
	Count     int                   `json:"count"`
	Bounties  []models.BountyRecord `json:"bounties"`
	RequestID string                `json:"requestId,omitempty"`
}

// Publisher is the subset of *nats.Conn the notifier needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config configures the NATS notifier
type Config struct {
	URL     string
	Subject string
}

// NATSNotifier publishes new bounty events on a NATS subject
type NATSNotifier struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	now     func() time.Time
}

// Connect dials the NATS server and returns a notifier bound to cfg.Subject
func Connect(cfg Config) (*NATSNotifier, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("bounty-watch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	n := NewNATSNotifier(nc, cfg.Subject)
	n.conn = nc
	return n, nil
}

// NewNATSNotifier wraps an existing publisher
func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{pub: pub, subject: subject, now: time.Now}
}

// NotifyNew publishes one event holding all records
func (n *NATSNotifier) NotifyNew(ctx context.Context, url string, records []models.BountyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	evt := Event{
		URL:      url,
		FoundAt:  n.now().UTC(),
		Count:    len(records),
		Bounties: records,
	}
	if rc := reqctx.GetRequestContext(ctx); rc.RequestID != "unknown" {
		evt.RequestID = rc.RequestID
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.subject, err)
	}

	log.Debug().Str("subject", n.subject).Int("count", len(records)).Msg("Published new bounties")
	return nil
}

// Close drains the connection if the notifier owns one
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
