// Package reqctx carries per-request identity through context.
package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type key int

const requestKey key = 0

// RequestContext identifies one scrape request in logs
type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// WithRequestContext attaches a fresh request context to ctx
func WithRequestContext(ctx context.Context) context.Context {
	return WithRequestID(ctx, uuid.New().String())
}

// WithRequestID attaches a request context with the given id, generating one when empty
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: id,
		StartTime: time.Now(),
	})
}

// GetRequestContext returns the request context stored in ctx
func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}
