// Package trace carries a trace-id/span-id pair through a pipeline run so
// log lines from every spawned goroutine can be correlated, and echoes the
// trace-id back on outbound messages via the X-Trace-Id header.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey int

const traceKey ctxKey = 0

// HeaderTraceID is the outbound message header carrying the trace-id.
const HeaderTraceID = "X-Trace-Id"

// Context is the trace/span pair attached to a single event's processing.
type Context struct {
	TraceID string
	SpanID  string
}

// New generates a fresh 32-char hex trace-id and 16-char hex span-id.
// google/uuid is used elsewhere in this codebase for group ids, but its
// dashed 36-character format doesn't match the fixed hex widths required
// here, so raw random bytes are hex-encoded instead.
func New() Context {
	return Context{
		TraceID: randomHex(16),
		SpanID:  randomHex(8),
	}
}

// NewSpan derives a new span under the same trace, for a child task.
func (c Context) NewSpan() Context {
	return Context{TraceID: c.TraceID, SpanID: randomHex(8)}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand on a supported platform does not fail; if it somehow
		// does, an all-zero id still lets processing continue.
		return hex.EncodeToString(make([]byte, n))
	}
	return hex.EncodeToString(b)
}

// WithContext attaches a trace Context to ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, traceKey, tc)
}

// FromContext retrieves the trace Context, generating a fresh one if absent.
func FromContext(ctx context.Context) Context {
	if tc, ok := ctx.Value(traceKey).(Context); ok {
		return tc
	}
	return New()
}
