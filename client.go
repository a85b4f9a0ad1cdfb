package authkit

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/clipstream/authkit/credstore"
	internalevent "github.com/clipstream/authkit/internal/event"
	"github.com/clipstream/authkit/internal/httpapi"
	internalmetrics "github.com/clipstream/authkit/internal/metrics"
)

// Client is the session and token lifecycle manager. Construct it with
// [Builder.Build]; the zero value is not usable.
//
// All exported methods are safe for concurrent use.
type Client struct {
	config  Config
	store   credstore.Store
	api     *httpapi.Client
	logger  zerolog.Logger
	limiter *rate.Limiter
	audit   *internalevent.Dispatcher
	metrics *internalmetrics.Metrics

	// mu guards session, generation, refreshOp, and subscribers. The store is
	// written under mu so the persisted credential never diverges from the
	// in-memory session across a transition.
	mu          sync.Mutex
	session     Session
	generation  uint64
	refreshOp   *refreshOp
	subscribers map[uint64]func(Session)
	nextSubID   uint64
}

// Close flushes the audit dispatcher. The Client must not be used afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of all counters and histograms.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return c.metrics.Snapshot()
}

// Metrics exposes the live metrics instance for exporters.
func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Client) metricInc(id MetricID) {
	c.metrics.Inc(id)
}
