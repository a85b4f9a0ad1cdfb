package authkit

import (
	"io"

	"github.com/clipstream/authkit/credstore"
	internalevent "github.com/clipstream/authkit/internal/event"
	internalmetrics "github.com/clipstream/authkit/internal/metrics"
)

// SessionStatus represents the lifecycle state of the client session.
type SessionStatus uint8

const (
	// StatusUnauthenticated means no usable credential is held. Initial state,
	// and the landing state after a rejected bootstrap.
	StatusUnauthenticated SessionStatus = iota
	// StatusVerifying means a persisted credential was found at startup and is
	// being confirmed against the backend.
	StatusVerifying
	// StatusAuthenticated means a confirmed identity and credential are held.
	StatusAuthenticated
	// StatusRefreshing means a renewal call is in flight. Protected requests
	// queue behind it rather than observing the stale credential.
	StatusRefreshing
	// StatusLoggedOut means a previously authenticated session ended, by
	// explicit logout or by an unrecoverable renewal failure.
	StatusLoggedOut
)

// String returns the lowercase state name used in audit events and logs.
func (s SessionStatus) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusVerifying:
		return "verifying"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	case StatusLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Credential is the token pair held for the current session.
type Credential = credstore.Credential

// Identity is the confirmed user behind the current session.
type Identity = credstore.Identity

// Session is an immutable snapshot of the session state machine, returned by
// [Client.Snapshot] and delivered to subscribers on every transition.
type Session struct {
	Status     SessionStatus
	Identity   Identity
	Credential Credential
}

// Authenticated reports whether the snapshot holds a confirmed identity.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated || s.Status == StatusRefreshing
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalevent.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalevent.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalevent.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalevent.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalevent.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalevent.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalevent.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure = MetricID(internalmetrics.MetricLoginFailure)
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess = MetricID(internalmetrics.MetricRegisterSuccess)
	// MetricRegisterFailure counts rejected or failed registrations.
	MetricRegisterFailure = MetricID(internalmetrics.MetricRegisterFailure)
	// MetricBootstrapVerified counts startup credentials confirmed by the backend.
	MetricBootstrapVerified = MetricID(internalmetrics.MetricBootstrapVerified)
	// MetricBootstrapRejected counts startup credentials rejected and discarded.
	MetricBootstrapRejected = MetricID(internalmetrics.MetricBootstrapRejected)
	// MetricBootstrapSkipped counts startups with no persisted credential.
	MetricBootstrapSkipped = MetricID(internalmetrics.MetricBootstrapSkipped)
	// MetricRefreshSuccess counts renewals that produced a new credential.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure counts renewals rejected by the backend.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshJoined counts callers that joined an in-flight renewal
	// instead of starting their own.
	MetricRefreshJoined = MetricID(internalmetrics.MetricRefreshJoined)
	// MetricRefreshNoToken counts renewal requests with no refresh token held.
	MetricRefreshNoToken = MetricID(internalmetrics.MetricRefreshNoToken)
	// MetricRefreshStaleDiscarded counts renewal resolutions discarded because
	// the session changed while the call was in flight.
	MetricRefreshStaleDiscarded = MetricID(internalmetrics.MetricRefreshStaleDiscarded)
	// MetricGatewayRequest counts protected calls dispatched by the gateway.
	MetricGatewayRequest = MetricID(internalmetrics.MetricGatewayRequest)
	// MetricGatewayAuthRetry counts protected calls replayed after a renewal.
	MetricGatewayAuthRetry = MetricID(internalmetrics.MetricGatewayAuthRetry)
	// MetricGatewayAuthFailure counts protected calls rejected after the retry
	// allowance was consumed.
	MetricGatewayAuthFailure = MetricID(internalmetrics.MetricGatewayAuthFailure)
	// MetricGatewayPreemptiveRefresh counts renewals triggered by an expiring
	// access token before dispatch.
	MetricGatewayPreemptiveRefresh = MetricID(internalmetrics.MetricGatewayPreemptiveRefresh)
	// MetricLogout counts explicit logouts.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricSessionReset counts session resets caused by renewal failure.
	MetricSessionReset = MetricID(internalmetrics.MetricSessionReset)
	// MetricStoreWriteFailure counts credential store writes that failed.
	MetricStoreWriteFailure = MetricID(internalmetrics.MetricStoreWriteFailure)
	// MetricGatewayLatency is the gateway round-trip latency histogram.
	MetricGatewayLatency = MetricID(internalmetrics.MetricGatewayLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
