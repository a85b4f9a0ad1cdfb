package internaldefs

import (
	authkit "github.com/clipstream/authkit"
)

// CounterDef binds a counter MetricID to its exported name and help text.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exported name and help text.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical counter list shared by all exporters.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Successful logins."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Rejected or failed logins."},
	{ID: authkit.MetricRegisterSuccess, Name: "authkit_register_success_total", Help: "Successful registrations."},
	{ID: authkit.MetricRegisterFailure, Name: "authkit_register_failure_total", Help: "Rejected or failed registrations."},
	{ID: authkit.MetricBootstrapVerified, Name: "authkit_bootstrap_verified_total", Help: "Startup credentials confirmed by the backend."},
	{ID: authkit.MetricBootstrapRejected, Name: "authkit_bootstrap_rejected_total", Help: "Startup credentials rejected and discarded."},
	{ID: authkit.MetricBootstrapSkipped, Name: "authkit_bootstrap_skipped_total", Help: "Startups with no persisted credential."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Renewals that produced a new credential."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Failed renewal calls."},
	{ID: authkit.MetricRefreshJoined, Name: "authkit_refresh_joined_total", Help: "Callers that joined an in-flight renewal."},
	{ID: authkit.MetricRefreshNoToken, Name: "authkit_refresh_no_token_total", Help: "Renewal requests with no refresh token held."},
	{ID: authkit.MetricRefreshStaleDiscarded, Name: "authkit_refresh_stale_discarded_total", Help: "Renewal resolutions discarded as stale."},
	{ID: authkit.MetricGatewayRequest, Name: "authkit_gateway_request_total", Help: "Protected calls dispatched by the gateway."},
	{ID: authkit.MetricGatewayAuthRetry, Name: "authkit_gateway_auth_retry_total", Help: "Protected calls replayed after a renewal."},
	{ID: authkit.MetricGatewayAuthFailure, Name: "authkit_gateway_auth_failure_total", Help: "Protected calls rejected after the retry allowance."},
	{ID: authkit.MetricGatewayPreemptiveRefresh, Name: "authkit_gateway_preemptive_refresh_total", Help: "Renewals triggered by an expiring token before dispatch."},
	{ID: authkit.MetricLogout, Name: "authkit_logout_total", Help: "Explicit logouts."},
	{ID: authkit.MetricSessionReset, Name: "authkit_session_reset_total", Help: "Session resets caused by renewal failure."},
	{ID: authkit.MetricStoreWriteFailure, Name: "authkit_store_write_failure_total", Help: "Credential store writes that failed."},
}

// HistogramDefs is the canonical histogram list shared by all exporters.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricGatewayLatency, Name: "authkit_gateway_latency_seconds", Help: "Gateway round-trip latency histogram."},
}

// HistogramBounds holds the upper bucket bounds in Prometheus label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds the bound names in identifier-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts as
// required by the Prometheus histogram exposition format.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
