package authkit

import (
	"errors"
	"net/url"
	"time"
)

// Config defines all tunables for a [Client].
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API     APIConfig
	Gateway GatewayConfig
	Store   StoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines the backend endpoint and per-call timeouts.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	UserAgent      string
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig defines how protected requests are dispatched.
//
// GatewayConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GatewayConfig struct {
	// PreemptiveRefresh renews the access token before dispatch when it is
	// already expired or expires within PreemptiveWindow.
	PreemptiveRefresh bool
	PreemptiveWindow  time.Duration

	// RateLimitPerSecond caps outgoing protected calls. Zero disables the
	// limiter entirely.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines credential persistence behavior.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	// FailOpen keeps login and refresh successful when the credential store
	// write fails; the session then lives in memory only. When false, store
	// write failures fail the operation.
	FailOpen bool
}

// AuditConfig defines the async audit dispatcher behavior.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines the in-process metrics behavior.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 15 * time.Second,
			RefreshTimeout: 10 * time.Second,
			UserAgent:      "authkit/1",
		},
		Gateway: GatewayConfig{
			PreemptiveRefresh:  false,
			PreemptiveWindow:   30 * time.Second,
			RateLimitPerSecond: 0,
			RateLimitBurst:     0,
		},
		Store: StoreConfig{
			FailOpen: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API RequestTimeout must be > 0")
	}
	if c.API.RefreshTimeout <= 0 {
		return errors.New("API RefreshTimeout must be > 0")
	}

	// Gateway
	if c.Gateway.PreemptiveRefresh && c.Gateway.PreemptiveWindow <= 0 {
		return errors.New("Gateway PreemptiveWindow must be > 0 when PreemptiveRefresh is enabled")
	}
	if c.Gateway.RateLimitPerSecond < 0 {
		return errors.New("Gateway RateLimitPerSecond must be >= 0")
	}
	if c.Gateway.RateLimitPerSecond > 0 && c.Gateway.RateLimitBurst <= 0 {
		return errors.New("Gateway RateLimitBurst must be > 0 when rate limiting is enabled")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
