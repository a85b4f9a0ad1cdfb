package authkit

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfigFromEnv builds a [Config] from environment variables, with an
// optional .env file loaded first. Unset variables keep the library defaults.
//
// Recognized variables:
//
//	AUTHKIT_BASE_URL                backend base URL (required to Build)
//	AUTHKIT_REQUEST_TIMEOUT_MS      per-call timeout for protected requests
//	AUTHKIT_REFRESH_TIMEOUT_MS      bound on a single renewal call
//	AUTHKIT_USER_AGENT              User-Agent header value
//	AUTHKIT_PREEMPTIVE_REFRESH      renew before dispatch when token expires soon
//	AUTHKIT_PREEMPTIVE_WINDOW_MS    expiry window for preemptive renewal
//	AUTHKIT_RATE_LIMIT_PER_SECOND   outgoing protected-call rate cap (0 = off)
//	AUTHKIT_RATE_LIMIT_BURST        limiter burst size
//	AUTHKIT_STORE_FAIL_OPEN         tolerate credential store write failures
//	AUTHKIT_AUDIT_ENABLED           enable the async audit dispatcher
//	AUTHKIT_AUDIT_BUFFER_SIZE       audit channel capacity
//	AUTHKIT_AUDIT_DROP_IF_FULL      drop events instead of blocking
//	AUTHKIT_METRICS_ENABLED         enable in-process metrics
//	AUTHKIT_METRICS_LATENCY         enable the gateway latency histogram
func LoadConfigFromEnv(dotenvPath string) Config {
	if dotenvPath != "" {
		_ = godotenv.Load(dotenvPath)
	}

	v := viper.New()
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("AUTHKIT_REQUEST_TIMEOUT_MS", int(def.API.RequestTimeout/time.Millisecond))
	v.SetDefault("AUTHKIT_REFRESH_TIMEOUT_MS", int(def.API.RefreshTimeout/time.Millisecond))
	v.SetDefault("AUTHKIT_USER_AGENT", def.API.UserAgent)
	v.SetDefault("AUTHKIT_PREEMPTIVE_REFRESH", def.Gateway.PreemptiveRefresh)
	v.SetDefault("AUTHKIT_PREEMPTIVE_WINDOW_MS", int(def.Gateway.PreemptiveWindow/time.Millisecond))
	v.SetDefault("AUTHKIT_RATE_LIMIT_PER_SECOND", def.Gateway.RateLimitPerSecond)
	v.SetDefault("AUTHKIT_RATE_LIMIT_BURST", def.Gateway.RateLimitBurst)
	v.SetDefault("AUTHKIT_STORE_FAIL_OPEN", def.Store.FailOpen)
	v.SetDefault("AUTHKIT_AUDIT_ENABLED", def.Audit.Enabled)
	v.SetDefault("AUTHKIT_AUDIT_BUFFER_SIZE", def.Audit.BufferSize)
	v.SetDefault("AUTHKIT_AUDIT_DROP_IF_FULL", def.Audit.DropIfFull)
	v.SetDefault("AUTHKIT_METRICS_ENABLED", def.Metrics.Enabled)
	v.SetDefault("AUTHKIT_METRICS_LATENCY", def.Metrics.EnableLatencyHistograms)

	cfg := def
	cfg.API.BaseURL = v.GetString("AUTHKIT_BASE_URL")
	cfg.API.RequestTimeout = time.Duration(v.GetInt("AUTHKIT_REQUEST_TIMEOUT_MS")) * time.Millisecond
	cfg.API.RefreshTimeout = time.Duration(v.GetInt("AUTHKIT_REFRESH_TIMEOUT_MS")) * time.Millisecond
	cfg.API.UserAgent = v.GetString("AUTHKIT_USER_AGENT")
	cfg.Gateway.PreemptiveRefresh = v.GetBool("AUTHKIT_PREEMPTIVE_REFRESH")
	cfg.Gateway.PreemptiveWindow = time.Duration(v.GetInt("AUTHKIT_PREEMPTIVE_WINDOW_MS")) * time.Millisecond
	cfg.Gateway.RateLimitPerSecond = v.GetFloat64("AUTHKIT_RATE_LIMIT_PER_SECOND")
	cfg.Gateway.RateLimitBurst = v.GetInt("AUTHKIT_RATE_LIMIT_BURST")
	cfg.Store.FailOpen = v.GetBool("AUTHKIT_STORE_FAIL_OPEN")
	cfg.Audit.Enabled = v.GetBool("AUTHKIT_AUDIT_ENABLED")
	cfg.Audit.BufferSize = v.GetInt("AUTHKIT_AUDIT_BUFFER_SIZE")
	cfg.Audit.DropIfFull = v.GetBool("AUTHKIT_AUDIT_DROP_IF_FULL")
	cfg.Metrics.Enabled = v.GetBool("AUTHKIT_METRICS_ENABLED")
	cfg.Metrics.EnableLatencyHistograms = v.GetBool("AUTHKIT_METRICS_LATENCY")

	return cfg
}
