package authkit

import (
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/clipstream/authkit/credstore"
	internalevent "github.com/clipstream/authkit/internal/event"
	"github.com/clipstream/authkit/internal/httpapi"
)

// Builder assembles a [Client].
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store      credstore.Store
	httpClient *http.Client
	auditSink  AuditSink
	logger     zerolog.Logger
	hasLogger  bool

	built bool
}

// New creates a Builder seeded with the library defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend base URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStore sets the credential store. Defaults to an in-memory store, which
// does not survive restarts.
func (b *Builder) WithStore(store credstore.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient sets the underlying HTTP client for all backend calls.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithAuditSink sets the destination for audit events. Audit emission also
// requires Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to a disabled logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the gateway latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Client. A Builder can
// build at most once.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = credstore.NewMemory()
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	logger := b.logger
	if !b.hasLogger {
		logger = zerolog.Nop()
	}

	var limiter *rate.Limiter
	if cfg.Gateway.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Gateway.RateLimitPerSecond), cfg.Gateway.RateLimitBurst)
	}

	c := &Client{
		config:  cfg,
		store:   store,
		api:     httpapi.New(cfg.API.BaseURL, httpClient, cfg.API.UserAgent),
		logger:  logger,
		limiter: limiter,
		audit: internalevent.NewDispatcher(internalevent.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}
	c.session = Session{Status: StatusUnauthenticated}

	b.built = true

	return c, nil
}
