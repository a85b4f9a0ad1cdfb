package authkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/clipstream/authkit/internal/httpapi"
)

// Request describes one backend call dispatched through the gateway. Body is
// JSON-encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any

	// Public skips bearer attachment and the renewal path entirely. Use it
	// for routes that do not require authentication.
	Public bool
}

// Response is the raw outcome of a gateway call. Any received HTTP status is
// a Response; errors are reserved for transport and session failures.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Do dispatches one backend call with the session's access token attached.
//
// On a 401 the gateway renews the credential (joining an in-flight renewal if
// one exists) and replays the request exactly once. A second 401 returns the
// response together with [ErrUnauthorized]. Transport failures surface as
// [ErrNetwork] and are never retried.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.metricInc(MetricGatewayRequest)

	start := time.Now()
	defer func() {
		c.metrics.Observe(MetricGatewayLatency, time.Since(start))
	}()

	call := httpapi.Call{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Header: req.Header,
		Body:   req.Body,
	}

	if req.Public {
		return c.dispatch(ctx, call, "")
	}

	token := c.currentAccessToken(ctx)

	resp, err := c.dispatch(ctx, call, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return resp, nil
	}

	// The backend rejected the credential mid-session. Renew once and replay;
	// concurrent rejections all funnel into the same renewal.
	cred, rerr := c.requestRefresh(ctx)
	if rerr != nil {
		return resp, c.mapGatewayRefreshError(ctx, rerr)
	}

	c.metricInc(MetricGatewayAuthRetry)
	c.emitAudit(ctx, auditEventGatewayAuthRetry, true, "", StatusAuthenticated, nil, func() map[string]string {
		return map[string]string{"method": req.Method, "path": req.Path}
	})

	retry, err := c.dispatch(ctx, call, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		c.metricInc(MetricGatewayAuthFailure)
		c.emitAudit(ctx, auditEventGatewayAuthFailure, false, "", c.Snapshot().Status, ErrUnauthorized, func() map[string]string {
			return map[string]string{"method": req.Method, "path": req.Path}
		})
		return retry, ErrUnauthorized
	}
	return retry, nil
}

// currentAccessToken returns the token to attach, renewing preemptively when
// configured and the held token is expired or about to expire.
func (c *Client) currentAccessToken(ctx context.Context) string {
	snap := c.Snapshot()
	if !snap.Authenticated() {
		return ""
	}

	token := snap.Credential.AccessToken
	if !c.config.Gateway.PreemptiveRefresh {
		return token
	}
	if !tokenExpiresWithin(token, c.config.Gateway.PreemptiveWindow) {
		return token
	}

	c.metricInc(MetricGatewayPreemptiveRefresh)
	cred, err := c.requestRefresh(ctx)
	if err != nil {
		// Dispatch with the stale token; the 401 path handles the rest.
		return token
	}
	return cred.AccessToken
}

func (c *Client) dispatch(ctx context.Context, call httpapi.Call, token string) (*Response, error) {
	resp, err := c.api.Do(ctx, call, token)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		RequestID:  resp.RequestID,
	}, nil
}

// mapGatewayRefreshError normalizes a failed renewal behind a 401. Context
// errors from the waiting caller pass through untouched; a dead credential
// becomes ErrSessionExpired.
func (c *Client) mapGatewayRefreshError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrNoRefreshToken):
		// A 401 with nothing to renew: the credential is dead.
		c.mu.Lock()
		userID := c.session.Identity.ID
		subs := c.resetLocked(ctx, StatusLoggedOut)
		snap := c.session
		c.mu.Unlock()

		c.notify(subs, snap)
		c.metricInc(MetricSessionReset)
		c.emitAudit(ctx, auditEventSessionReset, false, userID, StatusLoggedOut, ErrSessionExpired, nil)
		return ErrSessionExpired
	default:
		return err
	}
}
