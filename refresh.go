package authkit

import (
	"context"
	"fmt"
	"time"
)

// refreshOp is one in-flight renewal. Exactly zero or one exists per Client;
// every caller that needs a renewal either starts the op or joins it, and all
// of them settle with the same outcome when done closes.
type refreshOp struct {
	done      chan struct{}
	cred      Credential
	err       error
	startedAt time.Time
}

// requestRefresh obtains a renewed credential, starting a renewal call only
// when none is in flight. Waiting is bounded by ctx; the renewal itself runs
// detached with its own timeout, so one caller giving up does not abort the
// renewal for the others.
func (c *Client) requestRefresh(ctx context.Context) (Credential, error) {
	if c == nil {
		return Credential{}, ErrClientNotReady
	}

	c.mu.Lock()

	if op := c.refreshOp; op != nil {
		c.mu.Unlock()
		c.metricInc(MetricRefreshJoined)
		return c.awaitRefresh(ctx, op)
	}

	token := c.session.Credential.RefreshToken
	if token == "" {
		c.mu.Unlock()
		c.metricInc(MetricRefreshNoToken)
		return Credential{}, ErrNoRefreshToken
	}

	op := &refreshOp{
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	c.refreshOp = op
	gen := c.generation
	subs := c.applyLocked(Session{
		Status:     StatusRefreshing,
		Identity:   c.session.Identity,
		Credential: c.session.Credential,
	})
	snap := c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	go c.runRefresh(op, gen, token)

	return c.awaitRefresh(ctx, op)
}

// awaitRefresh blocks until the op settles or ctx ends. An abandoned wait
// returns the ctx error; the op itself keeps running.
func (c *Client) awaitRefresh(ctx context.Context, op *refreshOp) (Credential, error) {
	select {
	case <-op.done:
		return op.cred, op.err
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	}
}

// runRefresh performs the actual renewal call. It owns the op's settlement:
// no other goroutine writes op.cred or op.err, and done is closed exactly
// once, after the session transition is complete.
func (c *Client) runRefresh(op *refreshOp, gen uint64, token string) {
	rctx, cancel := context.WithTimeout(context.Background(), c.config.API.RefreshTimeout)
	defer cancel()

	pair, err := c.api.RefreshToken(rctx, token)

	c.mu.Lock()

	// The session changed hands while the call was in flight (login, logout,
	// or reset). The resolution no longer describes the current session and
	// must not touch it.
	if c.generation != gen {
		if c.refreshOp == op {
			c.refreshOp = nil
		}
		c.mu.Unlock()

		c.metricInc(MetricRefreshStaleDiscarded)
		c.logger.Debug().Msg("discarded stale renewal resolution")

		op.err = ErrSessionExpired
		close(op.done)

		c.emitAudit(context.Background(), auditEventRefreshStaleDiscarded, false, "", c.Snapshot().Status, ErrSessionExpired, nil)
		return
	}

	if err != nil {
		c.settleRefreshFailure(op, err)
		return
	}

	cred := Credential{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if cred.RefreshToken == "" {
		// Backend did not rotate the refresh token; keep using the held one.
		cred.RefreshToken = token
	}

	if perr := c.persistLocked(context.Background(), cred, c.session.Identity); perr != nil {
		c.settleRefreshFailure(op, perr)
		return
	}

	c.refreshOp = nil
	subs := c.applyLocked(Session{
		Status:     StatusAuthenticated,
		Identity:   c.session.Identity,
		Credential: cred,
	})
	snap := c.session
	userID := snap.Identity.ID
	c.mu.Unlock()

	c.notify(subs, snap)

	c.metricInc(MetricRefreshSuccess)
	c.logger.Debug().Str("user_id", userID).Msg("access token renewed")

	op.cred = cred
	close(op.done)

	// Audit delivery can apply backpressure; waiters are already settled.
	c.emitAudit(context.Background(), auditEventRefreshSuccess, true, userID, StatusAuthenticated, nil, func() map[string]string {
		return map[string]string{"duration_ms": fmt.Sprintf("%d", time.Since(op.startedAt).Milliseconds())}
	})
}

// settleRefreshFailure tears the session down after a failed renewal. Every
// failure class (backend rejection, network error, timeout) is terminal: the
// credential behind the 401 is unusable, so the session resets to LoggedOut,
// persisted state is cleared, and every waiter sees ErrSessionExpired.
//
// Called with c.mu held; returns with it released.
func (c *Client) settleRefreshFailure(op *refreshOp, err error) {
	if c.refreshOp == op {
		c.refreshOp = nil
	}

	userID := c.session.Identity.ID
	subs := c.resetLocked(context.Background(), StatusLoggedOut)
	snap := c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	c.metricInc(MetricRefreshFailure)
	c.metricInc(MetricSessionReset)
	c.logger.Info().Str("user_id", userID).Err(err).Msg("renewal failed, session reset")

	op.err = ErrSessionExpired
	close(op.done)

	// Audit delivery can apply backpressure; waiters are already settled.
	c.emitAudit(context.Background(), auditEventRefreshFailure, false, userID, StatusLoggedOut, ErrSessionExpired, nil)
	c.emitAudit(context.Background(), auditEventSessionReset, false, userID, StatusLoggedOut, ErrSessionExpired, nil)
}
