package authkit

import (
	"context"
	"fmt"

	"github.com/clipstream/authkit/internal/httpapi"
)

// Bootstrap restores the session from the credential store at startup.
//
// With no persisted credential the session lands in [StatusUnauthenticated]
// immediately. Otherwise the session enters [StatusVerifying] while the
// credential is confirmed against the backend: a confirmed identity yields
// [StatusAuthenticated], a rejected credential is discarded and yields
// [StatusUnauthenticated]. Bootstrap never renews: an expired access token is
// an expected rejection here, and the first protected call after startup
// drives any renewal through the coordinator instead.
//
// A transport failure leaves the session in [StatusVerifying] with the
// credential still held and persisted; Bootstrap can be called again.
func (c *Client) Bootstrap(ctx context.Context) (Session, error) {
	if c == nil {
		return Session{}, ErrClientNotReady
	}

	c.mu.Lock()

	cred, err := c.store.LoadCredential(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("credential store read failed, starting unauthenticated")
		cred = Credential{}
	}

	if !cred.Present() {
		c.generation++
		c.refreshOp = nil
		subs := c.applyLocked(Session{Status: StatusUnauthenticated})
		snap := c.session
		c.mu.Unlock()

		c.notify(subs, snap)
		c.metricInc(MetricBootstrapSkipped)
		c.emitAudit(ctx, auditEventBootstrapSkipped, true, "", StatusUnauthenticated, nil, nil)
		return snap, nil
	}

	identity, err := c.store.LoadIdentity(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("identity store read failed")
		identity = Identity{}
	}

	c.generation++
	c.refreshOp = nil
	gen := c.generation
	subs := c.applyLocked(Session{
		Status:     StatusVerifying,
		Identity:   identity,
		Credential: cred,
	})
	snap := c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	user, err := c.api.Me(ctx, cred.AccessToken)
	if err != nil {
		if _, ok := httpapi.AsStatus(err); ok {
			return c.rejectBootstrap(ctx, gen)
		}
		mapped := mapWireError(err)
		c.logger.Warn().Err(mapped).Msg("bootstrap verification unreachable")
		return c.Snapshot(), mapped
	}

	confirmed := Identity{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	}

	c.mu.Lock()
	if c.generation != gen {
		snap := c.session
		c.mu.Unlock()
		return snap, nil
	}

	if err := c.store.SaveIdentity(ctx, confirmed); err != nil {
		c.metricInc(MetricStoreWriteFailure)
		c.logger.Warn().Err(err).Msg("identity store write failed")
	}
	subs = c.applyLocked(Session{
		Status:     StatusAuthenticated,
		Identity:   confirmed,
		Credential: c.session.Credential,
	})
	snap = c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	c.metricInc(MetricBootstrapVerified)
	c.emitAudit(ctx, auditEventBootstrapVerified, true, confirmed.ID, StatusAuthenticated, nil, nil)
	c.logger.Info().Str("user_id", confirmed.ID).Msg("session restored")

	return snap, nil
}

// rejectBootstrap discards a persisted credential the backend refused. The
// generation check keeps a slow rejection from clobbering a session a
// concurrent login installed in the meantime.
func (c *Client) rejectBootstrap(ctx context.Context, gen uint64) (Session, error) {
	c.mu.Lock()
	if c.generation != gen {
		snap := c.session
		c.mu.Unlock()
		return snap, nil
	}
	subs := c.resetLocked(ctx, StatusUnauthenticated)
	snap := c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	c.metricInc(MetricBootstrapRejected)
	c.emitAudit(ctx, auditEventBootstrapRejected, false, "", StatusUnauthenticated, fmt.Errorf("%w: persisted credential rejected", ErrSessionExpired), nil)
	c.logger.Info().Msg("persisted credential rejected, starting unauthenticated")

	return snap, nil
}
