package authkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clipstream/authkit/internal/httpapi"
)

// Login exchanges email and password for an authenticated session. On any
// failure the current session is left untouched.
//
// Login may return an error when input validation, dependency calls, or the backend rejection path fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	if c == nil {
		return Session{}, ErrClientNotReady
	}

	pair, user, err := c.api.Login(ctx, email, password)
	if err != nil {
		mapped := mapLoginError(err)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", c.Snapshot().Status, mapped, nil)
		c.logger.Debug().Err(mapped).Msg("login rejected")
		return Session{}, mapped
	}

	snap, subs, err := c.installCredential(ctx, pair, user)
	if err != nil {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, user.ID, c.Snapshot().Status, err, nil)
		return Session{}, err
	}
	c.notify(subs, snap)

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, snap.Identity.ID, snap.Status, nil, nil)
	c.logger.Info().Str("user_id", snap.Identity.ID).Msg("login succeeded")

	return snap, nil
}

// Register creates an account and, on success, enters the authenticated state
// immediately with the returned token pair.
//
// Register may return an error when input validation, dependency calls, or the backend rejection path fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Register(ctx context.Context, username, email, password string) (Session, error) {
	if c == nil {
		return Session{}, ErrClientNotReady
	}

	pair, user, err := c.api.Register(ctx, username, email, password)
	if err != nil {
		mapped := mapRegisterError(err)
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, "", c.Snapshot().Status, mapped, nil)
		c.logger.Debug().Err(mapped).Msg("registration rejected")
		return Session{}, mapped
	}

	snap, subs, err := c.installCredential(ctx, pair, user)
	if err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, user.ID, c.Snapshot().Status, err, nil)
		return Session{}, err
	}
	c.notify(subs, snap)

	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegisterSuccess, true, snap.Identity.ID, snap.Status, nil, nil)
	c.logger.Info().Str("user_id", snap.Identity.ID).Msg("registration succeeded")

	return snap, nil
}

// Logout ends the session locally: persisted state is cleared, any in-flight
// renewal resolution is discarded, and the state machine lands in
// [StatusLoggedOut]. Logout never fails and never calls the backend.
func (c *Client) Logout(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	userID := c.session.Identity.ID
	subs := c.resetLocked(ctx, StatusLoggedOut)
	snap := c.session
	c.mu.Unlock()

	c.notify(subs, snap)

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, userID, StatusLoggedOut, nil, nil)
	c.logger.Info().Str("user_id", userID).Msg("logged out")
}

// installCredential persists and installs a fresh credential and identity as
// the authenticated session. The store write happens before the in-memory
// switch so a fail-closed store failure leaves the previous session intact.
func (c *Client) installCredential(ctx context.Context, pair httpapi.TokenPair, user httpapi.UserPayload) (Session, []func(Session), error) {
	cred := Credential{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	identity := Identity{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persistLocked(ctx, cred, identity); err != nil {
		return Session{}, nil, fmt.Errorf("persist credential: %w", err)
	}

	c.generation++
	c.refreshOp = nil
	subs := c.applyLocked(Session{
		Status:     StatusAuthenticated,
		Identity:   identity,
		Credential: cred,
	})
	return c.session, subs, nil
}

func mapLoginError(err error) error {
	if se, ok := httpapi.AsStatus(err); ok {
		switch {
		case se.Status == http.StatusUnauthorized, se.Status == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
		case se.Status == http.StatusBadRequest, se.Status == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", ErrValidation, se.Message)
		default:
			return fmt.Errorf("%w: %v", ErrNetwork, se)
		}
	}
	return mapWireError(err)
}

func mapRegisterError(err error) error {
	if se, ok := httpapi.AsStatus(err); ok {
		switch {
		case se.Status == http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, se.Message)
		case se.Status == http.StatusBadRequest, se.Status == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", ErrValidation, se.Message)
		default:
			return fmt.Errorf("%w: %v", ErrNetwork, se)
		}
	}
	return mapWireError(err)
}

// mapWireError normalizes non-status wire failures onto the public taxonomy.
func mapWireError(err error) error {
	switch {
	case errors.Is(err, httpapi.ErrMalformedResponse):
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, httpapi.ErrTransport):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	default:
		return err
	}
}
