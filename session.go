package authkit

import (
	"context"
)

// Snapshot returns the current session state. The returned value is a copy;
// later transitions do not mutate it.
func (c *Client) Snapshot() Session {
	if c == nil {
		return Session{Status: StatusUnauthenticated}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Subscribe registers fn to be called with a snapshot after every state
// transition. The returned cancel function removes the subscription.
//
// fn is called outside the client's internal lock, so it may call back into
// the Client, but it must return promptly: all subscribers for one transition
// are notified from the goroutine that caused it.
func (c *Client) Subscribe(fn func(Session)) (cancel func()) {
	if c == nil || fn == nil {
		return func() {}
	}

	c.mu.Lock()
	if c.subscribers == nil {
		c.subscribers = make(map[uint64]func(Session))
	}
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// applyLocked installs the next session snapshot and returns the subscriber
// list to notify after the lock is released.
func (c *Client) applyLocked(next Session) []func(Session) {
	c.session = next

	if len(c.subscribers) == 0 {
		return nil
	}
	subs := make([]func(Session), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (c *Client) notify(subs []func(Session), snap Session) {
	for _, fn := range subs {
		fn(snap)
	}
}

// persistLocked writes the credential and identity through the store. With
// Store.FailOpen the write failure is absorbed and the session lives in
// memory only.
func (c *Client) persistLocked(ctx context.Context, cred Credential, identity Identity) error {
	if err := c.store.SaveCredential(ctx, cred); err != nil {
		c.metricInc(MetricStoreWriteFailure)
		c.logger.Warn().Err(err).Msg("credential store write failed")
		if !c.config.Store.FailOpen {
			return err
		}
		return nil
	}
	if err := c.store.SaveIdentity(ctx, identity); err != nil {
		c.metricInc(MetricStoreWriteFailure)
		c.logger.Warn().Err(err).Msg("identity store write failed")
		if !c.config.Store.FailOpen {
			return err
		}
	}
	return nil
}

// clearStoreLocked removes persisted state. Failures are logged and absorbed:
// a logout or reset must always succeed locally.
func (c *Client) clearStoreLocked(ctx context.Context) {
	if err := c.store.ClearCredential(ctx); err != nil {
		c.metricInc(MetricStoreWriteFailure)
		c.logger.Warn().Err(err).Msg("credential store clear failed")
	}
	if err := c.store.ClearIdentity(ctx); err != nil {
		c.metricInc(MetricStoreWriteFailure)
		c.logger.Warn().Err(err).Msg("identity store clear failed")
	}
}

// resetLocked tears the session down to status, advances the generation so
// any in-flight renewal resolution is discarded, and clears persisted state.
func (c *Client) resetLocked(ctx context.Context, status SessionStatus) []func(Session) {
	c.generation++
	c.refreshOp = nil
	c.clearStoreLocked(ctx)
	return c.applyLocked(Session{Status: status})
}
