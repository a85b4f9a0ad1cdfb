// Package authkit is the client-side session and token lifecycle manager for
// the clipstream video-sharing application: it owns the authenticated
// identity, persists and restores it across restarts, and keeps authorized
// calls flowing while short-lived access tokens expire underneath them.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// The central correctness property is single-flight renewal — N in-flight
// requests observing a stale credential produce exactly one backend refresh
// call, and every waiter settles with the same renewed credential or the same
// failure.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Client], [Builder], [Config], and
// value types (Session, Credential, Identity, AuditEvent). Wire encoding,
// event dispatch, and metric storage live under internal/ and are never
// exported. Credential persistence lives in the credstore sub-package so
// embedders can supply their own [credstore.Store].
//
// # What this package must NOT do
//
//   - Expose the backend HTTP client, store internals, or wire schemas in its
//     public API.
//   - Start more than one renewal call at a time, under any interleaving.
//   - Let the in-memory session and the persisted credential diverge across a
//     state transition.
package authkit
