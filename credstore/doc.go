// Package credstore provides persistence for the client's token pair and last
// confirmed identity snapshot across process restarts.
//
// # Stores
//
// Three [Store] implementations are provided: [Memory] (process-local, used in
// tests and ephemeral clients), [File] (single JSON document with atomic
// replace-on-write), and [Redis] (namespaced keys via go-redis, for clients
// that share credentials across processes).
//
// # Absence semantics
//
// A credential is present only when both tokens are present. Stores enforce
// this on load: a half-written or corrupt persisted value decodes as absent,
// never as an error the caller has to handle. Load errors are reserved for
// backend unavailability (for example a Redis connection failure); callers
// treat those as absence too.
//
// # Architecture boundaries
//
// This package owns durable storage only. It performs no validation beyond the
// both-or-neither token rule and never calls the backend API.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling package (no upward imports).
//   - Interpret token contents.
//   - Decide session state.
package credstore
