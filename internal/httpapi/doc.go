// Package httpapi is the wire-level client for the backend auth API.
//
// # Contract
//
// The backend exposes a fixed contract: POST /auth/login, POST /auth/register,
// GET /auth/me, POST /auth/refresh-token, plus arbitrary protected resource
// routes. This package owns request construction (JSON bodies, bearer header,
// per-request correlation IDs) and response parsing against explicit schemas.
// Field presence is validated at this boundary; a 200 with missing token
// fields is a malformed response, never a silently zero credential.
//
// # Error model
//
// HTTP error statuses surface as [*StatusError]. Transport failures (DNS,
// connect, TLS, context) surface as errors wrapping [ErrTransport]. Callers
// distinguish the two with errors.As / errors.Is; this package never maps
// either onto session semantics.
//
// # What this package must NOT do
//
//   - Import authkit or credstore (no upward imports).
//   - Hold tokens between calls or decide when to refresh.
//   - Retry anything.
package httpapi
