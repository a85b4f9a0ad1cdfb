package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects the
	// email/password pair. The session is never mutated on this path.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation is returned by Register when the backend rejects the
	// submitted fields.
	ErrValidation = errors.New("registration validation failed")
	// ErrConflict is returned by Register on a duplicate email or username.
	ErrConflict = errors.New("account already exists")
	// ErrNoRefreshToken is returned when a renewal is requested with nothing
	// to renew. No backend call is made.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrSessionExpired is the canonical "please log in again" signal: the
	// renewal path failed and the session has already been reset.
	ErrSessionExpired = errors.New("session expired")
	// ErrNetwork wraps transport-level failures on protected calls. The
	// gateway never retries these.
	ErrNetwork = errors.New("network failure")
	// ErrUnauthorized is returned when a protected call is rejected after the
	// single retry allowance is already consumed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when a backend response does not match
	// the documented contract.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrClientNotReady is returned when a method is called on a nil or
	// unbuilt Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
)
