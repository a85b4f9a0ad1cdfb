// Package internal contains helper packages that are intentionally private
// to authkit.
//
// # Sub-packages
//
//   - event — async audit event dispatch (Dispatcher + Sink implementations)
//   - httpapi — the wire client for the backend auth API
//   - metrics — lock-free counters and latency histograms
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
package internal
