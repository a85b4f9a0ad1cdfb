// Package event provides asynchronous dispatch of session lifecycle events to
// a pluggable sink.
//
// # Design
//
// The [Dispatcher] decouples event producers (the client's auth flows) from
// sink latency: events are queued on a buffered channel and forwarded by a
// single goroutine. When DropIfFull is set the producer never blocks; dropped
// events are counted and observable. Close drains the queue before returning.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling package.
//   - Perform I/O itself; sinks own their output.
package event
