// Package stroming defines an event-sourcing stream store: named,
// independently versioned, append-only streams of immutable messages.
//
// Every message gets a revision within its stream and a global position that
// is unique across the store and strictly increasing in write order. Writes
// carry an expected version and are rejected with WrongExpectedVersion when
// the stream has moved on, which lets callers detect concurrent modification
// and decide whether to retry.
//
// Implementations live under streamstore/. Decorators for logging and
// OpenTelemetry live in logging/ and otel/, and the HTTP and RESP transports
// under transport/.
package stroming

// InstrumentationVersion is reported with traces and metrics.
const InstrumentationVersion = "0.3.0"
