// Package errors provides the structured error type used across podscribe.
// It carries a machine-readable code, an HTTP status mapping and retryable
// detection, and renders an RFC 7807 style body for the HTTP API.
package errors
