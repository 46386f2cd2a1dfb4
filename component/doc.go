// Package component defines the lifecycle interface for long-lived
// services (the HTTP server, the shared local model, the history store)
// and a Registry that starts them in registration order and stops them in
// reverse.
package component
