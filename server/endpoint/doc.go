// Package endpoint provides the operational handlers mounted next to the
// API: /health, /alive and /version.
package endpoint
