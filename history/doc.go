// Package history records settled transcription runs in SQLite so that the
// HTTP API can list recent work and repeated audio can be recognized by its
// fingerprint.
package history
