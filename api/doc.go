// Package api exposes the transcription pipeline over HTTP: starting runs,
// reading the current state and run history, cancelling, and streaming
// progress as server-sent events.
package api
