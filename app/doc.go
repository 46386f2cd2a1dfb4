// Package app composes the podscribe configuration and wires the
// transcription backends, storage, run history, telemetry and, in serve
// mode, the HTTP API and event stream onto a bootstrap.App.
package app
