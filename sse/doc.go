// Package sse streams transcription progress to HTTP clients as
// Server-Sent Events.
//
// A Hub owns the connected clients; producers publish through the
// Broadcaster interface and ServeSSE writes frames of the form
//
//	event: progress
//	data: {"phase":"transcribing",...}
//
// The hub is registered with the component registry so open streams end
// when the server shuts down.
package sse
