package sse

// Event types written on the "event:" line of each frame.
const (
	// EventTypeConnected is sent when a client successfully connects.
	EventTypeConnected = "connected"

	// EventTypeProgress carries a pipeline phase or chunk progress update.
	EventTypeProgress = "progress"

	// EventTypeNotice carries an informational message such as a backend
	// fallback or a template warning.
	EventTypeNotice = "notice"

	// EventTypeDismiss tells clients to clear the progress display.
	EventTypeDismiss = "dismiss"

	// EventTypeError is sent when a run fails.
	EventTypeError = "error"
)

// Event is one frame delivered to clients.
type Event struct {
	Type string
	Data []byte
}
