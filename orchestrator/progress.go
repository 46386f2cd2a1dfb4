package orchestrator

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/sse"
)

// EventKind classifies progress events. The values double as SSE event names.
type EventKind string

const (
	EventProgress EventKind = sse.EventTypeProgress
	EventNotice   EventKind = sse.EventTypeNotice
	EventDismiss  EventKind = sse.EventTypeDismiss
	EventError    EventKind = sse.EventTypeError
)

// Event is a status update emitted during a run.
type Event struct {
	RunID     string    `json:"run_id,omitempty"`
	Kind      EventKind `json:"kind"`
	Phase     Phase     `json:"phase,omitempty"`
	Heading   string    `json:"heading,omitempty"`
	Message   string    `json:"message"`
	Elapsed   string    `json:"elapsed,omitempty"`
	Completed int       `json:"completed,omitempty"`
	Total     int       `json:"total,omitempty"`
	// Tick marks a periodic re-emission carrying only a new elapsed time.
	Tick bool `json:"tick,omitempty"`
}

// Text renders the event the way it is shown to a user:
// "heading (HH:MM:SS):\n\nmessage".
func (e Event) Text() string {
	if e.Heading == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s):\n\n%s", e.Heading, e.Elapsed, e.Message)
}

// Reporter receives run status events. Implementations must not block for
// long; they are called from pipeline goroutines.
type Reporter interface {
	Report(ev Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ev Event)

// Report calls f(ev).
func (f ReporterFunc) Report(ev Event) { f(ev) }

type multiReporter []Reporter

func (m multiReporter) Report(ev Event) {
	for _, r := range m {
		r.Report(ev)
	}
}

// MultiReporter fans events out to every non-nil reporter.
func MultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// LogReporter writes events to a logger. Ticks are skipped.
type LogReporter struct {
	Log *logger.Logger
}

// Report logs ev.
func (r LogReporter) Report(ev Event) {
	if ev.Tick {
		return
	}
	fields := logger.Fields("run_id", ev.RunID, "phase", string(ev.Phase), "elapsed", ev.Elapsed)
	switch ev.Kind {
	case EventError:
		r.Log.Error(ev.Message, fields)
	case EventNotice:
		r.Log.Warn(ev.Message, fields)
	case EventDismiss:
		r.Log.Debug("progress dismissed", fields)
	default:
		r.Log.Info(ev.Message, fields)
	}
}

// BroadcastReporter publishes events as JSON to SSE clients.
type BroadcastReporter struct {
	Broadcaster sse.Broadcaster
}

// Report marshals ev and broadcasts it under its kind.
func (r BroadcastReporter) Report(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	r.Broadcaster.Broadcast(string(ev.Kind), data)
}

// timerNotice keeps the latest progress message and re-emits it at a fixed
// interval with a fresh elapsed time until stopped.
type timerNotice struct {
	reporter Reporter
	runID    string
	heading  string
	start    time.Time

	mu        sync.Mutex
	last      Event
	stopped   bool
	stoppedAt time.Time
	done      chan struct{}
	wg        sync.WaitGroup
}

func startTimerNotice(r Reporter, runID, heading string, interval time.Duration) *timerNotice {
	n := &timerNotice{
		reporter: r,
		runID:    runID,
		heading:  heading,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop(interval)
	return n
}

func (n *timerNotice) loop(interval time.Duration) {
	defer n.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			n.mu.Lock()
			if !n.stopped && n.last.Message != "" {
				ev := n.last
				ev.Tick = true
				ev.Elapsed = FormatElapsed(n.elapsedLocked())
				n.reporter.Report(ev)
			}
			n.mu.Unlock()
		}
	}
}

// Update replaces the current message and emits it immediately.
func (n *timerNotice) Update(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ev.Kind == "" {
		ev.Kind = EventProgress
	}
	ev.RunID = n.runID
	ev.Heading = n.heading
	ev.Elapsed = FormatElapsed(n.elapsedLocked())
	n.last = ev
	n.reporter.Report(ev)
}

// Stop freezes the elapsed time and ends periodic re-emission. It is safe
// to call more than once.
func (n *timerNotice) Stop() {
	n.mu.Lock()
	if !n.stopped {
		n.stopped = true
		n.stoppedAt = time.Now()
		close(n.done)
	}
	n.mu.Unlock()
	n.wg.Wait()
}

// Elapsed returns the time since start, frozen once stopped.
func (n *timerNotice) Elapsed() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.elapsedLocked()
}

func (n *timerNotice) elapsedLocked() time.Duration {
	if n.stopped {
		return n.stoppedAt.Sub(n.start)
	}
	return time.Since(n.start)
}
