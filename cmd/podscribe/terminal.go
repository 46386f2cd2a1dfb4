package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kbukum/podscribe/orchestrator"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

func info(w io.Writer, msg string, a ...any) {
	fmt.Fprintf(w, colorBlue+"[info] "+colorReset+msg+"\n", a...)
}

func warn(w io.Writer, msg string, a ...any) {
	fmt.Fprintf(w, colorYellow+"[warn] "+colorReset+msg+"\n", a...)
}

func ok(w io.Writer, msg string, a ...any) {
	fmt.Fprintf(w, colorGreen+"[ok] "+colorReset+msg+"\n", a...)
}

func fail(w io.Writer, msg string, a ...any) {
	fmt.Fprintf(w, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

// terminalReporter renders progress on one status line that ticks rewrite
// in place. Notices and errors get their own lines.
type terminalReporter struct {
	mu      sync.Mutex
	w       io.Writer
	pending bool
}

func newTerminalReporter(w io.Writer) *terminalReporter {
	return &terminalReporter{w: w}
}

func (r *terminalReporter) Report(ev orchestrator.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case orchestrator.EventDismiss:
		return
	case orchestrator.EventNotice:
		r.breakLine()
		warn(r.w, "%s", ev.Message)
		return
	case orchestrator.EventError:
		r.breakLine()
		fail(r.w, "%s", ev.Message)
		return
	}

	line := strings.ReplaceAll(ev.Message, "\n", " ")
	if ev.Elapsed != "" {
		line = fmt.Sprintf("[%s] %s", ev.Elapsed, line)
	}
	fmt.Fprintf(r.w, "\r\033[K%s", line)
	r.pending = true
	if ev.Phase.Terminal() {
		r.breakLine()
	}
}

func (r *terminalReporter) breakLine() {
	if r.pending {
		fmt.Fprintln(r.w)
		r.pending = false
	}
}
