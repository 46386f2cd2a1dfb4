package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/observability"
	"github.com/kbukum/podscribe/storage"
	"github.com/kbukum/podscribe/templating"
	"github.com/kbukum/podscribe/transcription"
)

// NoticeHeading prefixes every progress message.
const NoticeHeading = "Transcription"

// Config controls how runs are executed.
type Config struct {
	// Backend is the requested transcription backend.
	Backend transcription.Kind
	// MaxChunkBytes bounds each uploaded unit on the chunked path.
	MaxChunkBytes int
	// MaxConcurrentChunks caps in-flight chunk uploads. 0 means unbounded.
	MaxConcurrentChunks int
	Retry               RetryPolicy
	// DismissDelay is how long the final message stays up before a
	// dismiss event is sent.
	DismissDelay time.Duration
	// NoticeInterval is the period of elapsed-time re-emission.
	NoticeInterval time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Backend:             transcription.KindRemoteAPI,
		MaxChunkBytes:       audio.DefaultMaxChunkBytes,
		MaxConcurrentChunks: 4,
		Retry:               DefaultRetryPolicy(),
		DismissDelay:        5 * time.Second,
		NoticeInterval:      time.Second,
	}
}

// ApplyDefaults fills fields whose zero value is not meaningful.
// MaxConcurrentChunks is left alone since 0 selects unbounded fan-out.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = transcription.KindRemoteAPI
	}
	if c.MaxChunkBytes <= 0 {
		c.MaxChunkBytes = audio.DefaultMaxChunkBytes
	}
	c.Retry.applyDefaults()
	if c.DismissDelay <= 0 {
		c.DismissDelay = 5 * time.Second
	}
	if c.NoticeInterval <= 0 {
		c.NoticeInterval = time.Second
	}
}

// Options carries the collaborators of an Orchestrator.
type Options struct {
	Selector *transcription.Selector
	Storage  storage.Storage
	Renderer *templating.Renderer
	Reporter Reporter
	Recorder Recorder
	Insights Insighter
	Metrics  *observability.Metrics
	Logger   *logger.Logger
}

// Insighter summarises a finished transcript for the {{insights}} tag.
// Failures are reported in the returned text and never fail a run.
type Insighter interface {
	Insights(ctx context.Context, transcript string) string
}

// Result describes a completed run.
type Result struct {
	RunID        string          `json:"run_id"`
	Episode      episode.Episode `json:"episode"`
	Backend      string          `json:"backend"`
	FellBack     bool            `json:"fell_back,omitempty"`
	Transcript   string          `json:"transcript"`
	Formatted    string          `json:"-"`
	Path         string          `json:"path"`
	Chunks       []ChunkResult   `json:"chunks"`
	FailedChunks int             `json:"failed_chunks"`
	Insights     string          `json:"insights,omitempty"`
	Fingerprint  string          `json:"fingerprint,omitempty"`
	Elapsed      time.Duration   `json:"elapsed"`
}

// Run is a handle on a started transcription.
type Run struct {
	ID      string
	Path    string
	Episode episode.Episode

	source audio.Source
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
	err    error
}

// Wait blocks until the run settles.
func (r *Run) Wait() (*Result, error) {
	<-r.done
	return r.result, r.err
}

// Done is closed when the run settles.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel asks the run to stop. Unfinished chunks settle as placeholders and
// the run fails with TRANSCRIPTION_FAILED.
func (r *Run) Cancel() { r.cancel() }

// Orchestrator runs at most one transcription at a time.
type Orchestrator struct {
	cfg      Config
	selector *transcription.Selector
	store    storage.Storage
	renderer *templating.Renderer
	reporter Reporter
	recorder Recorder
	insights Insighter
	metrics  *observability.Metrics
	log      *logger.Logger

	running atomic.Bool

	mu      sync.RWMutex
	state   State
	current *Run

	dismissMu sync.Mutex
	dismiss   *time.Timer
}

// New creates an Orchestrator. Selector and Storage are required.
func New(cfg Config, opts Options) (*Orchestrator, error) {
	if opts.Selector == nil {
		return nil, fmt.Errorf("orchestrator: selector is required")
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("orchestrator: storage is required")
	}
	cfg.ApplyDefaults()

	o := &Orchestrator{
		cfg:      cfg,
		selector: opts.Selector,
		store:    opts.Storage,
		renderer: opts.Renderer,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		insights: opts.Insights,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		state:    State{Phase: PhaseIdle},
	}
	if o.log == nil {
		o.log = logger.Get("orchestrator")
	}
	if o.renderer == nil {
		o.renderer = templating.NewRenderer(templating.Config{})
	}
	if o.reporter == nil {
		o.reporter = LogReporter{Log: o.log}
	}
	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Busy reports whether a run is in progress.
func (o *Orchestrator) Busy() bool { return o.running.Load() }

// State returns a snapshot of the current run.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.state
	if s.StartedAt != nil && !s.Phase.Terminal() && s.Phase != PhaseIdle {
		s.Elapsed = FormatElapsed(time.Since(*s.StartedAt))
	}
	return s
}

// Run starts a transcription and waits for it to settle.
func (o *Orchestrator) Run(ctx context.Context, ep episode.Episode, src audio.Source) (*Result, error) {
	run, err := o.Start(ctx, ep, src)
	if err != nil {
		return nil, err
	}
	return run.Wait()
}

// Start performs the admission checks synchronously and launches the
// pipeline. ctx governs the whole run, not just admission.
//
// It returns ALREADY_IN_PROGRESS without side effects when a run is active,
// and ALREADY_TRANSCRIBED when a document exists at the rendered path.
func (o *Orchestrator) Start(ctx context.Context, ep episode.Episode, src audio.Source) (*Run, error) {
	if src == nil {
		return nil, errors.InvalidInput("source", "audio source is required")
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, errors.AlreadyInProgress()
	}

	path, warnings := o.renderer.Path(ep)
	o.reportWarnings("", warnings)

	exists, err := o.store.Exists(ctx, path)
	if err != nil {
		o.running.Store(false)
		return nil, errors.TranscriptionFailed("Failed to check for an existing transcript.", err)
	}
	if exists {
		o.running.Store(false)
		appErr := errors.AlreadyTranscribed(path)
		o.reporter.Report(Event{Kind: EventNotice, Message: appErr.Message})
		return nil, appErr
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:      uuid.NewString(),
		Path:    path,
		Episode: ep,
		source:  src,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	now := time.Now()
	o.setState(State{
		RunID:     run.ID,
		Phase:     PhasePreparing,
		Title:     ep.Title,
		Podcast:   ep.Podcast,
		Path:      path,
		StartedAt: &now,
	})
	o.mu.Lock()
	o.current = run
	o.mu.Unlock()
	o.cancelDismiss()

	go o.execute(runCtx, run)
	return run, nil
}

// CancelCurrent cancels the active run, if any, and reports whether there
// was one.
func (o *Orchestrator) CancelCurrent() (string, bool) {
	o.mu.RLock()
	run := o.current
	o.mu.RUnlock()
	if run == nil {
		return "", false
	}
	run.Cancel()
	return run.ID, true
}

// Close stops any pending dismissal and releases backend resources.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.cancelDismiss()
	return o.selector.Close(ctx)
}

// runInfo collects what is known about a run as it progresses, so that
// failed runs can still be recorded.
type runInfo struct {
	backend     string
	fellBack    bool
	fingerprint string
	chunks      []ChunkResult
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	defer close(run.done)
	defer run.cancel()

	started := time.Now()
	notice := startTimerNotice(o.reporter, run.ID, NoticeHeading, o.cfg.NoticeInterval)
	o.advance(notice, PhasePreparing, "Preparing to transcribe...")

	info := &runInfo{}
	result, err := o.pipeline(ctx, run, notice, info)
	notice.Stop()
	elapsed := notice.Elapsed()

	if err != nil {
		msg := fmt.Sprintf("Transcription failed: %s", errorMessage(err))
		o.updateState(func(s *State) {
			s.Phase = PhaseErrored
			s.Message = msg
		})
		notice.Update(Event{Kind: EventError, Phase: PhaseErrored, Message: msg})
		o.log.Error("transcription failed", logger.MergeWithError(logger.Fields(
			"run_id", run.ID,
			"backend", info.backend,
		), err))
	} else {
		result.Elapsed = elapsed
		o.updateState(func(s *State) {
			s.Phase = PhaseDone
			s.Message = "Transcription completed and saved."
		})
		notice.Update(Event{Phase: PhaseDone, Message: "Transcription completed and saved."})
		o.log.Info("transcription completed", logger.Fields(
			"run_id", run.ID,
			"backend", result.Backend,
			"path", result.Path,
			"chunks", len(result.Chunks),
			"failed_chunks", result.FailedChunks,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
	}

	o.record(run, info, started, elapsed, err)
	o.scheduleDismiss(run.ID)
	o.release(elapsed)

	run.result, run.err = result, err
}

func (o *Orchestrator) pipeline(ctx context.Context, run *Run, notice *timerNotice, info *runInfo) (result *Result, err error) {
	sel, err := o.selector.Resolve(ctx, o.cfg.Backend)
	if err != nil {
		return nil, err
	}
	backend := sel.Backend
	kind := backend.Kind()
	info.backend = string(kind)
	info.fellBack = sel.FellBack()
	o.updateState(func(s *State) { s.Backend = string(kind) })

	ctx, rt := observability.StartRun(ctx, run.ID, string(kind), o.metrics)
	defer func() {
		outcome := "done"
		switch {
		case err != nil && ctx.Err() != nil:
			outcome = "cancelled"
		case err != nil:
			outcome = "failed"
		}
		rt.End(ctx, outcome, err)
	}()

	if n := sel.Notice(); n != "" {
		o.log.Warn(n, logger.Fields("run_id", run.ID, "requested", string(sel.Requested)))
		o.advance(notice, PhasePreparing, n)
	}

	o.advance(notice, PhaseDownloading, "Downloading episode...")
	buf, err := run.source.Fetch(ctx)
	if err != nil {
		return nil, errors.TranscriptionFailed("Failed to download or locate the episode.", err)
	}
	if buf == nil || buf.Len() == 0 {
		return nil, errors.TranscriptionFailed("The episode audio is empty.", nil)
	}
	o.advance(notice, PhaseDownloading, "Preparing audio for transcription...")
	if o.recorder != nil {
		info.fingerprint = audio.Fingerprint(buf)
	}

	o.advance(notice, PhaseTranscribing, fmt.Sprintf("Starting transcription with %s...", kind.DisplayName()))

	var chunks []ChunkResult
	if kind.Chunked() {
		chunks = o.transcribeChunks(ctx, rt, backend, buf, run.Episode.BaseName(), notice)
		info.chunks = chunks
		if ctx.Err() != nil {
			return nil, errors.TranscriptionFailed("Transcription was cancelled.", ctx.Err())
		}
	} else {
		text, err := o.transcribeWhole(ctx, backend, buf)
		if err != nil {
			return nil, err
		}
		chunks = []ChunkResult{{Index: 0, Text: text, Attempts: 1}}
		info.chunks = chunks
	}

	transcript := joinChunks(chunks)
	formatted := templating.Paragraphs(transcript)

	var insights string
	if o.insights != nil && o.renderer.Uses(templating.TagInsights) {
		o.advance(notice, PhaseTranscribing, "Generating insights...")
		insights = o.insights.Insights(ctx, transcript)
	}

	o.advance(notice, PhaseSaving, "Saving transcription...")
	doc, warnings := o.renderer.Document(run.Episode, formatted, insights)
	o.reportWarnings(run.ID, warnings)
	if err := o.store.Upload(ctx, run.Path, strings.NewReader(doc)); err != nil {
		if stderrors.Is(err, storage.ErrExists) {
			return nil, errors.TranscriptionFailed(fmt.Sprintf("%s was created while transcribing and was left untouched.", run.Path), err)
		}
		return nil, errors.TranscriptionFailed("Failed to save transcription.", err)
	}

	return &Result{
		RunID:        run.ID,
		Episode:      run.Episode,
		Backend:      string(kind),
		FellBack:     sel.FellBack(),
		Transcript:   transcript,
		Formatted:    formatted,
		Path:         run.Path,
		Chunks:       chunks,
		FailedChunks: countFailed(chunks),
		Insights:     insights,
		Fingerprint:  info.fingerprint,
	}, nil
}

func (o *Orchestrator) transcribeWhole(ctx context.Context, backend transcription.Backend, buf *audio.Buffer) (string, error) {
	wctx, span := observability.StartSpan(ctx, observability.SpanWhole)
	defer span.End()

	start := time.Now()
	text, err := backend.TranscribeWhole(wctx, buf)
	if err != nil {
		observability.SetSpanError(wctx, err)
		if errors.HasCode(err, errors.ErrCodeModelLoadFailed) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", errors.TranscriptionFailed("Transcription was cancelled.", ctx.Err())
		}
		return "", errors.TranscriptionFailed(
			fmt.Sprintf("Transcription with %s failed.", backend.Kind().DisplayName()), err)
	}
	o.log.Debug("whole-buffer transcription finished", logger.DurationFields("transcribe_whole", time.Since(start)))
	return text, nil
}

func (o *Orchestrator) advance(notice *timerNotice, phase Phase, message string) {
	o.updateState(func(s *State) {
		s.Phase = phase
		s.Message = message
	})
	notice.Update(Event{Phase: phase, Message: message})
}

func (o *Orchestrator) reportWarnings(runID string, warnings []templating.Warning) {
	for _, w := range warnings {
		o.log.Warn("template warning", logger.Fields("run_id", runID, "tag", w.Tag, "suggestion", w.Suggestion))
		o.reporter.Report(Event{RunID: runID, Kind: EventNotice, Message: w.Message()})
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

func (o *Orchestrator) updateState(fn func(s *State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.state)
}

// release returns the orchestrator to Idle, keeping the settled run as Last,
// and clears the in-progress flag.
func (o *Orchestrator) release(elapsed time.Duration) {
	o.mu.Lock()
	last := o.state
	last.Elapsed = FormatElapsed(elapsed)
	last.Last = nil
	o.state = State{Phase: PhaseIdle, Last: &last}
	o.current = nil
	o.mu.Unlock()
	o.running.Store(false)
}

func (o *Orchestrator) scheduleDismiss(runID string) {
	o.dismissMu.Lock()
	defer o.dismissMu.Unlock()
	if o.dismiss != nil {
		o.dismiss.Stop()
	}
	o.dismiss = time.AfterFunc(o.cfg.DismissDelay, func() {
		o.reporter.Report(Event{RunID: runID, Kind: EventDismiss})
	})
}

func (o *Orchestrator) cancelDismiss() {
	o.dismissMu.Lock()
	defer o.dismissMu.Unlock()
	if o.dismiss != nil {
		o.dismiss.Stop()
		o.dismiss = nil
	}
}

func (o *Orchestrator) record(run *Run, info *runInfo, started time.Time, elapsed time.Duration, runErr error) {
	if o.recorder == nil {
		return
	}
	rec := Record{
		RunID:        run.ID,
		Episode:      run.Episode,
		Path:         run.Path,
		Backend:      info.backend,
		FellBack:     info.fellBack,
		Fingerprint:  info.fingerprint,
		Chunks:       len(info.chunks),
		FailedChunks: countFailed(info.chunks),
		StartedAt:    started,
		Elapsed:      elapsed,
		Outcome:      OutcomeDone,
	}
	if runErr != nil {
		rec.Outcome = OutcomeFailed
		rec.Error = errorMessage(runErr)
	}
	// The run context may already be cancelled; history is written regardless.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.recorder.Record(ctx, rec); err != nil {
		o.log.Warn("failed to record run history", logger.ErrorFields("record_run", err))
	}
}

func joinChunks(chunks []ChunkResult) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

func countFailed(chunks []ChunkResult) int {
	n := 0
	for _, c := range chunks {
		if c.Failed() {
			n++
		}
	}
	return n
}

// errorMessage prefers the user-facing AppError message over the full
// error chain.
func errorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
