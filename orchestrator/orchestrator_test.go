package orchestrator

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/storage"
	"github.com/kbukum/podscribe/templating"
	"github.com/kbukum/podscribe/transcription"
)

const mib = 1024 * 1024

type scriptedBackend struct {
	kind      transcription.Kind
	available bool
	unit      func(ctx context.Context, u audio.Unit) (string, error)
	whole     func(ctx context.Context, b *audio.Buffer) (string, error)
}

func (b *scriptedBackend) Name() string                     { return string(b.kind) }
func (b *scriptedBackend) IsAvailable(context.Context) bool { return b.available }
func (b *scriptedBackend) Kind() transcription.Kind         { return b.kind }
func (b *scriptedBackend) TranscribeUnit(ctx context.Context, u audio.Unit) (string, error) {
	return b.unit(ctx, u)
}
func (b *scriptedBackend) TranscribeWhole(ctx context.Context, buf *audio.Buffer) (string, error) {
	return b.whole(ctx, buf)
}

type memStorage struct {
	mu      sync.Mutex
	files   map[string]string
	uploads int
	// beforeUpload runs ahead of each upload, e.g. to create a competing
	// document.
	beforeUpload func(m *memStorage, path string)
}

func newMemStorage() *memStorage { return &memStorage{files: map[string]string{}} }

func (m *memStorage) Upload(_ context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.beforeUpload != nil {
		m.beforeUpload(m, path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if _, ok := m.files[path]; ok {
		return storage.ErrExists
	}
	m.files[path] = string(data)
	return nil
}

func (m *memStorage) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *memStorage) get(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.files[path]
	return v, ok
}

type captureReporter struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureReporter) Report(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureReporter) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *captureReporter) messages(kind EventKind) []string {
	var out []string
	for _, ev := range c.snapshot() {
		if ev.Kind == kind && !ev.Tick {
			out = append(out, ev.Message)
		}
	}
	return out
}

type recorderFunc func(ctx context.Context, rec Record) error

func (f recorderFunc) Record(ctx context.Context, rec Record) error { return f(ctx, rec) }

var testEpisode = episode.Episode{Title: "Ep 1", Podcast: "My Show"}

func testConfig(kind transcription.Kind) Config {
	cfg := DefaultConfig()
	cfg.Backend = kind
	cfg.Retry.BackoffBase = time.Millisecond
	cfg.DismissDelay = 10 * time.Millisecond
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg Config, store storage.Storage, rep Reporter, backends ...transcription.Backend) *Orchestrator {
	t.Helper()
	o, err := New(cfg, Options{
		Selector: transcription.NewSelector(backends...),
		Storage:  store,
		Reporter: rep,
		Logger:   logger.Nop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = o.Close(context.Background()) })
	return o
}

func bufferOf(size int) audio.Source {
	return audio.Static(audio.NewBuffer(make([]byte, size), "mp3"))
}

func TestRun_ChunkedPartialFailure(t *testing.T) {
	var attempts [3]atomic.Int32
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(_ context.Context, u audio.Unit) (string, error) {
			n := attempts[u.Index].Add(1)
			switch u.Index {
			case 0:
				return "hello", nil
			case 1:
				if n < 3 {
					return "", fmt.Errorf("transient %d", n)
				}
				return "world", nil
			default:
				return "", stderrors.New("permanent")
			}
		},
	}

	store := newMemStorage()
	rep := &captureReporter{}
	cfg := testConfig(transcription.KindRemoteAPI)
	cfg.MaxChunkBytes = 20 * mib
	o := newTestOrchestrator(t, cfg, store, rep, remote)

	res, err := o.Run(context.Background(), testEpisode, bufferOf(45*mib))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Transcript != "hello world [Error transcribing chunk 2]" {
		t.Errorf("unexpected transcript %q", res.Transcript)
	}
	if len(res.Chunks) != 3 {
		t.Fatalf("expected 3 chunk results, got %d", len(res.Chunks))
	}
	if res.FailedChunks != 1 {
		t.Errorf("expected 1 failed chunk, got %d", res.FailedChunks)
	}
	if res.Chunks[1].Attempts != 3 || res.Chunks[2].Attempts != 3 {
		t.Errorf("expected 3 attempts for chunks 1 and 2, got %d and %d", res.Chunks[1].Attempts, res.Chunks[2].Attempts)
	}
	if !errors.HasCode(res.Chunks[2].Err, errors.ErrCodeChunkFailed) {
		t.Errorf("expected CHUNK_TRANSCRIPTION_FAILED on chunk 2, got %v", res.Chunks[2].Err)
	}
	if res.Path != "transcripts/My Show/Ep 1.md" {
		t.Errorf("unexpected path %q", res.Path)
	}
	doc, ok := store.get(res.Path)
	if !ok {
		t.Fatal("expected document to be written")
	}
	if !strings.Contains(doc, "hello world [Error transcribing chunk 2]") {
		t.Errorf("document missing transcript: %q", doc)
	}

	progress := rep.messages(EventProgress)
	last := progress[len(progress)-1]
	if last != "Transcription completed and saved." {
		t.Errorf("expected completion message last, got %q", last)
	}
	found := false
	for _, m := range progress {
		if m == "Transcribing with remote API... 3/3 chunks completed (100.0%)" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected final chunk progress message, got %v", progress)
	}
}

func TestRun_OrderPreservedUnderReversedLatency(t *testing.T) {
	const n = 5
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(_ context.Context, u audio.Unit) (string, error) {
			time.Sleep(time.Duration(n-u.Index) * 15 * time.Millisecond)
			return fmt.Sprintf("c%d", u.Index), nil
		},
	}
	cfg := testConfig(transcription.KindRemoteAPI)
	cfg.MaxChunkBytes = 10
	cfg.MaxConcurrentChunks = 0
	o := newTestOrchestrator(t, cfg, newMemStorage(), &captureReporter{}, remote)

	res, err := o.Run(context.Background(), testEpisode, bufferOf(n*10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Transcript != "c0 c1 c2 c3 c4" {
		t.Errorf("expected ordered transcript, got %q", res.Transcript)
	}
}

func TestRun_ConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(_ context.Context, u audio.Unit) (string, error) {
			cur := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return "x", nil
		},
	}
	cfg := testConfig(transcription.KindRemoteAPI)
	cfg.MaxChunkBytes = 1
	cfg.MaxConcurrentChunks = 2
	o := newTestOrchestrator(t, cfg, newMemStorage(), &captureReporter{}, remote)

	res, err := o.Run(context.Background(), testEpisode, bufferOf(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 8 {
		t.Errorf("expected 8 chunks, got %d", len(res.Chunks))
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 chunks in flight, saw %d", peak.Load())
	}
}

func TestStart_AlreadyInProgress(t *testing.T) {
	release := make(chan struct{})
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(_ context.Context, _ audio.Unit) (string, error) {
			<-release
			return "done", nil
		},
	}
	o := newTestOrchestrator(t, testConfig(transcription.KindRemoteAPI), newMemStorage(), &captureReporter{}, remote)

	run, err := o.Start(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if !o.Busy() {
		t.Error("expected orchestrator to be busy")
	}

	var fetched atomic.Bool
	src := audio.SourceFunc(func(context.Context) (*audio.Buffer, error) {
		fetched.Store(true)
		return audio.NewBuffer([]byte("x"), "mp3"), nil
	})
	other := episode.Episode{Title: "Other", Podcast: "My Show"}
	if _, err := o.Start(context.Background(), other, src); !errors.HasCode(err, errors.ErrCodeAlreadyInProgress) {
		t.Fatalf("expected ALREADY_IN_PROGRESS, got %v", err)
	}
	if fetched.Load() {
		t.Error("rejected run must not fetch audio")
	}
	if st := o.State(); st.RunID != run.ID {
		t.Errorf("rejected run must not replace state, got run %q", st.RunID)
	}

	close(release)
	if _, err := run.Wait(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if o.Busy() {
		t.Error("expected guard released after run")
	}
	if _, err := o.Run(context.Background(), other, src); err != nil {
		t.Errorf("expected a new run to be admitted, got %v", err)
	}
}

func TestStart_AlreadyTranscribed(t *testing.T) {
	store := newMemStorage()
	store.files["transcripts/My Show/Ep 1.md"] = "existing"
	rep := &captureReporter{}

	var called atomic.Bool
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(context.Context, audio.Unit) (string, error) {
			called.Store(true)
			return "", nil
		},
	}
	o := newTestOrchestrator(t, testConfig(transcription.KindRemoteAPI), store, rep, remote)

	for i := 0; i < 2; i++ {
		_, err := o.Start(context.Background(), testEpisode, bufferOf(10))
		if !errors.HasCode(err, errors.ErrCodeAlreadyTranscribed) {
			t.Fatalf("call %d: expected ALREADY_TRANSCRIBED, got %v", i+1, err)
		}
	}
	if store.uploads != 0 {
		t.Errorf("expected no writes, got %d", store.uploads)
	}
	if called.Load() {
		t.Error("backend must not be called")
	}
	if doc, _ := store.get("transcripts/My Show/Ep 1.md"); doc != "existing" {
		t.Errorf("existing document was modified: %q", doc)
	}
	if o.Busy() {
		t.Error("expected guard released")
	}
	notices := rep.messages(EventNotice)
	want := "You've already transcribed this episode - found transcripts/My Show/Ep 1.md."
	if len(notices) != 2 || notices[0] != want || notices[1] != want {
		t.Errorf("unexpected notices %v", notices)
	}
}

func TestRun_DocumentCreatedDuringRunIsKept(t *testing.T) {
	store := newMemStorage()
	store.beforeUpload = func(m *memStorage, path string) {
		m.mu.Lock()
		m.files[path] = "written elsewhere"
		m.mu.Unlock()
	}
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(context.Context, audio.Unit) (string, error) {
			return "hello", nil
		},
	}
	o := newTestOrchestrator(t, testConfig(transcription.KindRemoteAPI), store, &captureReporter{}, remote)

	_, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if !errors.HasCode(err, errors.ErrCodeTranscriptionFailed) {
		t.Fatalf("expected TRANSCRIPTION_FAILED, got %v", err)
	}
	if !stderrors.Is(err, storage.ErrExists) {
		t.Errorf("expected ErrExists cause, got %v", err)
	}
	if doc, _ := store.get("transcripts/My Show/Ep 1.md"); doc != "written elsewhere" {
		t.Errorf("existing document was replaced: %q", doc)
	}
	if o.Busy() {
		t.Error("expected guard released")
	}
}

type insightFunc func(ctx context.Context, transcript string) string

func (f insightFunc) Insights(ctx context.Context, transcript string) string {
	return f(ctx, transcript)
}

func TestRun_Insights(t *testing.T) {
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(context.Context, audio.Unit) (string, error) {
			return "Hello there. Bye", nil
		},
	}
	tests := []struct {
		name      string
		template  string
		answer    string
		wantCalls int
		wantDoc   string
	}{
		{"tag used", "{{transcript}}\n---\n{{insights}}", "- Key point", 1, "Hello there.\n\nBye\n---\n- Key point"},
		{"failure rendered", "{{insights}}", "Error generating insights: connection refused", 1, "Error generating insights: connection refused"},
		{"tag unused", "{{transcript}}", "unused", 0, "Hello there.\n\nBye"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			var seen string
			store := newMemStorage()
			o, err := New(testConfig(transcription.KindRemoteAPI), Options{
				Selector: transcription.NewSelector(remote),
				Storage:  store,
				Renderer: templating.NewRenderer(templating.Config{Template: tc.template}),
				Reporter: &captureReporter{},
				Insights: insightFunc(func(_ context.Context, transcript string) string {
					calls.Add(1)
					seen = transcript
					return tc.answer
				}),
				Logger: logger.Nop(),
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer o.Close(context.Background())

			res, err := o.Run(context.Background(), testEpisode, bufferOf(10))
			if err != nil {
				t.Fatalf("expected the run to succeed, got %v", err)
			}
			if int(calls.Load()) != tc.wantCalls {
				t.Errorf("expected %d insight calls, got %d", tc.wantCalls, calls.Load())
			}
			if tc.wantCalls > 0 && (seen != "Hello there. Bye" || res.Insights != tc.answer) {
				t.Errorf("expected raw transcript in and answer out, got %q / %q", seen, res.Insights)
			}
			if doc, _ := store.get(res.Path); doc != tc.wantDoc {
				t.Errorf("expected document %q, got %q", tc.wantDoc, doc)
			}
		})
	}
}

func TestRun_SelfHostedFallsBackToRemote(t *testing.T) {
	selfHosted := &scriptedBackend{kind: transcription.KindSelfHosted, available: false}
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(context.Context, audio.Unit) (string, error) {
			return "Remote text. More text", nil
		},
	}
	rep := &captureReporter{}
	o := newTestOrchestrator(t, testConfig(transcription.KindSelfHosted), newMemStorage(), rep, selfHosted, remote)

	res, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Backend != string(transcription.KindRemoteAPI) || !res.FellBack {
		t.Errorf("expected fallback to remote_api, got %s fellBack=%v", res.Backend, res.FellBack)
	}
	if res.Formatted != "Remote text.\n\nMore text" {
		t.Errorf("expected paragraph post-processing, got %q", res.Formatted)
	}
	found := false
	for _, m := range rep.messages(EventProgress) {
		if m == "Self-hosted server not configured. Falling back to remote API..." {
			found = true
		}
	}
	if !found {
		t.Error("expected fallback notice")
	}
}

func TestRun_ConfigurationError(t *testing.T) {
	selfHosted := &scriptedBackend{kind: transcription.KindSelfHosted, available: false}
	remote := &scriptedBackend{kind: transcription.KindRemoteAPI, available: false}
	rep := &captureReporter{}
	o := newTestOrchestrator(t, testConfig(transcription.KindSelfHosted), newMemStorage(), rep, selfHosted, remote)

	_, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
	st := o.State()
	if st.Phase != PhaseIdle || st.Last == nil || st.Last.Phase != PhaseErrored {
		t.Errorf("expected idle with errored last run, got %+v", st)
	}
	errs := rep.messages(EventError)
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "Transcription failed: ") {
		t.Errorf("unexpected error events %v", errs)
	}
}

func TestRun_WholeFailureWritesNothing(t *testing.T) {
	selfHosted := &scriptedBackend{
		kind:      transcription.KindSelfHosted,
		available: true,
		whole: func(context.Context, *audio.Buffer) (string, error) {
			return "", stderrors.New("server returned status 500")
		},
	}
	store := newMemStorage()
	rep := &captureReporter{}
	o := newTestOrchestrator(t, testConfig(transcription.KindSelfHosted), store, rep, selfHosted)

	_, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if !errors.HasCode(err, errors.ErrCodeTranscriptionFailed) {
		t.Fatalf("expected TRANSCRIPTION_FAILED, got %v", err)
	}
	if len(store.files) != 0 {
		t.Errorf("expected no document, got %v", store.files)
	}
	errs := rep.messages(EventError)
	if len(errs) != 1 || errs[0] != "Transcription failed: Transcription with self-hosted server failed." {
		t.Errorf("unexpected error events %v", errs)
	}
}

func TestRun_ModelLoadFailedIsSurfaced(t *testing.T) {
	local := &scriptedBackend{
		kind:      transcription.KindLocalModel,
		available: true,
		whole: func(context.Context, *audio.Buffer) (string, error) {
			return "", errors.ModelLoadFailed("tiny", stderrors.New("missing file"))
		},
	}
	o := newTestOrchestrator(t, testConfig(transcription.KindLocalModel), newMemStorage(), &captureReporter{}, local)

	_, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeModelLoadFailed {
		t.Errorf("expected MODEL_LOAD_FAILED, got %v", err)
	}
	if o.Busy() {
		t.Error("expected guard released")
	}
}

func TestRun_CancelSettlesAndReleases(t *testing.T) {
	started := make(chan struct{}, 4)
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(ctx context.Context, _ audio.Unit) (string, error) {
			started <- struct{}{}
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	cfg := testConfig(transcription.KindRemoteAPI)
	cfg.MaxChunkBytes = 5
	cfg.MaxConcurrentChunks = 1
	store := newMemStorage()
	o := newTestOrchestrator(t, cfg, store, &captureReporter{}, remote)

	run, err := o.Start(context.Background(), testEpisode, bufferOf(20))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-started
	run.Cancel()

	_, err = run.Wait()
	if !errors.HasCode(err, errors.ErrCodeTranscriptionFailed) {
		t.Errorf("expected TRANSCRIPTION_FAILED, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if o.Busy() {
		t.Error("expected guard released after cancel")
	}
	if len(store.files) != 0 {
		t.Error("cancelled run must not write a document")
	}
}

func TestCancelCurrent(t *testing.T) {
	started := make(chan struct{}, 1)
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(ctx context.Context, _ audio.Unit) (string, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	o := newTestOrchestrator(t, testConfig(transcription.KindRemoteAPI), newMemStorage(), &captureReporter{}, remote)

	if _, ok := o.CancelCurrent(); ok {
		t.Fatal("expected nothing to cancel while idle")
	}

	run, err := o.Start(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-started

	id, ok := o.CancelCurrent()
	if !ok || id != run.ID {
		t.Fatalf("expected to cancel %s, got %q (ok=%v)", run.ID, id, ok)
	}
	if _, err := run.Wait(); err == nil {
		t.Error("expected cancelled run to fail")
	}
	if _, ok := o.CancelCurrent(); ok {
		t.Error("expected nothing to cancel after settle")
	}
}

func TestRun_ProgressPhasesAndDismiss(t *testing.T) {
	selfHosted := &scriptedBackend{
		kind:      transcription.KindSelfHosted,
		available: true,
		whole: func(context.Context, *audio.Buffer) (string, error) {
			return "Hi.", nil
		},
	}
	rep := &captureReporter{}
	o := newTestOrchestrator(t, testConfig(transcription.KindSelfHosted), newMemStorage(), rep, selfHosted)

	res, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var phases []Phase
	for _, ev := range rep.snapshot() {
		if ev.Kind != EventProgress || ev.Tick {
			continue
		}
		if ev.RunID != res.RunID || ev.Heading != NoticeHeading {
			t.Errorf("unexpected event identity %+v", ev)
		}
		if len(phases) == 0 || phases[len(phases)-1] != ev.Phase {
			phases = append(phases, ev.Phase)
		}
	}
	want := []Phase{PhasePreparing, PhaseDownloading, PhaseTranscribing, PhaseSaving, PhaseDone}
	if fmt.Sprint(phases) != fmt.Sprint(want) {
		t.Errorf("expected phases %v, got %v", want, phases)
	}

	deadline := time.After(time.Second)
	for {
		dismissed := false
		for _, ev := range rep.snapshot() {
			if ev.Kind == EventDismiss && ev.RunID == res.RunID {
				dismissed = true
			}
		}
		if dismissed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected dismiss event")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit: func(context.Context, audio.Unit) (string, error) {
			return "", stderrors.New("always")
		},
	}
	var got []Record
	o, err := New(testConfig(transcription.KindRemoteAPI), Options{
		Selector: transcription.NewSelector(remote),
		Storage:  newMemStorage(),
		Reporter: &captureReporter{},
		Recorder: recorderFunc(func(_ context.Context, rec Record) error {
			got = append(got, rec)
			return nil
		}),
		Logger: logger.Nop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got[0]
	if rec.RunID != res.RunID || rec.Outcome != OutcomeDone || rec.FailedChunks != 1 || rec.Chunks != 1 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Fingerprint == "" || rec.Fingerprint != res.Fingerprint {
		t.Errorf("expected fingerprint recorded, got %q", rec.Fingerprint)
	}
}

func TestStart_ReportsTemplateWarnings(t *testing.T) {
	remote := &scriptedBackend{
		kind:      transcription.KindRemoteAPI,
		available: true,
		unit:      func(context.Context, audio.Unit) (string, error) { return "x", nil },
	}
	rep := &captureReporter{}
	o, err := New(testConfig(transcription.KindRemoteAPI), Options{
		Selector: transcription.NewSelector(remote),
		Storage:  newMemStorage(),
		Renderer: templating.NewRenderer(templating.Config{Path: "{{podcst}}/{{title}}.md"}),
		Reporter: rep,
		Logger:   logger.Nop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := o.Run(context.Background(), testEpisode, bufferOf(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != "{{podcst}}/Ep 1.md" {
		t.Errorf("expected unknown tag left verbatim, got %q", res.Path)
	}
	notices := rep.messages(EventNotice)
	if len(notices) == 0 || !strings.Contains(notices[0], "Did you mean podcast?") {
		t.Errorf("expected suggestion notice, got %v", notices)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(DefaultConfig(), Options{Storage: newMemStorage()}); err == nil {
		t.Error("expected error without selector")
	}
	if _, err := New(DefaultConfig(), Options{Selector: transcription.NewSelector()}); err == nil {
		t.Error("expected error without storage")
	}
}

func TestBroadcastReporter(t *testing.T) {
	var buf bytes.Buffer
	var gotType string
	r := BroadcastReporter{Broadcaster: broadcasterFunc(func(eventType string, data []byte) {
		gotType = eventType
		buf.Write(data)
	})}
	r.Report(Event{RunID: "r1", Kind: EventNotice, Message: "hi"})
	if gotType != "notice" {
		t.Errorf("expected notice event type, got %q", gotType)
	}
	if !strings.Contains(buf.String(), `"message":"hi"`) {
		t.Errorf("unexpected payload %s", buf.String())
	}
}

type broadcasterFunc func(eventType string, data []byte)

func (f broadcasterFunc) Broadcast(eventType string, data []byte) { f(eventType, data) }
