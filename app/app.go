package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kbukum/podscribe/api"
	"github.com/kbukum/podscribe/auth"
	"github.com/kbukum/podscribe/bootstrap"
	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/database"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/history"
	"github.com/kbukum/podscribe/insights"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/observability"
	"github.com/kbukum/podscribe/orchestrator"
	"github.com/kbukum/podscribe/server"
	"github.com/kbukum/podscribe/server/endpoint"
	"github.com/kbukum/podscribe/server/middleware"
	"github.com/kbukum/podscribe/sse"
	"github.com/kbukum/podscribe/storage"
	"github.com/kbukum/podscribe/templating"
	"github.com/kbukum/podscribe/transcription"
	"github.com/kbukum/podscribe/transcription/localmodel"
	"github.com/kbukum/podscribe/transcription/openai"
	"github.com/kbukum/podscribe/transcription/whisperserver"
	"github.com/kbukum/podscribe/util"

	// storage providers register themselves
	_ "github.com/kbukum/podscribe/storage/local"
	_ "github.com/kbukum/podscribe/storage/s3"
)

// Mode selects which surfaces a Runtime wires.
type Mode int

const (
	// ModeTask runs one transcription and exits.
	ModeTask Mode = iota
	// ModeServe exposes the HTTP API and event stream.
	ModeServe
)

// Options customizes a Runtime.
type Options struct {
	Mode Mode
	// Reporter receives progress in addition to the log. The CLI passes a
	// terminal reporter; serve mode always adds the event stream.
	Reporter orchestrator.Reporter
	// Backends replaces the configured backends. Used by tests.
	Backends  []transcription.Backend
	Bootstrap []bootstrap.Option
}

// Runtime is a fully wired podscribe process. Orchestrator, History and
// Server are populated during the configure phase.
type Runtime struct {
	App          *bootstrap.App[*Config]
	Orchestrator *orchestrator.Orchestrator
	History      *history.Store
	Server       *server.Server
	Downloader   *episode.Downloader
	Metrics      *observability.Metrics

	selector *transcription.Selector
	storage  *storage.Component
	database *database.Component
	events   *sse.Component
	opts     Options
}

// New validates cfg, registers every component and schedules the
// remaining wiring for the configure phase. Nothing is started until
// App.Run or App.RunTask.
func New(cfg *Config, opts Options) (*Runtime, error) {
	a, err := bootstrap.NewApp(cfg, opts.Bootstrap...)
	if err != nil {
		return nil, err
	}

	downloader, err := episode.NewDownloader(cfg.Download)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{App: a, Downloader: downloader, opts: opts}

	if err := a.RegisterComponent(newTelemetryComponent(cfg, a.Version)); err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	rt.Metrics = metrics

	backends := opts.Backends
	if backends == nil {
		backends, err = rt.buildBackends(cfg)
		if err != nil {
			return nil, err
		}
	}
	rt.selector = transcription.NewSelector(backends...)

	rt.storage = storage.NewComponent(cfg.Storage, logger.Get("storage"))
	rt.database = database.NewComponent(cfg.History, logger.Get("database"))
	components := []component.Component{rt.storage, rt.database}
	if opts.Mode == ModeServe {
		rt.events = sse.NewComponent()
		components = append(components, rt.events)
	}
	for _, c := range components {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	a.OnConfigure(rt.configure)
	if opts.Mode == ModeServe {
		a.OnReady(func(ctx context.Context) error { return rt.Server.Start(ctx) })
		a.OnStop(func(ctx context.Context) error {
			if rt.Server == nil || !rt.Server.Listening() {
				return nil
			}
			return rt.Server.Stop(ctx)
		})
	}
	a.OnStop(func(ctx context.Context) error {
		if rt.Orchestrator != nil {
			return rt.Orchestrator.Close(ctx)
		}
		return rt.selector.Close(ctx)
	})

	for _, b := range backends {
		available := b.IsAvailable(context.Background())
		detail := b.Name()
		if b.Kind() == transcription.KindRemoteAPI && cfg.Transcription.Remote.APIKey != "" {
			detail += " key=" + util.MaskSecret(cfg.Transcription.Remote.APIKey, 3)
		}
		if !available {
			detail += " (not configured)"
		}
		a.Summary.TrackInfrastructure(string(b.Kind()), "transcription", detail, available)
	}
	return rt, nil
}

// buildBackends creates every backend. Unconfigured ones still register so
// the selector can report which prerequisite is missing. The local model
// handle joins the component registry so the model is freed on shutdown.
func (rt *Runtime) buildBackends(cfg *Config) ([]transcription.Backend, error) {
	t := cfg.Transcription
	backends := []transcription.Backend{openai.NewProvider(t.Remote)}

	ws, err := whisperserver.NewProvider(t.Server)
	if err != nil {
		return nil, fmt.Errorf("self-hosted backend: %w", err)
	}
	backends = append(backends, ws)

	if t.Local.ModelPath != "" {
		var handleOpts []localmodel.HandleOption
		if t.Local.UnloadWhenIdle {
			handleOpts = append(handleOpts, localmodel.WithUnloadWhenIdle())
		}
		handle := localmodel.NewHandle(t.Local.ModelPath,
			localmodel.WhisperCPP(t.Local.ModelPath, t.Local.Engine, nil), handleOpts...)
		if err := rt.App.RegisterComponent(handle); err != nil {
			return nil, err
		}

		var decoder localmodel.Decoder
		if t.Local.Engine.FFmpeg != "" {
			decoder = localmodel.NewFFmpegDecoder(t.Local.Engine.FFmpeg, nil)
		}
		backends = append(backends, localmodel.NewProvider(t.Local, handle, decoder))
	}
	return backends, nil
}

func (rt *Runtime) configure(ctx context.Context, a *bootstrap.App[*Config]) error {
	cfg := a.Cfg
	log := logger.Get("orchestrator")

	var recorder orchestrator.Recorder
	if db := rt.database.DB(); db != nil {
		if err := history.Migrate(db); err != nil {
			return fmt.Errorf("history: %w", err)
		}
		rt.History = history.NewStore(db)
		recorder = rt.History
		a.Summary.TrackInfrastructure("history", "sqlite", cfg.History.Path, true)
	}

	reporters := []orchestrator.Reporter{orchestrator.LogReporter{Log: log}}
	if rt.opts.Reporter != nil {
		reporters = append(reporters, rt.opts.Reporter)
	}
	if rt.events != nil {
		reporters = append(reporters, orchestrator.BroadcastReporter{Broadcaster: rt.events.Hub()})
	}

	gen, err := insights.New(cfg.Insights)
	if err != nil {
		return fmt.Errorf("insights: %w", err)
	}
	if gen.Enabled() {
		a.Summary.TrackInfrastructure("insights", "ollama", cfg.Insights.URL, true)
	}

	o, err := orchestrator.New(cfg.OrchestratorConfig(), orchestrator.Options{
		Selector: rt.selector,
		Storage:  rt.storage.Storage(),
		Renderer: templating.NewRenderer(cfg.Transcript),
		Reporter: orchestrator.MultiReporter(reporters...),
		Recorder: recorder,
		Insights: gen,
		Metrics:  rt.Metrics,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	rt.Orchestrator = o
	a.Summary.TrackInfrastructure("storage", cfg.Storage.Provider, cfg.Storage.Describe(), true)

	if rt.opts.Mode == ModeServe {
		return rt.configureServer(ctx, cfg)
	}
	return nil
}

// configureServer builds the HTTP server. ctx is the process context, so
// runs started over HTTP outlive the request that started them.
func (rt *Runtime) configureServer(ctx context.Context, cfg *Config) error {
	srv := server.New(cfg.Server, logger.Get("server"), rt.Metrics)
	engine := srv.Engine()

	healthPaths := []string{"/health", "/alive", "/version"}
	if cfg.Server.Auth.Enabled() {
		svc, err := auth.NewService(cfg.Server.Auth)
		if err != nil {
			return err
		}
		engine.Use(middleware.Auth(middleware.AuthConfig{Parser: svc, SkipPaths: healthPaths}))
	}

	engine.GET("/health", endpoint.Health(cfg.Name, rt.App.Components.HealthAll))
	engine.GET("/alive", endpoint.Liveness(cfg.Name))
	engine.GET("/version", endpoint.Version())

	handler := api.NewHandler(ctx, api.Options{
		Runs:    rt.Orchestrator,
		History: rt.historyReader(),
		Hub:     rt.events.Hub(),
		Sources: rt.Downloader,
		Logger:  logger.Get("api"),
	})
	handler.Register(engine.Group("/api/v1"))

	for _, r := range engine.Routes() {
		rt.App.Summary.TrackRoute(r.Method, r.Path)
	}
	rt.Server = srv
	return nil
}

// historyReader avoids handing the API a typed nil.
func (rt *Runtime) historyReader() api.HistoryReader {
	if rt.History == nil {
		return nil
	}
	return rt.History
}

// Handler returns the HTTP handler once configured. Used by tests.
func (rt *Runtime) Handler() http.Handler {
	if rt.Server == nil {
		return nil
	}
	return rt.Server.Handler()
}
