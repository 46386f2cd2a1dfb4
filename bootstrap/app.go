package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/util"
	"github.com/kbukum/podscribe/version"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// App owns the process lifecycle for a typed config C.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	opts      settings
	configure []func(ctx context.Context, app *App[C]) error
	onStart   []Hook
	onReady   []Hook
	onStop    []Hook
}

// NewApp applies defaults to cfg, validates it and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	svc := cfg.GetServiceConfig()

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		logger.Init(svc.Logging)
		s.logger = logger.GetGlobalLogger()
	}

	ver := util.Coalesce(svc.Version, version.Get().Short())
	return &App[C]{
		Name:       svc.Name,
		Version:    ver,
		Cfg:        cfg,
		Components: component.NewRegistry(),
		Logger:     s.logger,
		Summary:    NewSummary(svc.Name, ver),
		opts:       s,
	}, nil
}

// RegisterComponent adds c. Components start in registration order and
// stop in reverse.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure runs fn once every component has started.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.configure = append(a.configure, fn)
}

// OnStart hooks run right after the components start.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady hooks run last during startup; "serve" starts its listener here.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop hooks run before the components stop.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

// ReadyCheck fails when any component reports anything but healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		entry := fmt.Sprintf("%s=%s", h.Name, h.Status)
		if h.Message != "" {
			entry += " (" + h.Message + ")"
		}
		bad = append(bad, entry)
	}
	if len(bad) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Run starts the app and blocks until SIGINT, SIGTERM or ctx ends.
func (a *App[C]) Run(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		a.Logger.Info("ready, waiting for shutdown signal")
		<-ctx.Done()
		return nil
	})
}

// RunTask starts the app, runs task and then shuts down. SIGINT and SIGTERM
// cancel the context task receives. A task error wins over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Debug("shutdown after failed startup", logger.ErrorFields("stop", stopErr))
		}
		return err
	}

	taskCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	taskErr := task(taskCtx)
	if ctx.Err() == nil && taskCtx.Err() != nil {
		a.Logger.Info("signal received, shutting down")
	}
	stopSignals()

	stopErr := a.stop()
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"start components", a.Components.StartAll},
		{"start hooks", hookRunner(a.onStart)},
		{"configure", a.runConfigure},
		{"ready check", a.softReadyCheck},
		{"ready hooks", hookRunner(a.onReady)},
	}
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	a.Summary.SetStartupDuration(time.Since(began))
	if a.opts.summary != nil {
		a.Summary.Write(ctx, a.opts.summary, a.Components)
	}
	return nil
}

func (a *App[C]) runConfigure(ctx context.Context) error {
	for _, fn := range a.configure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// softReadyCheck logs an unready component instead of failing startup;
// optional backends may legitimately be down.
func (a *App[C]) softReadyCheck(ctx context.Context) error {
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check", logger.Fields("error", err.Error()))
	}
	return nil
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.grace)
	defer cancel()

	hookErr := hookRunner(a.onStop)(ctx)
	compErr := a.Components.StopAll(ctx)
	err := errors.Join(hookErr, compErr)
	if err != nil {
		a.Logger.Error("shutdown finished with errors", logger.Fields("error", err.Error()))
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}

func hookRunner(hooks []Hook) func(context.Context) error {
	return func(ctx context.Context) error {
		for i, h := range hooks {
			if err := h(ctx); err != nil {
				return fmt.Errorf("hook %d: %w", i, err)
			}
		}
		return nil
	}
}
