// Package bootstrap runs the podscribe process lifecycle: typed config
// defaults and validation, logger setup, component start in registration
// order, configure callbacks, lifecycle hooks, a startup summary and
// graceful shutdown.
//
// "podscribe serve" uses Run, which blocks until SIGINT/SIGTERM.
// "podscribe transcribe" uses RunTask, which cancels the task on a signal
// and shuts down once it returns.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storageComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*app.Config]) error {
//	    return nil
//	})
//	err = app.RunTask(ctx, transcribe)
package bootstrap
