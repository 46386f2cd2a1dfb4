package main

import (
	"context"
	"io"

	"github.com/kbukum/podscribe/app"
)

func runServe(ctx context.Context, args []string, _, stderr io.Writer) int {
	var configFile string
	fs := newFlagSet("serve", stderr, &configFile)
	host := fs.String("host", "", "override server.host")
	port := fs.Int("port", 0, "override server.port")
	if err := fs.Parse(args); err != nil {
		return flagExit(err)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		fail(stderr, "config: %v", err)
		return exitError
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	rt, err := app.New(cfg, app.Options{Mode: app.ModeServe})
	if err != nil {
		fail(stderr, "%v", err)
		return exitError
	}
	if err := rt.App.Run(ctx); err != nil {
		fail(stderr, "%v", err)
		return exitError
	}
	return exitOK
}
