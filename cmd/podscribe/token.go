package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kbukum/podscribe/auth"
	"github.com/kbukum/podscribe/validation"
)

func runToken(_ context.Context, args []string, stdout, stderr io.Writer) int {
	var configFile string
	fs := newFlagSet("token", stderr, &configFile)
	subject := fs.String("subject", "", "token subject, e.g. a client name")
	scope := fs.String("scope", auth.ScopeRead, "token scope: read or write")
	if err := fs.Parse(args); err != nil {
		return flagExit(err)
	}

	v := validation.New().
		Required("subject", *subject).
		OneOf("scope", *scope, []string{auth.ScopeRead, auth.ScopeWrite})
	if err := v.Err(); err != nil {
		fail(stderr, "%s", userMessage(err))
		return exitUsage
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		fail(stderr, "config: %v", err)
		return exitError
	}
	if !cfg.Server.Auth.Enabled() {
		fail(stderr, "server.auth.jwt_secret is not set")
		return exitError
	}

	svc, err := auth.NewService(cfg.Server.Auth)
	if err != nil {
		fail(stderr, "%v", err)
		return exitError
	}
	token, err := svc.Issue(*subject, *scope)
	if err != nil {
		fail(stderr, "%v", err)
		return exitError
	}
	fmt.Fprintln(stdout, token)
	return exitOK
}
