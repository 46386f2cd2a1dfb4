// Command podscribe transcribes podcast episodes into Markdown documents.
//
//	podscribe transcribe --url https://cdn.example.com/ep.mp3 --title "Ep 1" --podcast "Show"
//	podscribe transcribe --file ./ep.mp3
//	podscribe serve
//	podscribe token --subject ci --scope write
//	podscribe version
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/podscribe/app"
	"github.com/kbukum/podscribe/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) int
}

func commands() []command {
	return []command{
		{"transcribe", "Transcribe one episode from a file or URL", runTranscribe},
		{"serve", "Run the HTTP API and progress event stream", runServe},
		{"token", "Issue an API bearer token", runToken},
		{"version", "Print version information", runVersion},
	}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:], stdout, stderr)
		}
	}
	fail(stderr, "unknown command %q", args[0])
	usage(stderr)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", version.Product)
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun '%s <command> --help' for command flags.\n", version.Product)
}

// newFlagSet returns a FlagSet carrying the shared --config flag.
func newFlagSet(name string, stderr io.Writer, configFile *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(configFile, "config", "c", "", "config file (default: search ./cmd/podscribe, ./config, .)")
	return fs
}

// loadConfig reads, defaults and validates the configuration.
func loadConfig(configFile string) (*app.Config, error) {
	cfg, err := app.Load(configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runVersion(_ context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	short := fs.Bool("short", false, "print only the version")
	if err := fs.Parse(args); err != nil {
		return flagExit(err)
	}
	info := version.Get()
	if *short {
		fmt.Fprintln(stdout, info.Short())
		return exitOK
	}
	fmt.Fprintln(stdout, info.String())
	return exitOK
}

func flagExit(err error) int {
	if err == pflag.ErrHelp {
		return exitOK
	}
	return exitUsage
}
