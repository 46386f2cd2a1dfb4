package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/podscribe/app"
	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/bootstrap"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/transcription"
	"github.com/kbukum/podscribe/validation"
)

type transcribeFlags struct {
	config      string
	file        string
	url         string
	title       string
	podcast     string
	date        string
	description string
	artwork     string
	backend     string
	print       bool
}

func runTranscribe(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f transcribeFlags
	fs := newFlagSet("transcribe", stderr, &f.config)
	fs.StringVarP(&f.file, "file", "f", "", "local audio file")
	fs.StringVarP(&f.url, "url", "u", "", "episode audio URL")
	fs.StringVar(&f.title, "title", "", "episode title (default: from audio tags or file name)")
	fs.StringVar(&f.podcast, "podcast", "", "podcast name (default: from audio tags)")
	fs.StringVar(&f.date, "date", "", "publication date, e.g. 2024-05-01")
	fs.StringVar(&f.description, "description", "", "episode description (HTML allowed)")
	fs.StringVar(&f.artwork, "artwork", "", "artwork URL")
	fs.StringVarP(&f.backend, "backend", "b", "", "override transcription.backend: remote_api, self_hosted, local_model")
	fs.BoolVarP(&f.print, "print", "p", false, "also print the transcript to stdout")
	if err := fs.Parse(args); err != nil {
		return flagExit(err)
	}

	ep, src, err := f.resolve()
	if err != nil {
		fail(stderr, "%s", userMessage(err))
		return exitUsage
	}

	cfg, err := loadConfig(f.config)
	if err != nil {
		fail(stderr, "config: %v", err)
		return exitError
	}
	if f.backend != "" {
		if _, err := transcription.ParseKind(f.backend); err != nil {
			fail(stderr, "%v", err)
			return exitUsage
		}
		cfg.Transcription.Backend = f.backend
	}

	rt, err := app.New(cfg, app.Options{
		Mode:      app.ModeTask,
		Reporter:  newTerminalReporter(stderr),
		Bootstrap: []bootstrap.Option{bootstrap.WithoutSummary()},
	})
	if err != nil {
		fail(stderr, "%v", err)
		return exitError
	}

	if src == nil {
		src = rt.Downloader.Source(f.url)
	}

	// failures of a started run are already on screen through the reporter
	var started bool
	err = rt.App.RunTask(ctx, func(ctx context.Context) error {
		info(stderr, "Transcribing %q from %s", ep.Title, ep.Podcast)
		run, err := rt.Orchestrator.Start(ctx, ep, src)
		if err != nil {
			return err
		}
		started = true
		res, err := run.Wait()
		if err != nil {
			return err
		}
		if res.FailedChunks > 0 {
			warn(stderr, "%d of %d chunks could not be transcribed", res.FailedChunks, len(res.Chunks))
		}
		ok(stderr, "Saved %s", res.Path)
		if f.print {
			fmt.Fprintln(stdout, res.Transcript)
		}
		return nil
	})
	switch {
	case err == nil:
		return exitOK
	case errors.HasCode(err, errors.ErrCodeAlreadyTranscribed):
		return exitOK
	case !started:
		fail(stderr, "%s", userMessage(err))
	}
	return exitError
}

// resolve validates the flags and builds the episode. src is nil for URL
// input; the downloader provides it once the runtime exists.
func (f *transcribeFlags) resolve() (episode.Episode, audio.Source, error) {
	v := validation.New().ExactlyOne(map[string]string{"file": f.file, "url": f.url})
	if err := v.Err(); err != nil {
		return episode.Episode{}, nil, err
	}

	ep := episode.Episode{
		Title:       strings.TrimSpace(f.title),
		Podcast:     strings.TrimSpace(f.podcast),
		Description: f.description,
		ArtworkURL:  f.artwork,
		AudioURL:    f.url,
	}
	if f.date != "" {
		d, ok := episode.ParseDate(f.date)
		if !ok {
			return episode.Episode{}, nil, errors.InvalidInput("date", fmt.Sprintf("cannot parse %q", f.date))
		}
		ep.Date = d
	}

	var src audio.Source
	if f.file != "" {
		tagged, err := episode.FromFile(f.file)
		if err != nil {
			return episode.Episode{}, nil, err
		}
		ep = ep.Merge(tagged)
		src = episode.FileSource(f.file)
	}

	if err := validation.Validate(&ep); err != nil {
		return episode.Episode{}, nil, err
	}
	return ep, src, nil
}

func userMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
