package episode

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/httpclient"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/util"
	"github.com/kbukum/podscribe/version"
)

// DownloadConfig configures HTTP audio acquisition.
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxSize caps the download, e.g. "1GB". Empty means 1 GiB.
	MaxSize   string               `yaml:"max_size" mapstructure:"max_size"`
	UserAgent string               `yaml:"user_agent" mapstructure:"user_agent"`
	Retries   int                  `yaml:"retries" mapstructure:"retries"`
	TLS       httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *DownloadConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
}

// Downloader fetches episode audio over HTTP.
type Downloader struct {
	client *httpclient.Client
	log    *logger.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloadConfig) (*Downloader, error) {
	cfg.ApplyDefaults()
	retry := httpclient.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retries
	hc := httpclient.Config{
		Timeout:          cfg.Timeout,
		MaxResponseBytes: util.ParseSize(cfg.MaxSize, 1<<30),
		Headers:          map[string]string{"User-Agent": cfg.UserAgent},
		Retry:            retry,
	}
	if cfg.TLS.IsEnabled() {
		hc.TLS = &cfg.TLS
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("episode: %w", err)
	}
	return &Downloader{client: client, log: logger.Get("download")}, nil
}

// Source returns an audio.Source that downloads url when fetched.
func (d *Downloader) Source(url string) audio.Source {
	return audio.SourceFunc(func(ctx context.Context) (*audio.Buffer, error) {
		return d.Download(ctx, url)
	})
}

// Download fetches url into memory. The extension is taken from the
// Content-Type header, then the URL path, then defaults to mp3.
func (d *Downloader) Download(ctx context.Context, url string) (*audio.Buffer, error) {
	start := time.Now()
	resp, err := d.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: url})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	ext, ok := audio.ExtensionForMIME(resp.Header("Content-Type"))
	if !ok {
		ext, _ = audio.ExtensionFromName(url)
	}

	fields := logger.DurationFields("download", time.Since(start))
	fields["bytes"] = len(resp.Body)
	fields["extension"] = ext
	d.log.Info("episode downloaded", fields)

	return audio.NewBuffer(resp.Body, ext), nil
}

// FileSource returns a Source that reads a local file.
func FileSource(path string) audio.Source {
	return audio.SourceFunc(func(ctx context.Context) (*audio.Buffer, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read audio file: %w", err)
		}
		ext, _ := audio.ExtensionFromName(path)
		return audio.NewBuffer(data, ext), nil
	})
}

// FromFile reads episode metadata from the audio file's ID3/MP4/FLAC tags.
// Missing tags fall back to the file name for the title.
func FromFile(path string) (Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Episode{}, fmt.Errorf("read audio file: %w", err)
	}
	ep := Episode{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		// untagged audio is fine
		return ep, nil
	}
	tagged := Episode{
		Title:       util.SanitizeString(m.Title()),
		Podcast:     util.SanitizeString(util.Coalesce(m.Album(), m.AlbumArtist(), m.Artist())),
		Description: strings.TrimSpace(m.Comment()),
	}
	if y := m.Year(); y > 0 {
		tagged.Date = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return tagged.Merge(ep), nil
}
