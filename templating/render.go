package templating

import (
	"path"
	"strings"

	"github.com/kbukum/podscribe/episode"
)

const (
	// DefaultPathTemplate places transcripts under the podcast's folder.
	DefaultPathTemplate = "transcripts/{{podcast}}/{{title}}.md"
	// DefaultTranscriptTemplate is the default document layout.
	DefaultTranscriptTemplate = "# {{title}}\n\nPodcast: {{podcast}}\nDate: {{date}}\n\n{{transcript}}"
)

// Config holds the templates used to render a transcript.
type Config struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Template string `yaml:"template" mapstructure:"template"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = DefaultPathTemplate
	}
	if c.Template == "" {
		c.Template = DefaultTranscriptTemplate
	}
}

// Renderer renders destination paths and documents from a Config.
type Renderer struct {
	cfg Config
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg Config) *Renderer {
	cfg.ApplyDefaults()
	return &Renderer{cfg: cfg}
}

// Path renders the destination path for ep as a clean, slash-separated
// relative path.
func (r *Renderer) Path(ep episode.Episode) (string, []Warning) {
	out, warnings := PathEngine(ep).Render(r.cfg.Path)
	out = strings.TrimLeft(path.Clean("/"+strings.TrimSpace(out)), "/")
	return out, warnings
}

// Document renders the transcript document for ep.
func (r *Renderer) Document(ep episode.Episode, transcript, insights string) (string, []Warning) {
	return TranscriptEngine(ep, transcript, insights).Render(r.cfg.Template)
}

// Uses reports whether the document template references tag, with or
// without params.
func (r *Renderer) Uses(tag string) bool {
	for _, m := range tagPattern.FindAllStringSubmatch(r.cfg.Template, -1) {
		if strings.EqualFold(m[1], tag) {
			return true
		}
	}
	return false
}
