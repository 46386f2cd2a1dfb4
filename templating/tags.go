package templating

import (
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/nleeper/goment"

	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/util"
)

// DefaultDateFormat is used by {{date}} without params.
const DefaultDateFormat = "YYYY-MM-DD"

var (
	whitespace     = regexp.MustCompile(`\s+`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
	sentenceEnding = regexp.MustCompile(`([.!?])\s+`)
)

// TagInsights is the document tag filled with model-generated insights.
const TagInsights = "insights"

// PathEngine exposes {{title}}, {{podcast}} and {{date}} for destination paths.
func PathEngine(ep episode.Episode) *Engine {
	return NewEngine().
		Func("title", fileNameTag(ep.Title)).
		Func("podcast", fileNameTag(ep.Podcast)).
		Func("date", dateTag(ep.Date))
}

// TranscriptEngine exposes every document tag: the path tags plus
// {{transcript}}, {{insights}}, {{description[:prefix]}}, {{url}} and
// {{artwork}}.
func TranscriptEngine(ep episode.Episode, transcript, insights string) *Engine {
	return PathEngine(ep).
		Value("transcript", transcript).
		Value(TagInsights, insights).
		Func("description", descriptionTag(ep.Description)).
		Value("url", ep.URL).
		Value("artwork", ep.ArtworkURL)
}

// Paragraphs inserts a blank line after sentence-ending punctuation that is
// followed by whitespace.
func Paragraphs(text string) string {
	return sentenceEnding.ReplaceAllString(text, "$1\n\n")
}

// fileNameTag sanitizes value and optionally replaces whitespace runs with
// the first param.
func fileNameTag(value string) Func {
	return func(params ...string) string {
		legal := util.SanitizeFileName(value)
		if repl := param(params); repl != "" {
			return whitespace.ReplaceAllString(legal, repl)
		}
		return legal
	}
}

// dateTag formats t with a moment-style layout. A zero date renders empty.
func dateTag(t time.Time) Func {
	return func(params ...string) string {
		if t.IsZero() {
			return ""
		}
		format := strings.TrimSpace(param(params))
		if format == "" {
			format = DefaultDateFormat
		}
		g, err := goment.New(t)
		if err != nil {
			return t.Format(time.DateOnly)
		}
		return g.Format(format)
	}
}

// descriptionTag converts HTML to Markdown and prefixes every line with the
// first param.
func descriptionTag(html string) Func {
	return func(params ...string) string {
		text := HTMLToMarkdown(html)
		prefix := param(params)
		if prefix == "" {
			return text
		}
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = prefix + l
		}
		return strings.Join(lines, "\n")
	}
}

// HTMLToMarkdown converts an episode description. Input that fails to
// convert is returned unchanged.
func HTMLToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	out, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return html
	}
	return extraNewlines.ReplaceAllString(out, "\n\n")
}
