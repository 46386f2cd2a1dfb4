package episode

import (
	"strings"
	"time"

	"github.com/kbukum/podscribe/util"
)

// Episode describes the podcast episode a transcript belongs to. Only Title
// and Podcast are needed to compute the destination path.
type Episode struct {
	Title       string    `json:"title" yaml:"title" validate:"required"`
	Podcast     string    `json:"podcast" yaml:"podcast" validate:"required"`
	Date        time.Time `json:"date,omitempty" yaml:"date"`
	Description string    `json:"description,omitempty" yaml:"description"`
	URL         string    `json:"url,omitempty" yaml:"url" validate:"omitempty,url"`
	ArtworkURL  string    `json:"artwork_url,omitempty" yaml:"artwork_url" validate:"omitempty,url"`
	AudioURL    string    `json:"audio_url,omitempty" yaml:"audio_url" validate:"omitempty,url"`
}

// Merge fills empty fields of e from fallback.
func (e Episode) Merge(fallback Episode) Episode {
	e.Title = util.Coalesce(strings.TrimSpace(e.Title), fallback.Title)
	e.Podcast = util.Coalesce(strings.TrimSpace(e.Podcast), fallback.Podcast)
	if e.Date.IsZero() {
		e.Date = fallback.Date
	}
	e.Description = util.Coalesce(e.Description, fallback.Description)
	e.URL = util.Coalesce(e.URL, fallback.URL)
	e.ArtworkURL = util.Coalesce(e.ArtworkURL, fallback.ArtworkURL)
	e.AudioURL = util.Coalesce(e.AudioURL, fallback.AudioURL)
	return e
}

// BaseName is the stem used for chunk file names.
func (e Episode) BaseName() string {
	if name := util.SanitizeFileName(e.Title); name != "" {
		return name
	}
	return "episode"
}

// DateLayouts are the accepted formats for ParseDate.
var DateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
	"2006",
}

// ParseDate parses s with the first matching layout in DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
