package util

import (
	"regexp"
	"strings"
	"unicode"
)

// illegalFileNameChars are stripped from titles and podcast names before they
// become path segments.
var illegalFileNameChars = regexp.MustCompile(`[\\,#%&{}/*<>$'":@‣|.?]`)

// SanitizeString trims whitespace and removes control characters from s.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeFileName removes characters that are illegal in file names,
// turns newlines into spaces and collapses double spaces.
func SanitizeFileName(s string) string {
	s = illegalFileNameChars.ReplaceAllString(s, "")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}
