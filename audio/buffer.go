package audio

import (
	"path"
	"strings"
)

// DefaultExtension is assumed when the source gives no usable hint.
const DefaultExtension = "mp3"

var mimeTypes = map[string]string{
	"mp3":  "audio/mp3",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
}

var extensionsByMIME = map[string]string{
	"audio/mp3":    "mp3",
	"audio/mpeg":   "mp3",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/aac":    "m4a",
	"audio/ogg":    "ogg",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

// MIMEType returns the content type for a file extension (with or without the dot).
func MIMEType(ext string) string {
	if m, ok := mimeTypes[normalizeExt(ext)]; ok {
		return m
	}
	return "audio/mpeg"
}

// ExtensionForMIME maps a Content-Type header value back to an extension.
func ExtensionForMIME(contentType string) (string, bool) {
	mt, _, _ := strings.Cut(contentType, ";")
	ext, ok := extensionsByMIME[strings.ToLower(strings.TrimSpace(mt))]
	return ext, ok
}

// ExtensionFromName extracts a known audio extension from a file name or URL
// path. Query strings are ignored.
func ExtensionFromName(name string) (string, bool) {
	name, _, _ = strings.Cut(name, "?")
	ext := normalizeExt(path.Ext(name))
	if _, ok := mimeTypes[ext]; ok {
		return ext, true
	}
	return "", false
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Buffer is an acquired episode's audio. It is not modified after creation.
type Buffer struct {
	Data      []byte
	Extension string
	MIMEType  string
}

// NewBuffer wraps data, normalizing ext and deriving the MIME type.
func NewBuffer(data []byte, ext string) *Buffer {
	ext = normalizeExt(ext)
	if ext == "" {
		ext = DefaultExtension
	}
	return &Buffer{Data: data, Extension: ext, MIMEType: MIMEType(ext)}
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return len(b.Data) }
