package util

import (
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	bytes  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize reads sizes such as "512KB", "25MB" or "1GB" (case-insensitive,
// powers of 1024). A bare number is bytes. Unparseable input yields fallback.
func ParseSize(s string, fallback int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range sizeUnits {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			s, mult = strings.TrimSpace(num), u.bytes
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n * mult
}

// MaskSecret keeps the first n characters of s for log output.
func MaskSecret(s string, n int) string {
	if len(s) <= n {
		return "***"
	}
	return s[:n] + "***"
}
