package audio

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint returns the hex BLAKE3-256 digest of the buffer contents.
func Fingerprint(buf *Buffer) string {
	h := blake3.New(32, nil)
	_, _ = h.Write(buf.Data)
	return hex.EncodeToString(h.Sum(nil))
}
