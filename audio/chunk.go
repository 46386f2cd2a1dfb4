package audio

import (
	"fmt"
	"strings"
)

// DefaultMaxChunkBytes is the largest chunk accepted by the remote API.
const DefaultMaxChunkBytes = 20 * 1024 * 1024

// Chunk is a contiguous byte range of a Buffer. Index is 0-based and
// determines the position of the chunk's text in the joined transcript.
type Chunk struct {
	Index int
	Data  []byte
	Size  int
}

// Split cuts buf into contiguous chunks of at most maxBytes. The last chunk
// may be shorter. An empty buffer yields no chunks. A non-positive maxBytes
// selects DefaultMaxChunkBytes.
func Split(buf *Buffer, maxBytes int) []Chunk {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkBytes
	}
	if buf == nil || len(buf.Data) == 0 {
		return []Chunk{}
	}

	total := len(buf.Data)
	chunks := make([]Chunk, 0, (total+maxBytes-1)/maxBytes)
	for start, i := 0, 0; start < total; start, i = start+maxBytes, i+1 {
		end := min(start+maxBytes, total)
		chunks = append(chunks, Chunk{Index: i, Data: buf.Data[start:end], Size: end - start})
	}
	return chunks
}

// Unit is a chunk labelled for upload.
type Unit struct {
	Chunk
	FileName  string
	Extension string
	MIMEType  string
}

// Units labels chunks as "{base}.part{index}.{ext}" with the buffer's MIME type.
func Units(chunks []Chunk, base string, buf *Buffer) []Unit {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "audio"
	}
	units := make([]Unit, len(chunks))
	for i, c := range chunks {
		units[i] = Unit{
			Chunk:     c,
			FileName:  fmt.Sprintf("%s.part%d.%s", base, c.Index, buf.Extension),
			Extension: buf.Extension,
			MIMEType:  buf.MIMEType,
		}
	}
	return units
}

// WholeUnit labels the entire buffer as a single unit named "{base}.{ext}".
func WholeUnit(buf *Buffer, base string) Unit {
	if strings.TrimSpace(base) == "" {
		base = "audio"
	}
	return Unit{
		Chunk:     Chunk{Index: 0, Data: buf.Data, Size: len(buf.Data)},
		FileName:  fmt.Sprintf("%s.%s", base, buf.Extension),
		Extension: buf.Extension,
		MIMEType:  buf.MIMEType,
	}
}
