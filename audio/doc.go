// Package audio holds the in-memory audio types the transcription pipeline
// moves around: the acquired Buffer, the fixed-size Chunks it is split into,
// and the named Units handed to a backend. It also decodes WAV PCM for the
// local recognizer.
package audio
