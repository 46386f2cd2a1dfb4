// Package transcription defines the backend contract shared by the three
// transcription variants and the selector that resolves a configured kind
// to a usable backend.
//
// The variants live in subpackages:
//
//   - openai: remote API, one multipart upload per chunk
//   - whisperserver: self-hosted server, one JSON request per episode
//   - localmodel: offline model fed fixed-size PCM windows
//
// A self-hosted request falls back to the remote API when the server URL
// is missing and an API key is configured.
package transcription
