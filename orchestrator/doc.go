// Package orchestrator drives a single podcast transcription from audio
// acquisition to the saved document.
//
// An Orchestrator admits one run at a time. Each run resolves a backend
// (falling back from the self-hosted server to the remote API when needed),
// fetches the audio and either transcribes it whole or splits it into
// chunks that are dispatched concurrently with bounded retries. Chunks that
// exhaust their retries are replaced by a placeholder so one bad chunk never
// aborts the run; Result.FailedChunks reports how many were replaced.
//
// Progress is published through a Reporter: every phase change, chunk
// completion and warning, plus a once-per-second re-emission of the current
// message with the elapsed time.
package orchestrator
