package transcription

import (
	"fmt"
	"strings"
)

// Kind identifies one of the three backend variants.
type Kind string

const (
	// KindRemoteAPI uploads each chunk to a hosted speech-to-text API.
	KindRemoteAPI Kind = "remote_api"
	// KindSelfHosted posts the whole episode to a self-hosted server.
	KindSelfHosted Kind = "self_hosted"
	// KindLocalModel runs an offline model in-process.
	KindLocalModel Kind = "local_model"
)

// Kinds lists every supported backend kind.
var Kinds = []Kind{KindRemoteAPI, KindSelfHosted, KindLocalModel}

// ParseKind converts a configuration value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindRemoteAPI, KindSelfHosted, KindLocalModel:
		return k, nil
	case "":
		return KindRemoteAPI, nil
	}
	return "", fmt.Errorf("unknown transcription backend %q", s)
}

// Chunked reports whether runs on this kind split the audio into chunks.
func (k Kind) Chunked() bool { return k == KindRemoteAPI }

// Fallbacks returns the kinds tried, in order, when k is requested.
func (k Kind) Fallbacks() []Kind {
	switch k {
	case KindSelfHosted:
		return []Kind{KindSelfHosted, KindRemoteAPI}
	default:
		return []Kind{k}
	}
}

// DisplayName is the label used in progress messages.
func (k Kind) DisplayName() string {
	switch k {
	case KindRemoteAPI:
		return "remote API"
	case KindSelfHosted:
		return "self-hosted server"
	case KindLocalModel:
		return "local model"
	}
	return string(k)
}
