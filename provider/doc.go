// Package provider keeps named, swappable backends and picks the first one
// that is available from an ordered fallback chain.
//
//	reg := provider.NewRegistry[transcription.Backend]()
//	reg.Set("self_hosted", server)
//	reg.Set("remote_api", remote)
//	b, err := reg.FirstAvailable(ctx, "self_hosted", "remote_api")
package provider
