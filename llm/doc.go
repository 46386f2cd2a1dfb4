// Package llm holds the provider-neutral completion types used to summarise
// transcripts with a language model.
//
//	p := ollama.NewProvider(ollama.Config{BaseURL: "http://localhost:11434", Model: "llama3"})
//	text, err := llm.Complete(ctx, p, "", prompt)
//
// Backends live in subpackages and implement [Provider].
package llm
