// Package episode describes podcast episodes and acquires their audio, either
// by downloading it over HTTP or by reading a local file whose tags fill in
// missing metadata.
package episode
