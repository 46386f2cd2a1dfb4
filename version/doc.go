// Package version exposes build information set through -ldflags or, when
// absent, read from the VCS stamps embedded by the Go toolchain.
package version
