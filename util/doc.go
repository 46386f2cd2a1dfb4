// Package util holds small helpers shared across podscribe packages:
// pointer and zero-value helpers, size parsing, secret masking, and the
// sanitization applied to titles before they become file names.
package util
