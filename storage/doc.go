// Package storage is the document store that finished transcripts are
// written to. The pipeline only needs two questions answered: does a
// document exist at a path, and write a document at a path.
//
// # Backends
//
//   - storage/local: a directory tree such as a notes vault
//   - storage/s3: Amazon S3 and S3-compatible services
//
// Backends register themselves in init; import them for side effects and
// call New:
//
//	storage:
//	  provider: "local"
//	  base_path: "~/Notes"
package storage
