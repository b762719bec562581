// Package storage holds recorded answers and archived uploads behind a
// pluggable object store.
//
// # Backends
//
//   - storage/local: a directory on disk, optionally served over HTTP
//   - storage/s3: Amazon S3 and S3-compatible stores, with presigned URLs
//
// Import a backend for its side-effect registration and select it by name:
//
//	storage:
//	  provider: "s3"
//	  bucket: "standin-media"
//	  region: "us-east-1"
package storage
