// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifacthash provides content hashing for session artifacts.
//
// The event log rewrites events.json and transcript.md in place as a
// session progresses. [HashFile] gives the event log a cheap way to
// record, alongside each flush, a digest of what was actually durably
// written -- so a reader recovering from a crash can tell whether the
// last artifact on disk matches what the in-memory event log believed
// it had flushed, instead of trusting the file's mtime.
//
// The API surface is three functions:
//
//   - [HashFile] -- streams a file through BLAKE3, returning a [32]byte
//     digest with constant memory usage regardless of file size
//   - [FormatDigest] -- converts a [32]byte digest to its canonical
//     hex-encoded string representation, used in the event log's
//     .checksums sidecar
//   - [ParseDigest] -- parses a hex-encoded digest string back to a
//     [32]byte array, validating length and encoding
package artifacthash
