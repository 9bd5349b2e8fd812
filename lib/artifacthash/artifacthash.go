// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package artifacthash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex-encoded string representation of a
// BLAKE3 digest. This is the canonical format written to the event
// log's .checksums sidecar.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a hex-encoded BLAKE3 digest string into a
// 32-byte array. Returns an error if the string is not a valid
// 64-character hex encoding of 32 bytes.
func ParseDigest(hexString string) ([32]byte, error) {
	var digest [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("hash digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
