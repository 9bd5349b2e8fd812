// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package idgen generates the random identifiers the orchestrator
// needs (session ids, motion ids). Event ids are not generated here;
// they are a strictly monotonic counter owned by the event log.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New returns a random hex identifier prefixed with prefix, e.g.
// New("session") -> "session-a3f9c2e1b7d84f60".
func New(prefix string) (string, error) {
	var buffer [8]byte
	if _, err := rand.Read(buffer[:]); err != nil {
		return "", fmt.Errorf("idgen: generating %s id: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buffer[:])), nil
}

// MustNew is New but panics on failure. crypto/rand.Read only fails
// when the OS entropy source is unavailable, which indicates a broken
// host rather than a recoverable condition.
func MustNew(prefix string) string {
	id, err := New(prefix)
	if err != nil {
		panic(err)
	}
	return id
}
