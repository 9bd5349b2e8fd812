// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/lib/clock"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log, err := New(fakeClock, "session-1", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return log
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	log := newTestLog(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		event, err := log.Append(protocol.Event{Type: protocol.EventRoundStarted, Round: i})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		ids = append(ids, event.ID)
	}

	for i, id := range ids {
		if id != int64(i+1) {
			t.Errorf("ids[%d] = %d, want %d", i, id, i+1)
		}
	}
}

func TestAppendRejectsCallerSuppliedIdentity(t *testing.T) {
	t.Parallel()

	log := newTestLog(t)

	// Append must overwrite any ID/SessionID the caller supplies,
	// never trust it, since the sequencer is the sole source of truth.
	event, err := log.Append(protocol.Event{ID: 999, SessionID: "not-mine", Type: protocol.EventLeaderElected})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if event.ID != 1 {
		t.Errorf("ID = %d, want 1", event.ID)
	}
	if event.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want session-1", event.SessionID)
	}
}

func TestAppendPersistsEventsJSON(t *testing.T) {
	t.Parallel()

	log := newTestLog(t)

	if _, err := log.Append(protocol.Event{Type: protocol.EventLeaderElected, ActorID: "member-a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := log.Append(protocol.Event{Type: protocol.EventRoundStarted, Round: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(log.eventsPath())
	if err != nil {
		t.Fatalf("reading events.json: %v", err)
	}

	var decoded []protocol.Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("events.json is not a valid JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
	if decoded[0].Type != protocol.EventLeaderElected || decoded[1].Type != protocol.EventRoundStarted {
		t.Errorf("decoded events out of order: %+v", decoded)
	}
}

func TestAppendWritesTranscriptAndChecksums(t *testing.T) {
	t.Parallel()

	log := newTestLog(t)

	if _, err := log.Append(protocol.Event{Type: protocol.EventLeaderElected, ActorID: "member-a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	transcript, err := os.ReadFile(log.transcriptPath())
	if err != nil {
		t.Fatalf("reading transcript.md: %v", err)
	}
	if len(transcript) == 0 {
		t.Error("transcript.md is empty after an append")
	}

	checksums, err := os.ReadFile(log.checksumsPath())
	if err != nil {
		t.Fatalf("reading checksums: %v", err)
	}
	if len(checksums) == 0 {
		t.Error("checksums sidecar is empty after an append")
	}
}

func TestEventsReturnsACopy(t *testing.T) {
	t.Parallel()

	log := newTestLog(t)
	if _, err := log.Append(protocol.Event{Type: protocol.EventRoundStarted}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snapshot := log.Events()
	snapshot[0].Type = "MUTATED"

	fresh := log.Events()
	if fresh[0].Type == "MUTATED" {
		t.Error("Events() leaked internal slice; mutation through the returned copy affected internal state")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir := filepath.Join(parent, "nested", "session-dir")

	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := New(fakeClock, "session-1", dir); err != nil {
		t.Fatalf("New: %v", err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("New did not create %s", dir)
	}
}
