// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventlog is the append-only, ordered record of everything
// that happens during a session. It is the only component that
// assigns event ids and the only writer of transcript.md, events.json,
// and their checksum sidecar.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/lib/artifacthash"
	"github.com/council-engine/council/lib/clock"
)

// Log is the session's event sequencer. It is written only by the
// orchestrator's sequencing goroutine — fan-out workers return values
// up to the orchestrator, which alone calls Append. The mutex exists
// as a defense against a caller violating that structure, not as the
// primary means of enforcing it.
type Log struct {
	mutex     sync.Mutex
	clock     clock.Clock
	sessionID string
	dir       string
	events    []protocol.Event
	nextID    int64
}

// New creates a Log that flushes to dir/events.json and
// dir/transcript.md, creating dir if necessary.
func New(clk clock.Clock, sessionID string, dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: creating %s: %w", dir, err)
	}
	return &Log{
		clock:     clk,
		sessionID: sessionID,
		dir:       dir,
		nextID:    1,
	}, nil
}

// Append assigns the next monotonic event id and timestamp, records
// the event, and flushes both artifacts before returning. The event
// passed in must not already carry an ID or Timestamp; Append sets
// both, so that no caller can violate the strictly-monotonic-id
// invariant by constructing its own.
func (log *Log) Append(event protocol.Event) (protocol.Event, error) {
	log.mutex.Lock()
	defer log.mutex.Unlock()

	event.ID = log.nextID
	event.SessionID = log.sessionID
	event.Timestamp = log.clock.Now()
	log.nextID++

	log.events = append(log.events, event)

	if err := log.flushEvents(); err != nil {
		return event, err
	}
	if err := log.appendTranscript(event); err != nil {
		return event, err
	}

	return event, nil
}

// Events returns a copy of the events appended so far, in order.
func (log *Log) Events() []protocol.Event {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	return append([]protocol.Event(nil), log.events...)
}

// eventsPath, transcriptPath and checksumsPath are unexported methods
// so the package and its tests share one definition of the directory
// layout.
func (log *Log) eventsPath() string    { return filepath.Join(log.dir, "events.json") }
func (log *Log) transcriptPath() string { return filepath.Join(log.dir, "transcript.md") }
func (log *Log) checksumsPath() string { return filepath.Join(log.dir, ".checksums") }

// flushEvents rewrites the whole events.json array. Whole-file
// rewrite (rather than append) keeps the file always a valid JSON
// array, at the cost of O(n) work per event — acceptable at the
// session's event volume (hundreds, not millions).
func (log *Log) flushEvents() error {
	data, err := json.MarshalIndent(log.events, "", "  ")
	if err != nil {
		return fmt.Errorf("eventlog: marshaling events: %w", err)
	}

	path := log.eventsPath()
	if err := writeFileDurably(path, data); err != nil {
		return err
	}
	return log.recordChecksum(path)
}

// appendTranscript appends one human-readable line describing event
// to transcript.md. Unlike events.json this uses append semantics:
// the transcript is meant to be tailed, and rewriting the whole file
// on every event would make that expensive for long sessions.
func (log *Log) appendTranscript(event protocol.Event) error {
	file, err := os.OpenFile(log.transcriptPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: opening transcript: %w", err)
	}
	defer file.Close()

	line := renderTranscriptLine(event)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("eventlog: writing transcript: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("eventlog: syncing transcript: %w", err)
	}

	return log.recordChecksum(log.transcriptPath())
}

// recordChecksum appends a "<path> <digest>" line to the checksums
// sidecar so a reader recovering from a crash can tell whether the
// last artifact on disk matches what the log believed it had flushed.
func (log *Log) recordChecksum(path string) error {
	digest, err := artifacthash.HashFile(path)
	if err != nil {
		return fmt.Errorf("eventlog: hashing %s: %w", path, err)
	}

	file, err := os.OpenFile(log.checksumsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: opening checksums: %w", err)
	}
	defer file.Close()

	line := fmt.Sprintf("%s %s\n", filepath.Base(path), artifacthash.FormatDigest(digest))
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("eventlog: writing checksum: %w", err)
	}
	return file.Sync()
}

// writeFileDurably writes data to path via a temp file + rename, then
// fsyncs, so a crash mid-write never leaves a half-written events.json.
func writeFileDurably(path string, data []byte) error {
	temp := path + ".tmp"
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("eventlog: creating %s: %w", temp, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("eventlog: writing %s: %w", temp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("eventlog: syncing %s: %w", temp, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("eventlog: closing %s: %w", temp, err)
	}
	if err := os.Rename(temp, path); err != nil {
		return fmt.Errorf("eventlog: renaming %s to %s: %w", temp, path, err)
	}
	return nil
}
