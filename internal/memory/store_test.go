// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/council-engine/council/lib/clock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(Config{
		MemoryDir: dir,
		Clock:     clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordSessionUpsertsAndDerivesContext(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	input := SessionInput{
		SessionID:       "session-1",
		FinalResolution: "Ship the plan",
		MemberIDs:       []string{"alice", "bob"},
		LastMessageByMember: map[string]string{
			"alice": "I think we should proceed carefully.",
		},
		ParseFallbackMembers: []string{"bob"},
		EndedByRoundLimit:    false,
	}

	if err := store.RecordSession(ctx, input); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	councilContext, err := store.CouncilPromptContext(ctx)
	if err != nil {
		t.Fatalf("CouncilPromptContext: %v", err)
	}
	if len(councilContext.Decisions) != 1 || councilContext.Decisions[0] != "Ship the plan" {
		t.Errorf("Decisions = %v, want [\"Ship the plan\"]", councilContext.Decisions)
	}
	if len(councilContext.AntiPatterns) != 1 {
		t.Errorf("expected one anti-pattern lesson from the parse fallback, got %v", councilContext.AntiPatterns)
	}

	bobContext, err := store.PromptContext(ctx, "bob")
	if err != nil {
		t.Fatalf("PromptContext: %v", err)
	}
	if len(bobContext.RisksAndAssumptions) != 1 {
		t.Errorf("expected a reliability risk record for bob, got %v", bobContext.RisksAndAssumptions)
	}
}

func TestRecordSessionEndedByRoundLimitAddsOpenLoop(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordSession(ctx, SessionInput{
		SessionID:         "session-1",
		FinalResolution:   "No consensus reached",
		MemberIDs:         []string{"alice", "bob", "carol"},
		EndedByRoundLimit: true,
	})
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	councilContext, err := store.CouncilPromptContext(ctx)
	if err != nil {
		t.Fatalf("CouncilPromptContext: %v", err)
	}
	if len(councilContext.OpenLoops) != 1 {
		t.Errorf("expected one open loop from round-limit termination, got %v", councilContext.OpenLoops)
	}
}

func TestPruneKeepsBoundedRecordCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// perMemberBound and councilBound are both 80; each session
	// contributes one council decision record with a unique id, so
	// 100 sessions should leave exactly 80 council records.
	for i := 0; i < 100; i++ {
		err := store.RecordSession(ctx, SessionInput{
			SessionID:       sessionID(i),
			FinalResolution: "resolution",
			MemberIDs:       []string{"alice"},
		})
		if err != nil {
			t.Fatalf("RecordSession(%d): %v", i, err)
		}
	}

	conn, err := store.take(ctx)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	defer store.pool.Put(conn)

	records, err := store.activeCouncilRecords(conn)
	if err != nil {
		t.Fatalf("activeCouncilRecords: %v", err)
	}
	if len(records) > councilBound {
		t.Errorf("len(records) = %d, want <= %d", len(records), councilBound)
	}
}

func TestRenderMemberWritesFiles(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	memoryDir := t.TempDir()

	if err := store.RecordSession(ctx, SessionInput{
		SessionID:       "session-1",
		FinalResolution: "Ship it",
		MemberIDs:       []string{"alice"},
		LastMessageByMember: map[string]string{
			"alice": "Agreed.",
		},
	}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	if err := store.RenderMember(ctx, memoryDir, "alice", "facilitator", "You are the facilitator."); err != nil {
		t.Fatalf("RenderMember: %v", err)
	}

	for _, name := range []string{"MEMORY.json", "MEMORY.md", "AGENT.md"} {
		path := filepath.Join(memoryDir, "alice", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}

func sessionID(i int) string {
	return "session-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}
