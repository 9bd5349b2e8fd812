// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"context"
	"testing"
	"time"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/eventlog"
	"github.com/council-engine/council/internal/memory"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/lib/clock"
)

func testConfig(maxRounds int, requireSeconding, endOnMajorityVote bool) *council.Config {
	return &council.Config{
		CouncilName: "Test Council",
		Purpose:     "decide things",
		Members: []council.Member{
			{ID: "alice", Name: "Alice", Role: "chair", SystemPrompt: "You are Alice.", Model: council.ModelReference{Provider: "mock", Model: "mock-1"}},
			{ID: "bob", Name: "Bob", Role: "member", SystemPrompt: "You are Bob.", Model: council.ModelReference{Provider: "mock", Model: "mock-1"}},
			{ID: "carol", Name: "Carol", Role: "member", SystemPrompt: "You are Carol.", Model: council.ModelReference{Provider: "mock", Model: "mock-1"}},
		},
		TurnOrder: []string{"alice", "bob", "carol"},
		SessionPolicy: council.SessionPolicy{
			EntryPhaseID:          "discuss",
			MaxPhaseTransitions:   12,
			PhaseContextVerbosity: council.VerbosityStandard,
		},
		Phases: []council.Phase{{
			ID:   "discuss",
			Goal: "reach a decision",
			Governance: council.Governance{
				RequireSeconding:  requireSeconding,
				MajorityThreshold: 0.5,
				AbstainCountsAsNo: true,
			},
			StopConditions: council.StopConditions{
				MaxRounds:         maxRounds,
				EndOnMajorityVote: endOnMajorityVote,
			},
			Fallback: council.Fallback{
				Resolution: "no motion passed within the round limit",
				Action:     council.FallbackEndSession,
			},
		}},
	}
}

func newTestSession(t *testing.T, config *council.Config, registry *modelclient.Registry) *Session {
	t.Helper()
	dir := t.TempDir()
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log, err := eventlog.New(fakeClock, "session-1", dir)
	if err != nil {
		t.Fatalf("eventlog.New: %v", err)
	}

	clients := make(map[string]modelclient.ModelClient)
	snapshots := make(map[string]memory.PromptContext)
	for _, member := range config.Members {
		clients[member.ID] = registry.For(member.ID)
		snapshots[member.ID] = memory.PromptContext{}
	}

	return NewSession(config, log, clients, snapshots)
}

const contributeMessage = `{"action":"CONTRIBUTE","message":"Let's keep discussing."}`

func callVoteMessage(title string) string {
	return `{"action":"CALL_VOTE","title":"` + title + `","text":"Proposal text.","decisionIfPass":"Adopt the proposal."}`
}

const secondYes = `{"second":true,"rationale":"agreed"}`
const secondNo = `{"second":false,"rationale":"not yet"}`
const voteYes = `{"ballot":"YES","rationale":"agreed"}`
const voteNo = `{"ballot":"NO","rationale":"disagree"}`

// S1: a motion called mid-round is seconded and passes, ending the
// phase immediately rather than exhausting the round budget.
func TestRunPhaseMotionPassesMidRound(t *testing.T) {
	t.Parallel()

	config := testConfig(5, true, true)
	registry := modelclient.NewRegistry()
	registry.For("alice").Enqueue(callVoteMessage("Adopt plan A"), voteYes)
	registry.For("bob").Enqueue(secondYes, voteYes)
	registry.For("carol").Enqueue(secondNo, voteNo)

	session := newTestSession(t, config, registry)
	result, err := RunPhase(context.Background(), session, config.Phases[0])
	if err != nil {
		t.Fatalf("RunPhase: %v", err)
	}

	if result.EndedBy != protocol.EndedByMajorityVote {
		t.Errorf("EndedBy = %q, want MAJORITY_VOTE", result.EndedBy)
	}
	if result.WinningMotion == nil || result.WinningMotion.Title != "Adopt plan A" {
		t.Errorf("WinningMotion = %+v", result.WinningMotion)
	}
	if result.RoundsCompleted != 1 {
		t.Errorf("RoundsCompleted = %d, want 1", result.RoundsCompleted)
	}

	events := session.Log.Events()
	voteCastCount := 0
	voteResultIndex := -1
	for i, event := range events {
		if event.Type == protocol.EventVoteCast {
			voteCastCount++
		}
		if event.Type == protocol.EventVoteResult {
			voteResultIndex = i
		}
	}
	if voteCastCount != 3 {
		t.Errorf("VOTE_CAST count = %d, want 3", voteCastCount)
	}
	// Blind voting: the tally (VOTE_RESULT) must come after every
	// ballot (VOTE_CAST) — fanOut joins all ballots before any is
	// recorded, and the tally is computed only once all are in.
	castBeforeResult := 0
	for i, event := range events {
		if i >= voteResultIndex {
			break
		}
		if event.Type == protocol.EventVoteCast {
			castBeforeResult++
		}
	}
	if castBeforeResult != 3 {
		t.Errorf("VOTE_CAST events before VOTE_RESULT = %d, want 3", castBeforeResult)
	}
}

// S2: a called motion with no seconder does not go to a vote and the
// round loop continues.
func TestRunPhaseMotionWithNoSeconderContinues(t *testing.T) {
	t.Parallel()

	config := testConfig(1, true, true)
	registry := modelclient.NewRegistry()
	registry.For("alice").Enqueue(callVoteMessage("Adopt plan B"))
	registry.For("bob").Enqueue(secondNo, contributeMessage)
	registry.For("carol").Enqueue(secondNo, contributeMessage)

	session := newTestSession(t, config, registry)
	result, err := RunPhase(context.Background(), session, config.Phases[0])
	if err != nil {
		t.Fatalf("RunPhase: %v", err)
	}

	if result.EndedBy != protocol.EndedByRoundLimit {
		t.Errorf("EndedBy = %q, want ROUND_LIMIT", result.EndedBy)
	}

	sawNotSeconded := false
	sawVoteCast := false
	for _, event := range session.Log.Events() {
		if event.Type == protocol.EventMotionNotSeconded {
			sawNotSeconded = true
		}
		if event.Type == protocol.EventVoteCast {
			sawVoteCast = true
		}
	}
	if !sawNotSeconded {
		t.Error("expected a MOTION_NOT_SECONDED event")
	}
	if sawVoteCast {
		t.Error("an unseconded motion must never reach a vote")
	}
}

// S3: no motion is ever called, so the phase exhausts its round
// budget and falls back to its configured resolution.
func TestRunPhaseRoundLimitFallback(t *testing.T) {
	t.Parallel()

	config := testConfig(2, true, true)
	registry := modelclient.NewRegistry()
	for _, id := range []string{"alice", "bob", "carol"} {
		registry.For(id).Enqueue(contributeMessage, contributeMessage)
	}

	session := newTestSession(t, config, registry)
	result, err := RunPhase(context.Background(), session, config.Phases[0])
	if err != nil {
		t.Fatalf("RunPhase: %v", err)
	}

	if result.EndedBy != protocol.EndedByRoundLimit {
		t.Errorf("EndedBy = %q, want ROUND_LIMIT", result.EndedBy)
	}
	if result.FinalResolution != config.Phases[0].Fallback.Resolution {
		t.Errorf("FinalResolution = %q, want fallback resolution", result.FinalResolution)
	}

	sawRoundLimitReached := false
	for _, event := range session.Log.Events() {
		if event.Type == protocol.EventRoundLimitReached {
			sawRoundLimitReached = true
		}
	}
	if !sawRoundLimitReached {
		t.Error("expected a ROUND_LIMIT_REACHED event")
	}
}

// S4: an unparseable model response is converted deterministically to
// PASS instead of failing the session, and the member is flagged for
// the memory store.
func TestRunPhaseParseFallbackContinuesSession(t *testing.T) {
	t.Parallel()

	config := testConfig(1, true, true)
	registry := modelclient.NewRegistry()
	registry.For("alice").Enqueue("this is not json")
	registry.For("bob").Enqueue(contributeMessage)
	registry.For("carol").Enqueue(contributeMessage)

	session := newTestSession(t, config, registry)
	result, err := RunPhase(context.Background(), session, config.Phases[0])
	if err != nil {
		t.Fatalf("RunPhase: %v", err)
	}
	if result.EndedBy != protocol.EndedByRoundLimit {
		t.Errorf("EndedBy = %q, want ROUND_LIMIT", result.EndedBy)
	}
	if !session.ParseFallbackMembers["alice"] {
		t.Error("expected alice to be flagged as a parse-fallback member")
	}

	sawPassForAlice := false
	for _, event := range session.Log.Events() {
		if event.Type == protocol.EventPassRecorded && event.ActorID == "alice" {
			sawPassForAlice = true
		}
	}
	if !sawPassForAlice {
		t.Error("expected alice's unparseable turn to surface as a PASS_RECORDED event")
	}
}

// Turn order determinism and round-robin coverage: every member gets
// exactly one turn per round when nobody calls a motion.
func TestRunPhaseRoundRobinCoversEveryMember(t *testing.T) {
	t.Parallel()

	config := testConfig(1, true, true)
	registry := modelclient.NewRegistry()
	for _, id := range []string{"alice", "bob", "carol"} {
		registry.For(id).Enqueue(contributeMessage)
	}

	session := newTestSession(t, config, registry)
	if _, err := RunPhase(context.Background(), session, config.Phases[0]); err != nil {
		t.Fatalf("RunPhase: %v", err)
	}

	var actorsInOrder []string
	for _, event := range session.Log.Events() {
		if event.Type == protocol.EventTurnAction {
			actorsInOrder = append(actorsInOrder, event.ActorID)
		}
	}
	want := []string{"alice", "bob", "carol"}
	if len(actorsInOrder) != len(want) {
		t.Fatalf("actorsInOrder = %v, want %v", actorsInOrder, want)
	}
	for i, id := range want {
		if actorsInOrder[i] != id {
			t.Errorf("actorsInOrder[%d] = %q, want %q", i, actorsInOrder[i], id)
		}
	}
}
