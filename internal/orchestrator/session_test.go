// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/lib/clock"
)

func testConfig(t *testing.T, outputType council.OutputType) *council.Config {
	t.Helper()
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
				RequireSeconding:  true,
				MajorityThreshold: 0.5,
				AbstainCountsAsNo: true,
			},
			StopConditions: council.StopConditions{
				MaxRounds:         2,
				EndOnMajorityVote: true,
			},
			Fallback: council.Fallback{
				Resolution: "no motion passed within the round limit",
				Action:     council.FallbackEndSession,
			},
		}},
		Output:        council.OutputPolicy{Type: outputType},
		Documentation: council.DocumentationReviewPolicy{MaxRevisionRounds: 1},
		Storage:       council.StoragePolicy{RootDir: t.TempDir()},
		Execution:     council.ExecutionPolicy{RequireHumanApproval: true, DefaultExecutorProfile: "default"},
	}
}

func clientsFor(registry *modelclient.Registry, config *council.Config) map[string]modelclient.ModelClient {
	clients := make(map[string]modelclient.ModelClient, len(config.Members))
	for _, member := range config.Members {
		clients[member.ID] = registry.For(member.ID)
	}
	return clients
}

const leaderBallotFor = `{"candidateId":"alice","rationale":"most organized"}`

func leaderSummaryMessage(requiresExecution bool) string {
	if requiresExecution {
		return `{"summaryMarkdown":"# Summary\n\nAdopted plan A.","finalResolution":"Adopt plan A.","requiresExecution":true,"executionBrief":"Ship plan A."}`
	}
	return `{"summaryMarkdown":"# Summary\n\nAdopted plan A.","finalResolution":"Adopt plan A.","requiresExecution":false}`
}

const approveDraft = `{"ballot":"YES","rationale":"looks complete"}`
const rejectDraft = `{"ballot":"NO","rationale":"missing risks section"}`
const feedbackResponse = `{"criticalBlockers":[{"id":"B1","section":"risks","problem":"no risks listed","impact":"reviewers can't assess exposure","requiredChange":"add a risks section","severity":"blocker"}],"suggestedChanges":["tighten the intro"]}`

// S6: a full session with no documentation output — leader election,
// one phase that resolves by majority vote, and the leader summary —
// closes cleanly and produces the artifacts and memory-free result
// the caller expects.
func TestRunFullSessionWithoutDocumentation(t *testing.T) {
	t.Parallel()

	config := testConfig(t, council.OutputNone)
	registry := modelclient.NewRegistry()

	// Leader election: everyone votes for alice.
	registry.For("alice").Enqueue(leaderBallotFor)
	registry.For("bob").Enqueue(leaderBallotFor)
	registry.For("carol").Enqueue(leaderBallotFor)

	// Round 1: alice calls a motion, bob seconds, all three vote yes.
	registry.For("alice").Enqueue(`{"action":"CALL_VOTE","title":"Adopt plan A","text":"Proposal text.","decisionIfPass":"Adopt plan A."}`, `{"ballot":"YES","rationale":"agreed"}`)
	registry.For("bob").Enqueue(`{"second":true,"rationale":"agreed"}`, `{"ballot":"YES","rationale":"agreed"}`)
	registry.For("carol").Enqueue(`{"second":false,"rationale":"not yet"}`, `{"ballot":"YES","rationale":"agreed"}`)

	// Leader summary, no execution requested.
	registry.For("alice").Enqueue(leaderSummaryMessage(false))

	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	result, err := Run(context.Background(), config, clientsFor(registry, config), nil, clk, "Decide which plan to adopt.", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.LeaderID != "alice" {
		t.Errorf("LeaderID = %q, want alice", result.LeaderID)
	}
	if len(result.PhaseResults) != 1 {
		t.Fatalf("PhaseResults = %v, want 1 entry", result.PhaseResults)
	}
	if result.PhaseResults[0].EndedBy != protocol.EndedByMajorityVote {
		t.Errorf("EndedBy = %q, want MAJORITY_VOTE", result.PhaseResults[0].EndedBy)
	}
	if result.Summary.FinalResolution != "Adopt plan A." {
		t.Errorf("FinalResolution = %q", result.Summary.FinalResolution)
	}
	if result.Documentation != nil {
		t.Error("Documentation should be nil when output type is none")
	}
	if result.Execution != nil {
		t.Error("Execution should be nil when the summary does not request it")
	}

	if _, err := os.Stat(filepath.Join(result.SessionDir, "events.json")); err != nil {
		t.Errorf("events.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.SessionDir, "leader-summary.md")); err != nil {
		t.Errorf("leader-summary.md not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.SessionDir, "session.json")); err != nil {
		t.Errorf("session.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.SessionDir, "documentation.md")); err == nil {
		t.Error("documentation.md should not be written when output type is none")
	}
	if filepath.Base(filepath.Dir(result.SessionDir)) != "sessions" {
		t.Errorf("SessionDir = %q, want a sessions/<id> layout", result.SessionDir)
	}
}

// S6b: a session configured for documentation output runs the
// draft/review/revise loop after the phase graph closes, and the
// approved draft lands on disk.
func TestRunFullSessionWithDocumentationApproval(t *testing.T) {
	t.Parallel()

	config := testConfig(t, council.OutputDocumentation)
	registry := modelclient.NewRegistry()

	registry.For("alice").Enqueue(leaderBallotFor)
	registry.For("bob").Enqueue(leaderBallotFor)
	registry.For("carol").Enqueue(leaderBallotFor)

	registry.For("alice").Enqueue(`{"action":"CALL_VOTE","title":"Adopt plan A","text":"Proposal text.","decisionIfPass":"Adopt plan A."}`, `{"ballot":"YES","rationale":"agreed"}`)
	registry.For("bob").Enqueue(`{"second":true,"rationale":"agreed"}`, `{"ballot":"YES","rationale":"agreed"}`)
	registry.For("carol").Enqueue(`{"second":false,"rationale":"not yet"}`, `{"ballot":"YES","rationale":"agreed"}`)

	registry.For("alice").Enqueue(leaderSummaryMessage(true))

	// Documentation loop: the approval vote is full-council, so alice
	// (the leader and draft's author) also casts a ballot each round.
	// bob and carol reject the first draft with feedback; alice
	// revises; everyone approves the revision.
	registry.For("alice").Enqueue("# Draft\n\nPlan A adopted.", approveDraft, "# Draft\n\nPlan A adopted, with risks noted.", approveDraft)
	registry.For("bob").Enqueue(rejectDraft, feedbackResponse, approveDraft)
	registry.For("carol").Enqueue(rejectDraft, feedbackResponse, approveDraft)

	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	result, err := Run(context.Background(), config, clientsFor(registry, config), nil, clk, "Decide which plan to adopt.", true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Documentation == nil {
		t.Fatal("Documentation result is nil")
	}
	if !result.Documentation.Approved {
		t.Error("expected the revised draft to be approved")
	}
	if result.Documentation.Revisions != 1 {
		t.Errorf("Revisions = %d, want 1", result.Documentation.Revisions)
	}
	if result.Execution == nil {
		t.Fatal("expected an execution handoff since the summary requested one")
	}
	if !result.Execution.Approved {
		t.Error("expected execution to be approved since approveExecution was passed")
	}

	data, err := os.ReadFile(filepath.Join(result.SessionDir, "documentation.md"))
	if err != nil {
		t.Fatalf("reading documentation.md: %v", err)
	}
	if string(data) != "# Draft\n\nPlan A adopted, with risks noted." {
		t.Errorf("documentation.md = %q", string(data))
	}
}
