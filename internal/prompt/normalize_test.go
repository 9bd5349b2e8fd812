// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"strings"
	"testing"

	"github.com/council-engine/council/internal/protocol"
)

func TestNormalizeTurnActionParseFallback(t *testing.T) {
	t.Parallel()

	envelope := protocol.NewParseErrorEnvelope("unexpected token", "lol not json")
	action, usedFallback := NormalizeTurnAction(nil, envelope)

	if !usedFallback {
		t.Fatal("expected usedFallback = true")
	}
	if action.Kind != protocol.ActionPass {
		t.Errorf("Kind = %q, want PASS", action.Kind)
	}
	if !strings.HasPrefix(action.Reason, "Model JSON parse error") {
		t.Errorf("Reason = %q, want prefix \"Model JSON parse error\"", action.Reason)
	}
	if action.Note != fallbackNote {
		t.Errorf("Note = %q, want %q", action.Note, fallbackNote)
	}
}

func TestNormalizeTurnActionContribute(t *testing.T) {
	t.Parallel()

	wire := &turnActionWire{Action: "CONTRIBUTE", Message: "I propose we proceed."}
	action, usedFallback := NormalizeTurnAction(wire, nil)

	if usedFallback {
		t.Fatal("did not expect fallback for a well-formed CONTRIBUTE")
	}
	if action.Kind != protocol.ActionContribute || action.Message != "I propose we proceed." {
		t.Errorf("action = %+v", action)
	}
}

func TestNormalizeTurnActionUnknownActionFallsBack(t *testing.T) {
	t.Parallel()

	wire := &turnActionWire{Action: "SHOUT"}
	action, usedFallback := NormalizeTurnAction(wire, nil)

	if !usedFallback {
		t.Fatal("expected fallback for an unrecognized action")
	}
	if action.Kind != protocol.ActionPass {
		t.Errorf("Kind = %q, want PASS", action.Kind)
	}
}

func TestNormalizeVoteResponseParseFallbackAbstains(t *testing.T) {
	t.Parallel()

	envelope := protocol.NewParseErrorEnvelope("bad json", "garbage")
	response, usedFallback := NormalizeVoteResponse(nil, envelope)

	if !usedFallback {
		t.Fatal("expected usedFallback = true")
	}
	if response.Ballot != protocol.BallotAbstain {
		t.Errorf("Ballot = %q, want ABSTAIN", response.Ballot)
	}
}

func TestNormalizeVoteResponseUnknownBallotFallsBack(t *testing.T) {
	t.Parallel()

	wire := &voteResponseWire{Ballot: "MAYBE"}
	response, usedFallback := NormalizeVoteResponse(wire, nil)

	if !usedFallback || response.Ballot != protocol.BallotAbstain {
		t.Errorf("response = %+v, usedFallback = %v", response, usedFallback)
	}
}

func TestNormalizeSecondingResponseParseFallback(t *testing.T) {
	t.Parallel()

	envelope := protocol.NewParseErrorEnvelope("bad json", "garbage")
	response, usedFallback := NormalizeSecondingResponse(nil, envelope)

	if !usedFallback || response.Second {
		t.Errorf("response = %+v, usedFallback = %v, want second=false", response, usedFallback)
	}
}

func TestNormalizeLeaderElectionBallotFallsBackToFirstMember(t *testing.T) {
	t.Parallel()

	members := []string{"alice", "bob", "carol"}
	ballot, usedFallback := NormalizeLeaderElectionBallot(nil, protocol.NewParseErrorEnvelope("bad json", "x"), members)

	if !usedFallback {
		t.Fatal("expected usedFallback = true")
	}
	if ballot.CandidateID != "alice" {
		t.Errorf("CandidateID = %q, want alice", ballot.CandidateID)
	}
}

func TestNormalizeLeaderSummaryFallback(t *testing.T) {
	t.Parallel()

	summary, usedFallback := NormalizeLeaderSummary(nil, protocol.NewParseErrorEnvelope("bad json", "x"), "Ship the plan")

	if !usedFallback {
		t.Fatal("expected usedFallback = true")
	}
	if summary.FinalResolution != "Ship the plan" {
		t.Errorf("FinalResolution = %q, want \"Ship the plan\"", summary.FinalResolution)
	}
	if !strings.Contains(summary.SummaryMarkdown, "Ship the plan") {
		t.Errorf("SummaryMarkdown does not mention the final resolution: %q", summary.SummaryMarkdown)
	}
}

func TestNormalizeDocumentFeedbackUnparseableInsertsB0(t *testing.T) {
	t.Parallel()

	feedback := NormalizeDocumentFeedback(nil, protocol.NewParseErrorEnvelope("bad json", "x"))

	if len(feedback.CriticalBlockers) != 1 || feedback.CriticalBlockers[0].ID != "B0" {
		t.Errorf("CriticalBlockers = %+v, want a single synthetic B0 entry", feedback.CriticalBlockers)
	}
}

func TestNormalizeDocumentFeedbackDropsMalformedAndCaps(t *testing.T) {
	t.Parallel()

	wire := &documentFeedbackWire{
		CriticalBlockers: []criticalBlockerWire{
			{ID: "", Problem: "missing id, should be dropped"},
			{ID: "B1", Problem: "p1"},
			{ID: "B2", Problem: "p2"},
			{ID: "B3", Problem: "p3"},
			{ID: "B4", Problem: "p4"},
			{ID: "B5", Problem: "p5"},
			{ID: "B6", Problem: "p6, should be truncated by the cap"},
		},
		SuggestedChanges: []string{"a", "b", "c", "d", "e", "f", "g"},
	}

	feedback := NormalizeDocumentFeedback(wire, nil)

	if len(feedback.CriticalBlockers) != maxCriticalBlockers {
		t.Errorf("len(CriticalBlockers) = %d, want %d", len(feedback.CriticalBlockers), maxCriticalBlockers)
	}
	if len(feedback.SuggestedChanges) != maxSuggestedChanges {
		t.Errorf("len(SuggestedChanges) = %d, want %d", len(feedback.SuggestedChanges), maxSuggestedChanges)
	}
}
