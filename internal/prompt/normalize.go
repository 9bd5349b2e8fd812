// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"fmt"

	"github.com/council-engine/council/internal/protocol"
)

const fallbackNote = "Auto-converted to PASS to preserve deterministic flow."

// NormalizeTurnAction maps a turn-prompt response into a TurnAction,
// applying the deterministic PASS fallback on any parse or validation
// failure. The returned bool reports whether the fallback fired, so
// the phase runner can flag the member for a reliability memory
// record.
func NormalizeTurnAction(wire *turnActionWire, parseErr *protocol.ParseErrorEnvelope) (protocol.TurnAction, bool) {
	if parseErr != nil {
		return fallbackTurnAction(fmt.Sprintf("Model JSON parse error: %s", parseErr.Message)), true
	}
	if wire == nil {
		return fallbackTurnAction("Invalid response format: empty response."), true
	}

	switch wire.Action {
	case "CONTRIBUTE":
		if wire.Message == "" {
			return fallbackTurnAction("Invalid response format: CONTRIBUTE requires a non-empty message."), true
		}
		return protocol.TurnAction{Kind: protocol.ActionContribute, Message: wire.Message}, false

	case "PASS":
		if wire.Reason == "" {
			return fallbackTurnAction("Invalid response format: PASS requires a reason."), true
		}
		return protocol.TurnAction{Kind: protocol.ActionPass, Reason: wire.Reason, Note: wire.Note}, false

	case "CALL_VOTE":
		if wire.Title == "" || wire.Text == "" || wire.DecisionIfPass == "" {
			return fallbackTurnAction("Invalid response format: CALL_VOTE requires title, text, and decisionIfPass."), true
		}
		return protocol.TurnAction{
			Kind:           protocol.ActionCallVote,
			Title:          wire.Title,
			Text:           wire.Text,
			DecisionIfPass: wire.DecisionIfPass,
		}, false

	default:
		return fallbackTurnAction("Invalid response format: unrecognized action \"" + wire.Action + "\"."), true
	}
}

func fallbackTurnAction(reason string) protocol.TurnAction {
	return protocol.TurnAction{Kind: protocol.ActionPass, Reason: reason, Note: fallbackNote}
}

// NormalizeSecondingResponse maps a seconding-prompt response,
// defaulting to second=false on any failure.
func NormalizeSecondingResponse(wire *secondingResponseWire, parseErr *protocol.ParseErrorEnvelope) (protocol.SecondingResponse, bool) {
	if parseErr != nil {
		return protocol.SecondingResponse{Second: false, Rationale: fmt.Sprintf("Model JSON parse error: %s", parseErr.Message)}, true
	}
	if wire == nil {
		return protocol.SecondingResponse{Second: false, Rationale: "Invalid response format: empty response."}, true
	}
	return protocol.SecondingResponse{Second: wire.Second, Rationale: wire.Rationale}, false
}

// NormalizeVoteResponse maps a vote-prompt response, defaulting to
// ABSTAIN on any failure.
func NormalizeVoteResponse(wire *voteResponseWire, parseErr *protocol.ParseErrorEnvelope) (protocol.VoteResponse, bool) {
	if parseErr != nil {
		return protocol.VoteResponse{Ballot: protocol.BallotAbstain, Rationale: fmt.Sprintf("Model JSON parse error: %s", parseErr.Message)}, true
	}
	if wire == nil {
		return protocol.VoteResponse{Ballot: protocol.BallotAbstain, Rationale: "Invalid response format: empty response."}, true
	}

	switch ballot := protocol.BallotValue(wire.Ballot); ballot {
	case protocol.BallotYes, protocol.BallotNo, protocol.BallotAbstain:
		return protocol.VoteResponse{Ballot: ballot, Rationale: wire.Rationale}, false
	default:
		return protocol.VoteResponse{
			Ballot:    protocol.BallotAbstain,
			Rationale: "Invalid response format: unrecognized ballot value \"" + wire.Ballot + "\".",
		}, true
	}
}

// NormalizeLeaderElectionBallot maps a leader-election response,
// defaulting to the first member id in declaration order on failure.
func NormalizeLeaderElectionBallot(wire *leaderElectionBallotWire, parseErr *protocol.ParseErrorEnvelope, memberIDsInOrder []string) (protocol.LeaderElectionBallot, bool) {
	if parseErr == nil && wire != nil && wire.CandidateID != "" {
		return protocol.LeaderElectionBallot{CandidateID: wire.CandidateID, Rationale: wire.Rationale}, false
	}

	var fallbackID string
	if len(memberIDsInOrder) > 0 {
		fallbackID = memberIDsInOrder[0]
	}
	return protocol.LeaderElectionBallot{
		CandidateID: fallbackID,
		Rationale:   "Invalid response format; defaulted to the first member in declaration order.",
	}, true
}

// NormalizeLeaderSummary maps the leader's closing-statement response,
// synthesizing a fallback that points at the final resolution on
// failure.
func NormalizeLeaderSummary(wire *leaderSummaryWire, parseErr *protocol.ParseErrorEnvelope, finalResolutionFallback string) (protocol.LeaderSummary, bool) {
	if parseErr != nil || wire == nil {
		return protocol.LeaderSummary{
			SummaryMarkdown: "# Council Summary\n\nThe council's deliberation concluded with the following resolution:\n\n" + finalResolutionFallback,
			FinalResolution: finalResolutionFallback,
		}, true
	}
	return protocol.LeaderSummary{
		SummaryMarkdown:   wire.SummaryMarkdown,
		FinalResolution:   wire.FinalResolution,
		RequiresExecution: wire.RequiresExecution,
		ExecutionBrief:    wire.ExecutionBrief,
	}, false
}

// CriticalBlocker is one structured objection raised against a
// documentation draft.
type CriticalBlocker struct {
	ID             string `json:"id"`
	Section        string `json:"section"`
	Problem        string `json:"problem"`
	Impact         string `json:"impact"`
	RequiredChange string `json:"requiredChange"`
	Severity       string `json:"severity"`
}

// DocumentFeedback is one reviewer's structured response to a
// documentation draft.
type DocumentFeedback struct {
	CriticalBlockers []CriticalBlocker
	SuggestedChanges []string
}

const (
	maxCriticalBlockers = 5
	maxSuggestedChanges = 6
)

// NormalizeDocumentFeedback maps a reviewer's feedback response,
// dropping malformed blocker entries and inserting a synthetic B0
// blocker when the response is entirely unparseable, so the leader
// can see that a reviewer's objection was lost rather than silently
// treating the reviewer as having no objection.
func NormalizeDocumentFeedback(wire *documentFeedbackWire, parseErr *protocol.ParseErrorEnvelope) DocumentFeedback {
	if parseErr != nil || wire == nil {
		return DocumentFeedback{
			CriticalBlockers: []CriticalBlocker{{
				ID:             "B0",
				Problem:        "Reviewer response was unparseable.",
				Impact:         "The reviewer's actual objection, if any, was lost.",
				RequiredChange: "Re-request feedback from this reviewer or treat the draft as unresolved.",
				Severity:       "blocker",
			}},
		}
	}

	var blockers []CriticalBlocker
	for _, blocker := range wire.CriticalBlockers {
		if blocker.ID == "" || blocker.Problem == "" {
			continue
		}
		blockers = append(blockers, CriticalBlocker(blocker))
		if len(blockers) >= maxCriticalBlockers {
			break
		}
	}

	changes := wire.SuggestedChanges
	if len(changes) > maxSuggestedChanges {
		changes = changes[:maxSuggestedChanges]
	}

	return DocumentFeedback{CriticalBlockers: blockers, SuggestedChanges: changes}
}
