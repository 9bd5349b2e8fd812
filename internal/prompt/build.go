// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"fmt"
	"strings"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/memory"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/internal/transition"
)

// councilIdentity renders the shared opening block every prompt to
// every member carries: who the council is and who this member is.
func councilIdentity(config *council.Config, member council.Member) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "You are %s, a member of the council \"%s\".\n", member.Name, config.CouncilName)
	fmt.Fprintf(&builder, "Council purpose: %s\n", config.Purpose)
	fmt.Fprintf(&builder, "Your role: %s\n", member.Role)
	if len(member.Traits) > 0 {
		fmt.Fprintf(&builder, "Your traits: %s\n", strings.Join(member.Traits, ", "))
	}
	builder.WriteString(member.SystemPrompt)
	builder.WriteByte('\n')
	return builder.String()
}

// phaseIdentity renders the current phase's identity and the
// phase-context packet, at the verbosity configured for the session.
func phaseIdentity(phase council.Phase, packet transition.ContextPacket) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "\nCurrent phase: %s\nPhase goal: %s\n", phase.ID, phase.Goal)
	if len(phase.PromptGuidance) > 0 {
		builder.WriteString("Guidance:\n")
		for _, line := range phase.PromptGuidance {
			fmt.Fprintf(&builder, "- %s\n", line)
		}
	}
	if len(packet.PendingDeliverables) > 0 {
		fmt.Fprintf(&builder, "Pending required deliverables: %s\n", strings.Join(packet.PendingDeliverables, ", "))
	}
	if len(packet.EvidenceGaps) > 0 {
		fmt.Fprintf(&builder, "Evidence gaps: %s\n", strings.Join(packet.EvidenceGaps, "; "))
	}
	if packet.GraphDigest != "" {
		fmt.Fprintf(&builder, "Phase graph:\n%s", packet.GraphDigest)
	}
	if packet.PriorPhaseSummary != "" {
		fmt.Fprintf(&builder, "Prior phase resolution: %s\n", packet.PriorPhaseSummary)
	}
	return builder.String()
}

// memorySnapshot renders a member's bounded prompt-context memory.
func memorySnapshot(snapshot memory.PromptContext) string {
	var builder strings.Builder
	writeBucket := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&builder, "%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(&builder, "- %s\n", item)
		}
	}
	writeBucket("Known constraints", snapshot.Constraints)
	writeBucket("Prior decisions", snapshot.Decisions)
	writeBucket("Risks and assumptions", snapshot.RisksAndAssumptions)
	writeBucket("Open loops", snapshot.OpenLoops)
	writeBucket("Preferences", snapshot.Preferences)
	writeBucket("Anti-patterns to avoid", snapshot.AntiPatterns)
	if builder.Len() == 0 {
		return ""
	}
	return "\nMemory from prior sessions:\n" + builder.String()
}

func transcriptWindow(window []string) string {
	if len(window) == 0 {
		return ""
	}
	return "\nRecent transcript:\n" + strings.Join(window, "\n") + "\n"
}

const turnActionSchema = `Respond with a single line of JSON matching exactly one of these shapes (no other text, no markdown fences, no literal newlines inside string values):
{"action":"CONTRIBUTE","message":"<your contribution, max 2000 chars>"}
{"action":"PASS","reason":"<max 300 chars>","note":"<optional, max 300 chars>"}
{"action":"CALL_VOTE","title":"<max 120 chars>","text":"<max 2000 chars>","decisionIfPass":"<max 500 chars>"}`

// BuildTurnPrompt renders the DISCUSSION-state prompt for one speaker.
func BuildTurnPrompt(config *council.Config, member council.Member, phase council.Phase, packet transition.ContextPacket, round, remainingTurns int, window []string, snapshot memory.PromptContext) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	builder.WriteString(phaseIdentity(phase, packet))
	fmt.Fprintf(&builder, "\nRound %d of %d. You have %d more turn(s) in this phase if no motion passes.\n", round, phase.StopConditions.MaxRounds, remainingTurns)
	builder.WriteString(transcriptWindow(window))
	builder.WriteString(memorySnapshot(snapshot))
	builder.WriteString("\nIt is your turn. Choose one action: contribute a message, pass, or call a vote on a motion.\n\n")
	builder.WriteString(turnActionSchema)

	return system, builder.String()
}

const secondingResponseSchema = `Respond with a single line of JSON, no other text:
{"second":true|false,"rationale":"<max 300 chars>"}`

// BuildSecondingPrompt renders the SECONDING-state prompt for one
// non-caller member.
func BuildSecondingPrompt(config *council.Config, member council.Member, phase council.Phase, motion protocol.Motion) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	fmt.Fprintf(&builder, "\nA motion has been called in phase \"%s\":\n\nTitle: %s\nText: %s\nIf passed: %s\n\n", phase.ID, motion.Title, motion.Text, motion.DecisionIfPass)
	builder.WriteString("Will you second this motion so it can proceed to a vote?\n\n")
	builder.WriteString(secondingResponseSchema)

	return system, builder.String()
}

const voteResponseSchema = `Respond with a single line of JSON, no other text:
{"ballot":"YES"|"NO"|"ABSTAIN","rationale":"<max 300 chars>"}`

// BuildVotePrompt renders the VOTING-state prompt for one member,
// including the caller.
func BuildVotePrompt(config *council.Config, member council.Member, phase council.Phase, motion protocol.Motion) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	fmt.Fprintf(&builder, "\nMotion \"%s\" has been seconded and is now open for a vote in phase \"%s\":\n\nText: %s\nIf passed: %s\n\n", motion.Title, phase.ID, motion.Text, motion.DecisionIfPass)
	builder.WriteString("Cast your ballot.\n\n")
	builder.WriteString(voteResponseSchema)

	return system, builder.String()
}

const leaderElectionBallotSchema = `Respond with a single line of JSON, no other text:
{"candidateId":"<one of the listed member ids>","rationale":"<max 300 chars>"}`

// BuildLeaderElectionPrompt renders the prompt asking one member to
// nominate a leader for the session.
func BuildLeaderElectionPrompt(config *council.Config, member council.Member) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	builder.WriteString("\nBefore deliberation begins, the council must elect a leader who will synthesize its final resolution.\n\nCandidates:\n")
	for _, candidate := range config.Members {
		fmt.Fprintf(&builder, "- %s (%s): %s\n", candidate.ID, candidate.Name, candidate.Role)
	}
	builder.WriteString("\nCast your leadership ballot.\n\n")
	builder.WriteString(leaderElectionBallotSchema)

	return system, builder.String()
}

const leaderSummarySchema = `Respond with a single line of JSON, no other text:
{"summaryMarkdown":"<markdown, max 4000 chars, escape internal newlines as \n>","finalResolution":"<max 1000 chars>","requiresExecution":true|false,"executionBrief":"<max 2000 chars, empty string if requiresExecution is false>"}`

// BuildLeaderSummaryPrompt renders the prompt the elected leader
// answers once all phases have completed.
func BuildLeaderSummaryPrompt(config *council.Config, leader council.Member, results []protocol.PhaseResult) (system, user string) {
	system = councilIdentity(config, leader)

	var builder strings.Builder
	builder.WriteString("\nAs the elected leader, summarize this council's deliberation.\n\nPhase results:\n")
	for _, result := range results {
		fmt.Fprintf(&builder, "- %s (%s): ended by %s, resolution: %s\n", result.PhaseID, result.PhaseGoal, result.EndedBy, result.FinalResolution)
	}
	builder.WriteString("\nProduce a closing summary and state whether the resolution requires execution.\n\n")
	builder.WriteString(leaderSummarySchema)

	return system, builder.String()
}

// BuildDocumentationDraftPrompt renders the plain-text (not JSON)
// prompt the leader answers to produce the first documentation draft.
func BuildDocumentationDraftPrompt(config *council.Config, leader council.Member, results []protocol.PhaseResult) (system, user string) {
	system = councilIdentity(config, leader)

	var builder strings.Builder
	builder.WriteString("\nWrite the council's documentation deliverable in full markdown prose based on its deliberation.\n\nPhase results:\n")
	for _, result := range results {
		fmt.Fprintf(&builder, "- %s: %s\n", result.PhaseID, result.FinalResolution)
	}
	builder.WriteString("\nRespond with the complete markdown document only, no surrounding commentary.\n")

	return system, builder.String()
}

// BuildDocumentationRevisionPrompt renders the prompt the leader
// answers to revise a rejected draft using structured reviewer
// feedback.
func BuildDocumentationRevisionPrompt(config *council.Config, leader council.Member, priorDraft string, feedbackByReviewer map[string]DocumentFeedback) (system, user string) {
	system = councilIdentity(config, leader)

	var builder strings.Builder
	builder.WriteString("\nThe previous documentation draft was not approved. Revise it using the feedback below.\n\nPrevious draft:\n")
	builder.WriteString(priorDraft)
	builder.WriteString("\n\nReviewer feedback:\n")
	for reviewerID, feedback := range feedbackByReviewer {
		fmt.Fprintf(&builder, "\nFrom %s:\n", reviewerID)
		for _, blocker := range feedback.CriticalBlockers {
			fmt.Fprintf(&builder, "- [%s/%s] %s -- required change: %s\n", blocker.ID, blocker.Severity, blocker.Problem, blocker.RequiredChange)
		}
		for _, change := range feedback.SuggestedChanges {
			fmt.Fprintf(&builder, "- suggestion: %s\n", change)
		}
	}
	builder.WriteString("\nRespond with the complete revised markdown document only, no surrounding commentary.\n")

	return system, builder.String()
}

const documentApprovalSchema = `Respond with a single line of JSON, no other text:
{"ballot":"YES"|"NO"|"ABSTAIN","rationale":"<max 300 chars>"}`

// BuildDocumentApprovalPrompt renders the vote prompt one reviewer
// answers for a documentation draft.
func BuildDocumentApprovalPrompt(config *council.Config, member council.Member, draft string, revision int) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	fmt.Fprintf(&builder, "\nReview documentation draft v%d and vote on whether to approve it as final.\n\nDraft:\n%s\n\n", revision, draft)
	builder.WriteString(documentApprovalSchema)

	return system, builder.String()
}

const documentFeedbackSchema = `Respond with a single line of JSON, no other text:
{"criticalBlockers":[{"id":"<Bn>","section":"<section name>","problem":"<max 300 chars>","impact":"<max 300 chars>","requiredChange":"<max 300 chars>","severity":"blocker"|"major"|"minor"}],"suggestedChanges":["<max 200 chars each>"]}
Include at most 5 criticalBlockers and 6 suggestedChanges.`

// BuildDocumentFeedbackPrompt renders the prompt a reviewer who voted
// against approval answers to explain why.
func BuildDocumentFeedbackPrompt(config *council.Config, member council.Member, draft string, revision int) (system, user string) {
	system = councilIdentity(config, member)

	var builder strings.Builder
	fmt.Fprintf(&builder, "\nYou voted against approving documentation draft v%d. Provide structured feedback so the leader can revise it.\n\nDraft:\n%s\n\n", revision, draft)
	builder.WriteString(documentFeedbackSchema)

	return system, builder.String()
}
