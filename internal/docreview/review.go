// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package docreview drives the documentation output loop: the elected
// leader drafts, the full council votes to approve, dissenters'
// structured feedback is fanned out and folded into a revision, and
// the cycle repeats until approved or the revision budget runs out.
// Every draft and every round's review feedback is persisted to disk
// as it is produced, alongside the events the loop appends to the
// session log.
package docreview

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/council-engine/council/internal/concurrency"
	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/eventlog"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/prompt"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/internal/vote"
)

// Result is what the documentation loop hands back to the orchestrator.
type Result struct {
	FinalDraft string
	Approved   bool
	Revisions  int
}

type approvalOutcome struct {
	memberID string
	response protocol.VoteResponse
	err      error
}

type feedbackOutcome struct {
	memberID string
	feedback prompt.DocumentFeedback
	err      error
}

// Run drives the draft/review/revise cycle to completion. leaderID
// must be a member of config.Members. The approval vote is a
// full-council vote — the leader casts a ballot on its own draft the
// same way every other member does, just like a called motion's vote
// includes its own proposer. The loop runs at most
// config.Documentation.MaxRevisionRounds revisions after the initial
// draft; if the final draft is still rejected when the budget runs
// out, Result.Approved is false and Result.FinalDraft is the last
// draft produced. Every draft and round of review feedback is
// persisted under sessionDir as it is produced.
func Run(ctx context.Context, config *council.Config, log *eventlog.Log, clients map[string]modelclient.ModelClient, leaderID string, results []protocol.PhaseResult, sessionDir string) (Result, error) {
	leader := memberByID(config, leaderID)
	voterIDs := memberIDs(config)

	system, user := prompt.BuildDocumentationDraftPrompt(config, leader, results)
	draft, err := clients[leaderID].CompleteText(ctx, system, user, completionOptions(leader))
	if err != nil {
		return Result{}, fmt.Errorf("docreview: initial draft: %w", err)
	}
	if err := persistDraft(sessionDir, 1, draft); err != nil {
		return Result{}, err
	}
	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventDocumentDraftWritten,
		ActorID: leaderID,
		Payload: draft,
	}); err != nil {
		return Result{}, err
	}

	revision := 0
	var lastFeedback map[string]prompt.DocumentFeedback
	for {
		version := revision + 1

		approved, rejectedBy, err := runApproval(ctx, config, log, clients, voterIDs, draft, revision)
		if err != nil {
			return Result{}, err
		}

		structuralGaps := validateDraftStructure(config, results, draft)
		if approved && len(structuralGaps) == 0 {
			return Result{FinalDraft: draft, Approved: true, Revisions: revision}, nil
		}

		// With the revision budget spent no reviewer is asked for
		// feedback; the blockers left open are the previous round's.
		budgetSpent := revision >= config.Documentation.MaxRevisionRounds
		reviewerIDs := rejectedBy
		if budgetSpent {
			reviewerIDs = nil
		}
		feedbackByReviewer, err := collectFeedback(ctx, config, clients, reviewerIDs, draft, revision)
		if err != nil {
			return Result{}, err
		}
		if len(structuralGaps) > 0 {
			feedbackByReviewer["structure"] = structuralFeedback(structuralGaps)
		}
		if err := persistReview(sessionDir, version, feedbackByReviewer); err != nil {
			return Result{}, err
		}

		if budgetSpent {
			for id, feedback := range lastFeedback {
				if _, ok := feedbackByReviewer[id]; !ok && id != "structure" {
					feedbackByReviewer[id] = feedback
				}
			}
			if err := persistUnapproved(sessionDir, draft, feedbackByReviewer); err != nil {
				return Result{}, err
			}
			return Result{FinalDraft: draft, Approved: false, Revisions: revision}, nil
		}

		lastFeedback = feedbackByReviewer
		revision++
		system, user := prompt.BuildDocumentationRevisionPrompt(config, leader, draft, feedbackByReviewer)
		revised, err := clients[leaderID].CompleteText(ctx, system, user, completionOptions(leader))
		if err != nil {
			return Result{}, fmt.Errorf("docreview: revision %d: %w", revision, err)
		}
		draft = revised
		if err := persistDraft(sessionDir, revision+1, draft); err != nil {
			return Result{}, err
		}
		if _, err := log.Append(protocol.Event{
			Type:    protocol.EventDocumentRevisionWritten,
			Round:   revision,
			ActorID: leaderID,
			Payload: draft,
		}); err != nil {
			return Result{}, err
		}
	}
}

// runApproval fans the approval vote out to every member, including
// the leader whose draft is under review, joins before recording
// anything, and tallies against the full council size — the same
// full-council, abstain-counts-as-no shape a called motion's vote
// uses. The members who voted against approval are returned so the
// caller can decide whether it is worth fanning out for their
// structured feedback — no point asking if the revision budget is
// already spent.
func runApproval(ctx context.Context, config *council.Config, log *eventlog.Log, clients map[string]modelclient.ModelClient, voterIDs []string, draft string, revision int) (bool, []string, error) {
	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventDocumentApprovalCalled,
		Round:   revision,
		Payload: draft,
	}); err != nil {
		return false, nil, err
	}

	outcomes := concurrency.FanOut(voterIDs, func(id string) approvalOutcome {
		member := memberByID(config, id)
		system, user := prompt.BuildDocumentApprovalPrompt(config, member, draft, revision)
		response, _, err := prompt.CompleteDocumentApproval(ctx, clients[id], system, user, completionOptions(member))
		return approvalOutcome{memberID: id, response: response, err: err}
	})

	var ballots []protocol.Ballot
	var rejectedBy []string
	for _, outcome := range outcomes {
		if outcome.err != nil {
			return false, nil, fmt.Errorf("docreview: approval vote from %s: %w", outcome.memberID, outcome.err)
		}
		ballots = append(ballots, protocol.Ballot{MemberID: outcome.memberID, Value: outcome.response.Ballot, Rationale: outcome.response.Rationale})
		if outcome.response.Ballot != protocol.BallotYes {
			rejectedBy = append(rejectedBy, outcome.memberID)
		}
	}

	// Documentation approval always requires a strict council majority
	// with abstain counting as no: a deliverable meant to represent the
	// council's position should never ship on a plurality.
	result := vote.Tally(ballots, len(config.Members), 0.5, true)
	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventDocumentApprovalResult,
		Round:   revision,
		Payload: result,
	}); err != nil {
		return false, nil, err
	}

	return result.Passed, rejectedBy, nil
}

func collectFeedback(ctx context.Context, config *council.Config, clients map[string]modelclient.ModelClient, reviewerIDs []string, draft string, revision int) (map[string]prompt.DocumentFeedback, error) {
	outcomes := concurrency.FanOut(reviewerIDs, func(id string) feedbackOutcome {
		member := memberByID(config, id)
		system, user := prompt.BuildDocumentFeedbackPrompt(config, member, draft, revision)
		feedback, err := prompt.CompleteDocumentFeedback(ctx, clients[id], system, user, completionOptions(member))
		return feedbackOutcome{memberID: id, feedback: feedback, err: err}
	})

	feedbackByReviewer := make(map[string]prompt.DocumentFeedback, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			return nil, fmt.Errorf("docreview: feedback from %s: %w", outcome.memberID, outcome.err)
		}
		feedbackByReviewer[outcome.memberID] = outcome.feedback
	}
	return feedbackByReviewer, nil
}

func memberByID(config *council.Config, id string) council.Member {
	for _, member := range config.Members {
		if member.ID == id {
			return member
		}
	}
	panic(fmt.Sprintf("docreview: unknown member id %q", id))
}

func memberIDs(config *council.Config) []string {
	ids := make([]string, len(config.Members))
	for i, member := range config.Members {
		ids[i] = member.ID
	}
	return ids
}

func completionOptions(member council.Member) modelclient.CompletionOptions {
	return modelclient.CompletionOptions{Temperature: member.Model.Temperature}
}

// --- artifact persistence ---

func persistDraft(sessionDir string, version int, draft string) error {
	path := filepath.Join(sessionDir, fmt.Sprintf("documentation.draft.v%d.md", version))
	if err := os.WriteFile(path, []byte(draft), 0o644); err != nil {
		return fmt.Errorf("docreview: writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func persistReview(sessionDir string, version int, feedbackByReviewer map[string]prompt.DocumentFeedback) error {
	data, err := json.MarshalIndent(feedbackByReviewer, "", "  ")
	if err != nil {
		return fmt.Errorf("docreview: marshaling review feedback: %w", err)
	}
	path := filepath.Join(sessionDir, fmt.Sprintf("documentation.review.v%d.json", version))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("docreview: writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// persistUnapproved writes the final unapproved draft and the
// critical blockers still open against it when the revision budget
// runs out before the council approves anything.
func persistUnapproved(sessionDir, draft string, feedbackByReviewer map[string]prompt.DocumentFeedback) error {
	if err := os.WriteFile(filepath.Join(sessionDir, "documentation.unapproved.md"), []byte(draft), 0o644); err != nil {
		return fmt.Errorf("docreview: writing documentation.unapproved.md: %w", err)
	}

	var blockers []prompt.CriticalBlocker
	for _, feedback := range feedbackByReviewer {
		blockers = append(blockers, feedback.CriticalBlockers...)
	}
	data, err := json.MarshalIndent(blockers, "", "  ")
	if err != nil {
		return fmt.Errorf("docreview: marshaling unresolved blockers: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "documentation.unresolved-blockers.json"), data, 0o644); err != nil {
		return fmt.Errorf("docreview: writing documentation.unresolved-blockers.json: %w", err)
	}
	return nil
}

// --- documentation structure validation ---

var (
	structureParserOnce sync.Once
	structureParser     goldmark.Markdown
)

func getStructureParser() goldmark.Markdown {
	structureParserOnce.Do(func() {
		structureParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return structureParser
}

// validateDraftStructure walks the draft's heading structure and
// reports the required deliverables of the authoring phase — the last
// phase to complete before the documentation loop started — whose
// description does not appear in any heading. A structurally
// incomplete draft is not fatal: the caller folds the result into
// that round's reviewer feedback as a synthetic blocker instead of
// failing the loop, mirroring the synthetic B0 blocker inserted when
// a reviewer's response is entirely unparseable.
func validateDraftStructure(config *council.Config, results []protocol.PhaseResult, draft string) []string {
	phase := authoringPhase(config, results)
	if len(phase.Deliverables) == 0 {
		return nil
	}

	headings := extractHeadings(draft)

	var missing []string
	for _, deliverable := range phase.Deliverables {
		if !deliverable.Required {
			continue
		}
		if !headingsCover(headings, deliverable.Description) {
			missing = append(missing, deliverable.Description)
		}
	}
	return missing
}

func authoringPhase(config *council.Config, results []protocol.PhaseResult) council.Phase {
	if len(results) == 0 {
		return council.Phase{}
	}
	lastPhaseID := results[len(results)-1].PhaseID
	for _, phase := range config.Phases {
		if phase.ID == lastPhaseID {
			return phase
		}
	}
	return council.Phase{}
}

// extractHeadings parses draft as markdown and returns the plain text
// of every heading node, in document order.
func extractHeadings(draft string) []string {
	source := []byte(draft)
	document := getStructureParser().Parser().Parse(text.NewReader(source))

	var headings []string
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || node.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		headings = append(headings, headingText(node, source))
		return ast.WalkContinue, nil
	})
	return headings
}

// headingText concatenates the raw text of a heading's inline
// children, ignoring emphasis and other inline styling nodes.
func headingText(heading ast.Node, source []byte) string {
	var builder strings.Builder
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			builder.Write(textNode.Segment.Value(source))
		}
	}
	return builder.String()
}

func headingsCover(headings []string, description string) bool {
	needle := strings.ToLower(description)
	for _, heading := range headings {
		if strings.Contains(strings.ToLower(heading), needle) {
			return true
		}
	}
	return false
}

func structuralFeedback(missing []string) prompt.DocumentFeedback {
	blockers := make([]prompt.CriticalBlocker, 0, len(missing))
	for i, description := range missing {
		blockers = append(blockers, prompt.CriticalBlocker{
			ID:             fmt.Sprintf("STRUCTURE-%d", i+1),
			Section:        description,
			Problem:        fmt.Sprintf("No heading in the draft covers the required deliverable %q.", description),
			Impact:         "The documentation output is missing a section the phase graph committed to producing.",
			RequiredChange: fmt.Sprintf("Add a section addressing %q.", description),
			Severity:       "blocker",
		})
	}
	return prompt.DocumentFeedback{CriticalBlockers: blockers}
}
