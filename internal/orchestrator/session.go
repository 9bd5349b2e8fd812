// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator drives one full council session end to end:
// leader election, the phase graph, the optional documentation
// review loop, execution handoff, and the session-close memory
// write. It is the only package that sequences all of those pieces
// together; each piece's own concurrency (fan-out) and I/O
// (event log, memory store) stay owned by its package.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/docreview"
	"github.com/council-engine/council/internal/eventlog"
	"github.com/council-engine/council/internal/idgen"
	"github.com/council-engine/council/internal/memory"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/phase"
	"github.com/council-engine/council/internal/prompt"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/internal/transition"
	"github.com/council-engine/council/lib/clock"
)

// Result is everything a completed session hands back to its caller.
type Result struct {
	SessionID     string
	SessionDir    string
	LeaderID      string
	PhaseResults  []protocol.PhaseResult
	Summary       protocol.LeaderSummary
	Documentation *docreview.Result
	Execution     *protocol.ExecutionHandoff
}

// sessionClosedPayload is the SESSION_CLOSED event's payload: the
// leader's closing statement plus the execution handoff, if any.
type sessionClosedPayload struct {
	Summary   protocol.LeaderSummary
	Execution *protocol.ExecutionHandoff `json:"execution,omitempty"`
}

// transitionLimitPayload is the TRANSITION_LIMIT_REACHED event's
// payload: a synthetic stop reason recorded when the phase graph is
// cut off by MaxPhaseTransitions rather than by any phase's own stop
// condition, so a misconfigured cyclic graph leaves an auditable trace
// of why the session ended where it did.
type transitionLimitPayload struct {
	MaxPhaseTransitions int    `json:"maxPhaseTransitions"`
	LastPhaseID         string `json:"lastPhaseId"`
	StopReason          string `json:"stopReason"`
}

// Run drives a full session. memStore may be nil, in which case
// members receive no prior-session memory and nothing is recorded at
// session close — used for a config with storage disabled and for
// tests that do not exercise memory.
func Run(ctx context.Context, config *council.Config, clients map[string]modelclient.ModelClient, memStore *memory.Store, clk clock.Clock, humanPrompt string, approveExecution bool) (Result, error) {
	sessionID, err := idgen.New("session")
	if err != nil {
		return Result{}, err
	}
	sessionDir := filepath.Join(config.Storage.RootDir, "sessions", sessionID)

	log, err := eventlog.New(clk, sessionID, sessionDir)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: opening event log: %w", err)
	}

	leaderID, leaderFallbackMembers, err := electLeader(ctx, config, log, clients)
	if err != nil {
		return Result{}, err
	}

	snapshots, err := gatherPromptContext(ctx, config, memStore)
	if err != nil {
		return Result{}, err
	}

	session := phase.NewSession(config, log, clients, snapshots)
	for id := range leaderFallbackMembers {
		session.ParseFallbackMembers[id] = true
	}
	if humanPrompt != "" {
		session.Transcript = append(session.Transcript, "HUMAN: "+humanPrompt)
	}
	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventSessionOpened,
		Payload: humanPrompt,
	}); err != nil {
		return Result{}, err
	}

	phaseResults, err := runPhaseGraph(ctx, session, config)
	if err != nil {
		return Result{}, err
	}

	lastResult := phaseResults[len(phaseResults)-1]
	leader := memberByID(config, leaderID)
	system, user := prompt.BuildLeaderSummaryPrompt(config, leader, phaseResults)
	summary, usedFallback, err := prompt.CompleteLeaderSummary(ctx, clients[leaderID], system, user, lastResult.FinalResolution, completionOptions(leader))
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: leader summary: %w", err)
	}
	if usedFallback {
		session.ParseFallbackMembers[leaderID] = true
	}

	result := Result{
		SessionID:    sessionID,
		SessionDir:   sessionDir,
		LeaderID:     leaderID,
		PhaseResults: phaseResults,
		Summary:      summary,
	}

	if config.Output.Type == council.OutputDocumentation {
		docResult, err := docreview.Run(ctx, config, log, clients, leaderID, phaseResults, sessionDir)
		if err != nil {
			return Result{}, err
		}
		result.Documentation = &docResult
		if err := writeDocumentationArtifact(sessionDir, docResult); err != nil {
			return Result{}, err
		}
	}

	if summary.RequiresExecution {
		handoff := buildExecutionHandoff(config, sessionID, leaderID, summary, lastResult, approveExecution)
		result.Execution = &handoff
	}

	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventSessionClosed,
		ActorID: leaderID,
		Payload: sessionClosedPayload{Summary: summary, Execution: result.Execution},
	}); err != nil {
		return Result{}, err
	}

	if err := writeLeaderSummaryArtifact(sessionDir, summary); err != nil {
		return Result{}, err
	}
	if result.Execution != nil {
		if err := writeExecutionHandoffArtifact(sessionDir, *result.Execution); err != nil {
			return Result{}, err
		}
	}

	if memStore != nil && anyCompletedPhaseRequestsMemoryWrite(config, phaseResults) {
		if err := recordSessionMemory(ctx, memStore, config, sessionID, session, lastResult, result.Execution, approveExecution); err != nil {
			return Result{}, err
		}
	}

	// The session state document is written last, once every other
	// artifact path it references (summary, documentation, execution
	// handoff) is known to exist on disk.
	if err := writeSessionArtifact(sessionDir, result); err != nil {
		return Result{}, err
	}

	return result, nil
}

// runPhaseGraph walks the phase graph from the entry phase, following
// transition.Resolve after each phase completes, until a phase
// terminates the session or maxPhaseTransitions is exhausted — the
// latter is a safety valve against a misconfigured graph that cycles
// forever, not a documented protocol feature. Hitting the cap still
// records a TRANSITION_LIMIT_REACHED event, so a cyclic graph's
// premature stop is auditable from the event log rather than looking
// like an ordinary phase-terminated ending.
func runPhaseGraph(ctx context.Context, session *phase.Session, config *council.Config) ([]protocol.PhaseResult, error) {
	var results []protocol.PhaseResult

	currentPhaseID := config.SessionPolicy.EntryPhaseID
	for transitions := 0; ; transitions++ {
		currentPhase := phaseByID(config, currentPhaseID)
		result, err := phase.RunPhase(ctx, session, currentPhase)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		session.PriorResults = results

		outcome := transition.Resolve(currentPhase, result.EndedBy)
		if outcome.Terminate {
			return results, nil
		}
		if transitions >= config.SessionPolicy.MaxPhaseTransitions {
			if _, err := session.Log.Append(protocol.Event{
				Type: protocol.EventTransitionLimitReached,
				Payload: transitionLimitPayload{
					MaxPhaseTransitions: config.SessionPolicy.MaxPhaseTransitions,
					LastPhaseID:         currentPhaseID,
					StopReason:          "phase graph exceeded sessionPolicy.maxPhaseTransitions before any phase terminated the session",
				},
			}); err != nil {
				return nil, err
			}
			return results, nil
		}
		currentPhaseID = outcome.NextPhaseID
	}
}

func buildExecutionHandoff(config *council.Config, sessionID, leaderID string, summary protocol.LeaderSummary, lastResult protocol.PhaseResult, approveExecution bool) protocol.ExecutionHandoff {
	handoff := protocol.ExecutionHandoff{
		SessionID:              sessionID,
		ApprovalRequired:       config.Execution.RequireHumanApproval,
		DefaultExecutorProfile: config.Execution.DefaultExecutorProfile,
		LeaderID:               leaderID,
		ExecutionBrief:         summary.ExecutionBrief,
	}
	if lastResult.WinningMotion != nil {
		handoff.MotionID = lastResult.WinningMotion.ID
	}
	handoff.Approved = approveExecution || !config.Execution.RequireHumanApproval
	return handoff
}

// gatherPromptContext fetches each member's bounded memory snapshot
// and folds the council-wide snapshot into it, so a member's prompt
// carries both what it personally learned and what the council as a
// whole has recorded, without the phase package needing to know two
// snapshot shapes exist. The read is skipped entirely — every member
// gets an empty snapshot — unless at least one configured phase asks
// for it via MemoryPolicy.ReadMemberMemory; the snapshot is fetched
// once for the whole session, before any phase runs, so there is no
// finer-grained point at which to gate it per phase.
func gatherPromptContext(ctx context.Context, config *council.Config, memStore *memory.Store) (map[string]memory.PromptContext, error) {
	snapshots := make(map[string]memory.PromptContext, len(config.Members))
	if memStore == nil || !anyPhaseRequestsMemoryRead(config) {
		for _, member := range config.Members {
			snapshots[member.ID] = memory.PromptContext{}
		}
		return snapshots, nil
	}

	councilContext, err := memStore.CouncilPromptContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: council prompt context: %w", err)
	}

	for _, member := range config.Members {
		memberContext, err := memStore.PromptContext(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: prompt context for %s: %w", member.ID, err)
		}
		snapshots[member.ID] = mergePromptContext(memberContext, councilContext)
	}
	return snapshots, nil
}

func mergePromptContext(member, councilWide memory.PromptContext) memory.PromptContext {
	return memory.PromptContext{
		Constraints:         append(append([]string(nil), member.Constraints...), councilWide.Constraints...),
		Decisions:           append(append([]string(nil), member.Decisions...), councilWide.Decisions...),
		RisksAndAssumptions: append(append([]string(nil), member.RisksAndAssumptions...), councilWide.RisksAndAssumptions...),
		OpenLoops:           append(append([]string(nil), member.OpenLoops...), councilWide.OpenLoops...),
		Preferences:         append(append([]string(nil), member.Preferences...), councilWide.Preferences...),
		AntiPatterns:        append(append([]string(nil), member.AntiPatterns...), councilWide.AntiPatterns...),
	}
}

func recordSessionMemory(ctx context.Context, memStore *memory.Store, config *council.Config, sessionID string, session *phase.Session, lastResult protocol.PhaseResult, execution *protocol.ExecutionHandoff, approveExecution bool) error {
	memberIDs := make([]string, len(config.Members))
	for i, member := range config.Members {
		memberIDs[i] = member.ID
	}

	lastMessageByMember := make(map[string]string, len(memberIDs))
	for _, event := range session.Log.Events() {
		if event.Type != protocol.EventMessageContributed {
			continue
		}
		if action, ok := event.Payload.(protocol.TurnAction); ok {
			lastMessageByMember[event.ActorID] = action.Message
		}
	}

	fallbackMembers := make([]string, 0, len(session.ParseFallbackMembers))
	for id := range session.ParseFallbackMembers {
		fallbackMembers = append(fallbackMembers, id)
	}

	input := memory.SessionInput{
		SessionID:            sessionID,
		FinalResolution:      lastResult.FinalResolution,
		MemberIDs:            memberIDs,
		LastMessageByMember:  lastMessageByMember,
		ParseFallbackMembers: fallbackMembers,
		EndedByRoundLimit:    lastResult.EndedBy == protocol.EndedByRoundLimit,
		RequiresExecution:    execution != nil,
		ApproveExecution:     execution != nil && execution.Approved,
	}
	if err := memStore.RecordSession(ctx, input); err != nil {
		return fmt.Errorf("orchestrator: recording session memory: %w", err)
	}

	if config.Storage.MemoryDir == "" {
		return nil
	}
	for _, member := range config.Members {
		if err := memStore.RenderMember(ctx, config.Storage.MemoryDir, member.ID, member.Role, member.SystemPrompt); err != nil {
			return fmt.Errorf("orchestrator: rendering memory for %s: %w", member.ID, err)
		}
	}
	if err := memStore.RenderCouncil(ctx, config.Storage.MemoryDir); err != nil {
		return fmt.Errorf("orchestrator: rendering council memory: %w", err)
	}
	return nil
}
