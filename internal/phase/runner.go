// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"context"
	"fmt"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/prompt"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/internal/transition"
)

// RunPhase drives one phase's round loop to completion: each round
// gives every member a turn in turn order, a CALL_VOTE turn hands off
// to runMotion, and a passed motion ends the phase early when the
// phase's stop conditions say so. A phase that exhausts its round
// budget without a passing motion ends by ROUND_LIMIT instead.
func RunPhase(ctx context.Context, session *Session, phase council.Phase) (protocol.PhaseResult, error) {
	order := session.TurnOrder()

	// Deliverable satisfaction is not yet inferred from turn content;
	// every deliverable configured as required is reported pending for
	// the life of the phase. Phases that need deliverable tracking
	// should treat evidenceGaps in the context packet as advisory only.
	contributedDeliverables := map[string]bool{}

	for round := 1; round <= phase.StopConditions.MaxRounds; round++ {
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventRoundStarted,
			Round:      round,
		}); err != nil {
			return protocol.PhaseResult{}, err
		}

		remainingTurns := phase.StopConditions.MaxRounds - round + 1
		for _, memberID := range order {
			turnIndex := session.nextTurnIndex()
			result, motionResolved, err := runTurn(ctx, session, phase, round, turnIndex, memberID, remainingTurns, contributedDeliverables)
			if err != nil {
				return protocol.PhaseResult{}, err
			}
			if motionResolved {
				return result, nil
			}
		}
	}

	if _, err := session.emit(ctx, protocol.Event{
		PhaseState: phase.ID,
		Type:       protocol.EventRoundLimitReached,
		Round:      phase.StopConditions.MaxRounds,
	}); err != nil {
		return protocol.PhaseResult{}, err
	}

	result := protocol.PhaseResult{
		PhaseID:         phase.ID,
		PhaseGoal:       phase.Goal,
		EndedBy:         protocol.EndedByRoundLimit,
		FinalResolution: phase.Fallback.Resolution,
		RoundsCompleted: phase.StopConditions.MaxRounds,
	}
	if err := emitPhaseCompleted(ctx, session, phase, result); err != nil {
		return protocol.PhaseResult{}, err
	}
	return result, nil
}

// runTurn runs one member's DISCUSSION turn. It returns
// motionResolved=true only when the member called a motion that
// passed and the phase is configured to end on a majority vote — the
// caller must then stop the round loop and use result as-is.
func runTurn(ctx context.Context, session *Session, phase council.Phase, round, turnIndex int, memberID string, remainingTurns int, contributedDeliverables map[string]bool) (protocol.PhaseResult, bool, error) {
	member := session.Member(memberID)
	packet := transition.BuildContextPacket(session.Config, phase, round, contributedDeliverables, session.Config.SessionPolicy.PhaseContextVerbosity, session.PriorResults)
	window := session.recentTranscript()
	snapshot := session.Memory[memberID]

	system, user := prompt.BuildTurnPrompt(session.Config, member, phase, packet, round, remainingTurns, window, snapshot)
	action, usedFallback, err := prompt.CompleteTurnAction(ctx, session.client(memberID), system, user, completionOptions(member))
	if err != nil {
		return protocol.PhaseResult{}, false, fmt.Errorf("phase: turn action from %s: %w", memberID, err)
	}
	if usedFallback {
		session.ParseFallbackMembers[memberID] = true
	}

	if _, err := session.emit(ctx, protocol.Event{
		PhaseState: phase.ID,
		Type:       protocol.EventTurnAction,
		Round:      round,
		TurnIndex:  turnIndex,
		ActorID:    memberID,
		Payload:    action,
	}); err != nil {
		return protocol.PhaseResult{}, false, err
	}

	switch action.Kind {
	case protocol.ActionContribute:
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventMessageContributed,
			Round:      round,
			TurnIndex:  turnIndex,
			ActorID:    memberID,
			Payload:    action,
		}); err != nil {
			return protocol.PhaseResult{}, false, err
		}
		session.appendTranscript(fmt.Sprintf("%s: %s", member.Name, action.Message))
		return protocol.PhaseResult{}, false, nil

	case protocol.ActionPass:
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventPassRecorded,
			Round:      round,
			TurnIndex:  turnIndex,
			ActorID:    memberID,
			Payload:    action,
		}); err != nil {
			return protocol.PhaseResult{}, false, err
		}
		return protocol.PhaseResult{}, false, nil

	case protocol.ActionCallVote:
		return runCalledMotion(ctx, session, phase, round, turnIndex, memberID, action)

	default:
		return protocol.PhaseResult{}, false, fmt.Errorf("phase: turn action from %s has unrecognized kind %q", memberID, action.Kind)
	}
}

func runCalledMotion(ctx context.Context, session *Session, phase council.Phase, round, turnIndex int, memberID string, action protocol.TurnAction) (protocol.PhaseResult, bool, error) {
	motionID, err := newMotionID()
	if err != nil {
		return protocol.PhaseResult{}, false, err
	}
	motion := protocol.Motion{
		ID:             motionID,
		Title:          action.Title,
		Text:           action.Text,
		DecisionIfPass: action.DecisionIfPass,
		ProposerID:     memberID,
		Round:          round,
		TurnIndex:      turnIndex,
	}
	if _, err := session.emit(ctx, protocol.Event{
		PhaseState: phase.ID,
		Type:       protocol.EventMotionCalled,
		Round:      round,
		TurnIndex:  turnIndex,
		ActorID:    memberID,
		Payload:    motion,
	}); err != nil {
		return protocol.PhaseResult{}, false, err
	}

	outcome, err := runMotion(ctx, session, phase, motion)
	if err != nil {
		return protocol.PhaseResult{}, false, err
	}

	if outcome.Seconded && outcome.Result.Passed && phase.StopConditions.EndOnMajorityVote {
		result := protocol.PhaseResult{
			PhaseID:         phase.ID,
			PhaseGoal:       phase.Goal,
			EndedBy:         protocol.EndedByMajorityVote,
			FinalResolution: motion.DecisionIfPass,
			WinningMotion:   &motion,
			RoundsCompleted: round,
		}
		if err := emitPhaseCompleted(ctx, session, phase, result); err != nil {
			return protocol.PhaseResult{}, false, err
		}
		return result, true, nil
	}

	return protocol.PhaseResult{}, false, nil
}

func emitPhaseCompleted(ctx context.Context, session *Session, phase council.Phase, result protocol.PhaseResult) error {
	_, err := session.emit(ctx, protocol.Event{
		PhaseState: phase.ID,
		Type:       protocol.EventPhaseCompleted,
		Round:      result.RoundsCompleted,
		Payload:    result,
	})
	return err
}
