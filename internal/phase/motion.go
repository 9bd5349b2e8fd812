// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"context"
	"fmt"

	"github.com/council-engine/council/internal/concurrency"
	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/prompt"
	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/internal/vote"
)

// motionOutcome is what runMotion hands back to the round loop: enough
// to decide whether the phase ends here (majority vote) or the round
// loop continues.
type motionOutcome struct {
	Motion  protocol.Motion
	Result  vote.Result
	Seconded bool
}

type secondingOutcome struct {
	memberID     string
	response     protocol.SecondingResponse
	usedFallback bool
	err          error
}

type voteOutcome struct {
	memberID     string
	response     protocol.VoteResponse
	usedFallback bool
	err          error
}

// runMotion carries a called motion through seconding (if required by
// the phase's governance) and, once seconded, through a blind vote. It
// returns motionOutcome.Seconded=false when the motion died for lack
// of a seconder; the round loop treats that the same as a PASS and
// continues.
func runMotion(ctx context.Context, session *Session, phase council.Phase, motion protocol.Motion) (motionOutcome, error) {
	if phase.Governance.RequireSeconding {
		seconded, seconderID, err := runSeconding(ctx, session, phase, motion)
		if err != nil {
			return motionOutcome{}, err
		}
		if !seconded {
			if _, err := session.emit(ctx, protocol.Event{
				PhaseState: phase.ID,
				Type:       protocol.EventMotionNotSeconded,
				Round:      motion.Round,
				TurnIndex:  motion.TurnIndex,
				ActorID:    motion.ProposerID,
				Payload:    motion,
			}); err != nil {
				return motionOutcome{}, err
			}
			return motionOutcome{Motion: motion, Seconded: false}, nil
		}
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventMotionSeconded,
			Round:      motion.Round,
			TurnIndex:  motion.TurnIndex,
			ActorID:    seconderID,
			Payload:    motion,
		}); err != nil {
			return motionOutcome{}, err
		}
	}

	result, err := runVote(ctx, session, phase, motion)
	if err != nil {
		return motionOutcome{}, err
	}
	return motionOutcome{Motion: motion, Result: result, Seconded: true}, nil
}

// runSeconding fans a seconding prompt out to every member except the
// proposer, joins before recording anything, then emits one
// SECONDING_RESPONSE event per respondent in turn order followed by
// the seconded/not-seconded verdict. The first member in turn order
// who seconds is reported as the seconder of record; ties in
// simultaneous "yes" responses are broken by turn order, not arrival
// order, since fanOut preserves input order regardless of completion
// order.
func runSeconding(ctx context.Context, session *Session, phase council.Phase, motion protocol.Motion) (bool, string, error) {
	var candidateIDs []string
	for _, id := range session.TurnOrder() {
		if id != motion.ProposerID {
			candidateIDs = append(candidateIDs, id)
		}
	}

	outcomes := concurrency.FanOut(candidateIDs, func(id string) secondingOutcome {
		member := session.Member(id)
		system, user := prompt.BuildSecondingPrompt(session.Config, member, phase, motion)
		response, usedFallback, err := prompt.CompleteSecondingResponse(ctx, session.client(id), system, user, completionOptions(member))
		return secondingOutcome{memberID: id, response: response, usedFallback: usedFallback, err: err}
	})

	seconderID := ""
	for _, outcome := range outcomes {
		if outcome.err != nil {
			return false, "", fmt.Errorf("phase: seconding response from %s: %w", outcome.memberID, outcome.err)
		}
		if outcome.usedFallback {
			session.ParseFallbackMembers[outcome.memberID] = true
		}
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventSecondingResponse,
			Round:      motion.Round,
			TurnIndex:  motion.TurnIndex,
			ActorID:    outcome.memberID,
			Payload:    outcome.response,
		}); err != nil {
			return false, "", err
		}
		if outcome.response.Second && seconderID == "" {
			seconderID = outcome.memberID
		}
	}

	return seconderID != "", seconderID, nil
}

// runVote fans the vote prompt out to every member, including the
// proposer, and joins before recording any VOTE_CAST event — the
// blind-voting invariant. Ballots are then emitted in turn order and
// tallied against the full council size.
func runVote(ctx context.Context, session *Session, phase council.Phase, motion protocol.Motion) (vote.Result, error) {
	memberIDs := session.TurnOrder()

	outcomes := concurrency.FanOut(memberIDs, func(id string) voteOutcome {
		member := session.Member(id)
		system, user := prompt.BuildVotePrompt(session.Config, member, phase, motion)
		response, usedFallback, err := prompt.CompleteVoteResponse(ctx, session.client(id), system, user, completionOptions(member))
		return voteOutcome{memberID: id, response: response, usedFallback: usedFallback, err: err}
	})

	var ballots []protocol.Ballot
	for _, outcome := range outcomes {
		if outcome.err != nil {
			return vote.Result{}, fmt.Errorf("phase: vote response from %s: %w", outcome.memberID, outcome.err)
		}
		if outcome.usedFallback {
			session.ParseFallbackMembers[outcome.memberID] = true
		}
		ballot := protocol.Ballot{MemberID: outcome.memberID, Value: outcome.response.Ballot, Rationale: outcome.response.Rationale}
		ballots = append(ballots, ballot)
		if _, err := session.emit(ctx, protocol.Event{
			PhaseState: phase.ID,
			Type:       protocol.EventVoteCast,
			Round:      motion.Round,
			TurnIndex:  motion.TurnIndex,
			ActorID:    outcome.memberID,
			Payload:    ballot,
		}); err != nil {
			return vote.Result{}, err
		}
	}

	result := vote.Tally(ballots, len(session.Config.Members), phase.Governance.MajorityThreshold, phase.Governance.AbstainCountsAsNo)
	if _, err := session.emit(ctx, protocol.Event{
		PhaseState: phase.ID,
		Type:       protocol.EventVoteResult,
		Round:      motion.Round,
		TurnIndex:  motion.TurnIndex,
		Payload:    result,
	}); err != nil {
		return vote.Result{}, err
	}

	return result, nil
}

func completionOptions(member council.Member) modelclient.CompletionOptions {
	return modelclient.CompletionOptions{Temperature: member.Model.Temperature}
}
