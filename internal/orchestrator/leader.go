// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/council-engine/council/internal/concurrency"
	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/eventlog"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/prompt"
	"github.com/council-engine/council/internal/protocol"
)

type ballotOutcome struct {
	memberID     string
	ballot       protocol.LeaderElectionBallot
	usedFallback bool
	err          error
}

// electLeader fans the leader-election ballot out to every member,
// joins before recording anything, and picks the candidate with the
// most votes. Ties go to the lexicographically lowest member id —
// the same lexicographic tiebreak the phase-transition resolver uses,
// so the engine has one tiebreak convention rather than two.
func electLeader(ctx context.Context, config *council.Config, log *eventlog.Log, clients map[string]modelclient.ModelClient) (string, map[string]bool, error) {
	memberIDs := make([]string, len(config.Members))
	for i, member := range config.Members {
		memberIDs[i] = member.ID
	}

	outcomes := concurrency.FanOut(memberIDs, func(id string) ballotOutcome {
		member := memberByID(config, id)
		system, user := prompt.BuildLeaderElectionPrompt(config, member)
		ballot, usedFallback, err := prompt.CompleteLeaderElectionBallot(ctx, clients[id], system, user, memberIDs, completionOptions(member))
		return ballotOutcome{memberID: id, ballot: ballot, usedFallback: usedFallback, err: err}
	})

	parseFallbackMembers := make(map[string]bool)
	votes := make(map[string]int, len(memberIDs))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			return "", nil, fmt.Errorf("orchestrator: leader ballot from %s: %w", outcome.memberID, outcome.err)
		}
		if outcome.usedFallback {
			parseFallbackMembers[outcome.memberID] = true
		}
		if _, err := log.Append(protocol.Event{
			Type:    protocol.EventLeaderElectionBallot,
			ActorID: outcome.memberID,
			Payload: outcome.ballot,
		}); err != nil {
			return "", nil, err
		}
		votes[outcome.ballot.CandidateID]++
	}

	leaderID := winningCandidate(votes)
	if _, err := log.Append(protocol.Event{
		Type:    protocol.EventLeaderElected,
		ActorID: leaderID,
		Payload: votes,
	}); err != nil {
		return "", nil, err
	}

	return leaderID, parseFallbackMembers, nil
}

// winningCandidate returns the id with the most votes; ties resolve
// to the lexicographically-lowest id among the candidates.
func winningCandidate(votes map[string]int) string {
	var candidates []string
	for id := range votes {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)

	best := candidates[0]
	for _, id := range candidates[1:] {
		if votes[id] > votes[best] {
			best = id
		}
	}
	return best
}
