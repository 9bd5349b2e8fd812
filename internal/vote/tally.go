// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package vote computes pass/fail outcomes from ballots. Every
// function here is pure: no I/O, no clock, no randomness.
package vote

import (
	"math"

	"github.com/council-engine/council/internal/protocol"
)

// Result is the outcome of tallying a motion's ballots.
type Result struct {
	Passed            bool
	YesVotes          int
	NoVotesEffective  int
	TotalCouncilSize  int
	MajorityThreshold float64
	RequiredYes       int
}

// Tally computes pass/fail from ballots against governance
// parameters. The denominator is always totalCouncilSize, never
// len(ballots) — a member whose ballot never arrives (should not
// happen given the blind-voting fan-out barrier, but Tally does not
// assume it) still counts against the full council in the
// abstain-counts-as-no path.
func Tally(ballots []protocol.Ballot, totalCouncilSize int, majorityThreshold float64, abstainCountsAsNo bool) Result {
	yesVotes := 0
	noVotes := 0
	for _, ballot := range ballots {
		switch ballot.Value {
		case protocol.BallotYes:
			yesVotes++
		case protocol.BallotNo:
			noVotes++
		}
	}

	noVotesEffective := noVotes
	if abstainCountsAsNo {
		noVotesEffective = totalCouncilSize - yesVotes
	}

	requiredYes := requiredYesVotes(totalCouncilSize, majorityThreshold)

	return Result{
		Passed:            yesVotes >= requiredYes,
		YesVotes:          yesVotes,
		NoVotesEffective:  noVotesEffective,
		TotalCouncilSize:  totalCouncilSize,
		MajorityThreshold: majorityThreshold,
		RequiredYes:       requiredYes,
	}
}

// requiredYesVotes computes the number of YES votes needed to pass.
// A 0.5 threshold uses the classic "more than half" majority
// (floor(total/2) + 1) rather than ceil(total*0.5), which for an odd
// council would otherwise compute the same value but is spelled out
// separately per spec because ceil(0.5*total) is ambiguous for even
// totals and this engine's council size is always odd.
func requiredYesVotes(totalCouncilSize int, threshold float64) int {
	if threshold == 0.5 {
		return totalCouncilSize/2 + 1
	}
	return int(math.Ceil(float64(totalCouncilSize) * threshold))
}
