// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package vote

import (
	"testing"

	"github.com/council-engine/council/internal/protocol"
)

func TestTallyFullDenominatorMajority(t *testing.T) {
	t.Parallel()

	// Full-denominator majority property: threshold=0.5,
	// abstainCountsAsNo=true requires yesVotes >= floor(N/2)+1
	// regardless of how many ballots were actually returned.
	tests := []struct {
		name    string
		ballots []protocol.Ballot
		total   int
		want    bool
	}{
		{
			name: "two of three yes passes",
			ballots: []protocol.Ballot{
				{MemberID: "a", Value: protocol.BallotYes},
				{MemberID: "b", Value: protocol.BallotYes},
				{MemberID: "c", Value: protocol.BallotNo},
			},
			total: 3,
			want:  true,
		},
		{
			name: "one of three yes fails",
			ballots: []protocol.Ballot{
				{MemberID: "a", Value: protocol.BallotYes},
				{MemberID: "b", Value: protocol.BallotNo},
				{MemberID: "c", Value: protocol.BallotAbstain},
			},
			total: 3,
			want:  false,
		},
		{
			name: "missing ballot still counts against full council",
			ballots: []protocol.Ballot{
				{MemberID: "a", Value: protocol.BallotYes},
				{MemberID: "b", Value: protocol.BallotYes},
			},
			total: 5,
			want:  false, // requires 3 of 5, only 2 ballots present
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Tally(test.ballots, test.total, 0.5, true)
			if result.Passed != test.want {
				t.Errorf("Tally(...).Passed = %v, want %v (result=%+v)", result.Passed, test.want, result)
			}
		})
	}
}

func TestTallyS1MotionPasses(t *testing.T) {
	t.Parallel()

	ballots := []protocol.Ballot{
		{MemberID: "a", Value: protocol.BallotYes},
		{MemberID: "b", Value: protocol.BallotYes},
		{MemberID: "c", Value: protocol.BallotNo},
	}

	result := Tally(ballots, 3, 0.5, true)
	if !result.Passed {
		t.Fatalf("expected motion to pass, got %+v", result)
	}
	if result.RequiredYes != 2 {
		t.Errorf("RequiredYes = %d, want 2", result.RequiredYes)
	}
}

func TestTallyAbstainCountsAsNoDisabled(t *testing.T) {
	t.Parallel()

	ballots := []protocol.Ballot{
		{MemberID: "a", Value: protocol.BallotYes},
		{MemberID: "b", Value: protocol.BallotAbstain},
		{MemberID: "c", Value: protocol.BallotAbstain},
	}

	// abstainCountsAsNo=false: noVotesEffective counts only explicit
	// NO ballots, but Passed is unaffected by that count either way.
	result := Tally(ballots, 3, 0.5, false)
	if result.NoVotesEffective != 0 {
		t.Errorf("NoVotesEffective = %d, want 0 (no explicit NO ballots)", result.NoVotesEffective)
	}
	if result.Passed {
		t.Error("1 yes of 3 should not pass a majority threshold")
	}
}

func TestTallyHigherThreshold(t *testing.T) {
	t.Parallel()

	ballots := []protocol.Ballot{
		{MemberID: "a", Value: protocol.BallotYes},
		{MemberID: "b", Value: protocol.BallotYes},
		{MemberID: "c", Value: protocol.BallotYes},
		{MemberID: "d", Value: protocol.BallotYes},
		{MemberID: "e", Value: protocol.BallotNo},
	}

	// threshold 0.75 of 5 => ceil(3.75) = 4
	result := Tally(ballots, 5, 0.75, true)
	if result.RequiredYes != 4 {
		t.Errorf("RequiredYes = %d, want 4", result.RequiredYes)
	}
	if !result.Passed {
		t.Errorf("expected pass with 4 yes votes, got %+v", result)
	}
}
