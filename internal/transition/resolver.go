// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package transition resolves which phase runs next once the current
// phase has closed, and builds the phase-context packet injected into
// member prompts.
package transition

import (
	"sort"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/protocol"
)

// Outcome is either a next phase id or a request to terminate the session.
type Outcome struct {
	NextPhaseID string
	Terminate   bool
}

// Resolve is the pure function (phase, endedBy) -> next phase id | terminate.
func Resolve(phase council.Phase, endedBy protocol.EndedBy) Outcome {
	trigger := triggerFor(endedBy)

	var eligible []council.Transition
	for _, candidate := range phase.Transitions {
		if candidate.When == council.TriggerAlways || candidate.When == trigger {
			eligible = append(eligible, candidate)
		}
	}

	if len(eligible) > 0 {
		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].Priority != eligible[j].Priority {
				return eligible[i].Priority < eligible[j].Priority
			}
			return eligible[i].To < eligible[j].To
		})
		return Outcome{NextPhaseID: eligible[0].To}
	}

	if endedBy == protocol.EndedByRoundLimit && phase.Fallback.Action == council.FallbackTransition {
		return Outcome{NextPhaseID: phase.Fallback.TransitionToPhaseID}
	}

	return Outcome{Terminate: true}
}

func triggerFor(endedBy protocol.EndedBy) council.TransitionTrigger {
	switch endedBy {
	case protocol.EndedByMajorityVote:
		return council.TriggerMajorityVote
	case protocol.EndedByRoundLimit:
		return council.TriggerRoundLimit
	default:
		return council.TriggerAlways
	}
}
