// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"fmt"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/protocol"
)

func memberByID(config *council.Config, id string) council.Member {
	for _, member := range config.Members {
		if member.ID == id {
			return member
		}
	}
	panic(fmt.Sprintf("orchestrator: unknown member id %q", id))
}

func phaseByID(config *council.Config, id string) council.Phase {
	for _, phase := range config.Phases {
		if phase.ID == id {
			return phase
		}
	}
	panic(fmt.Sprintf("orchestrator: unknown phase id %q", id))
}

func completionOptions(member council.Member) modelclient.CompletionOptions {
	return modelclient.CompletionOptions{Temperature: member.Model.Temperature}
}

// anyPhaseRequestsMemoryRead reports whether any phase in the graph is
// configured to read member memory. It is evaluated once up front,
// before any phase runs, because the prompt-context snapshot is fetched
// once for the whole session rather than per phase.
func anyPhaseRequestsMemoryRead(config *council.Config) bool {
	for _, phase := range config.Phases {
		if phase.MemoryPolicy.ReadMemberMemory {
			return true
		}
	}
	return false
}

// anyCompletedPhaseRequestsMemoryWrite reports whether any phase that
// actually ran this session asked, via its memory policy, to have the
// session recorded into member or council memory. A phase configured
// in the graph but never reached (e.g. behind a transition nobody
// took) does not count.
func anyCompletedPhaseRequestsMemoryWrite(config *council.Config, phaseResults []protocol.PhaseResult) bool {
	for _, result := range phaseResults {
		completed := phaseByID(config, result.PhaseID)
		if completed.MemoryPolicy.WriteMemberMemory || completed.MemoryPolicy.WriteCouncilMemory {
			return true
		}
	}
	return false
}
