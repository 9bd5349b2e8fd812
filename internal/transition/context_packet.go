// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package transition

import (
	"fmt"
	"strings"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/protocol"
)

// ContextPacket is the phase-identity fragment injected into every
// member prompt. Its detail scales with the session's configured
// verbosity.
type ContextPacket struct {
	PhaseID             string
	PhaseGoal           string
	Round               int
	MaxRounds           int
	PendingDeliverables []string
	EvidenceGaps        []string
	LegalNextPhases     []LegalTransition
	GraphDigest         string // populated at "standard"/"full" verbosity
	PriorPhaseSummary   string // populated when phase.MemoryPolicy.IncludePriorPhaseSummary is set
}

// LegalTransition names one phase this phase could legally transition to.
type LegalTransition struct {
	To   string
	When council.TransitionTrigger
}

// BuildContextPacket assembles the phase-context packet for the
// current phase and round. contributedDeliverables lists deliverable
// ids already satisfied this phase, so PendingDeliverables reports the
// gap rather than the full deliverable list every round. priorResults
// holds every phase that completed before this one in the same
// session; its last entry's resolution is surfaced as
// PriorPhaseSummary when this phase's memory policy asks for it.
func BuildContextPacket(config *council.Config, phase council.Phase, round int, contributedDeliverables map[string]bool, verbosity council.Verbosity, priorResults []protocol.PhaseResult) ContextPacket {
	packet := ContextPacket{
		PhaseID:   phase.ID,
		PhaseGoal: phase.Goal,
		Round:     round,
		MaxRounds: phase.StopConditions.MaxRounds,
	}

	if phase.MemoryPolicy.IncludePriorPhaseSummary && len(priorResults) > 0 {
		packet.PriorPhaseSummary = priorResults[len(priorResults)-1].FinalResolution
	}

	for _, deliverable := range phase.Deliverables {
		if deliverable.Required && !contributedDeliverables[deliverable.ID] {
			packet.PendingDeliverables = append(packet.PendingDeliverables, deliverable.ID)
		}
	}

	if phase.EvidenceRequirements.MinCitations > 0 {
		packet.EvidenceGaps = append(packet.EvidenceGaps, fmt.Sprintf("at least %d citations required", phase.EvidenceRequirements.MinCitations))
	}
	if phase.EvidenceRequirements.RequireExplicitAssumptions {
		packet.EvidenceGaps = append(packet.EvidenceGaps, "explicit assumptions required")
	}
	if phase.EvidenceRequirements.RequireRiskRegister {
		packet.EvidenceGaps = append(packet.EvidenceGaps, "risk register required")
	}

	for _, t := range phase.Transitions {
		packet.LegalNextPhases = append(packet.LegalNextPhases, LegalTransition{To: t.To, When: t.When})
	}

	if verbosity == council.VerbosityStandard || verbosity == council.VerbosityFull {
		packet.GraphDigest = condensedGraphDigest(config, verbosity == council.VerbosityFull)
	}

	return packet
}

// condensedGraphDigest renders the phase graph as a compact
// node-and-edges listing. At full verbosity every phase is included;
// at standard verbosity the digest still lists every phase id but
// omits per-transition trigger detail, keeping the packet small.
func condensedGraphDigest(config *council.Config, full bool) string {
	var builder strings.Builder
	for _, phase := range config.Phases {
		fmt.Fprintf(&builder, "%s ->", phase.ID)
		for i, t := range phase.Transitions {
			if i > 0 {
				builder.WriteByte(',')
			}
			if full {
				fmt.Fprintf(&builder, " %s(%s)", t.To, t.When)
			} else {
				fmt.Fprintf(&builder, " %s", t.To)
			}
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}
