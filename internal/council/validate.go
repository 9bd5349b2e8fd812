// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import "fmt"

// Validate checks a Config for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the config is
// valid. This runs before any session activity, so every violation is
// collected rather than failing on the first one — operators fix a
// config file once, not once per invocation.
func Validate(config *Config) []string {
	var issues []string

	if config.CouncilName == "" {
		issues = append(issues, "councilName is required")
	}
	if config.Purpose == "" {
		issues = append(issues, "purpose is required")
	}

	issues = append(issues, validateMembers(config.Members)...)
	issues = append(issues, validatePhases(config)...)

	if config.SessionPolicy.MaxPhaseTransitions < 1 {
		issues = append(issues, "sessionPolicy.maxPhaseTransitions must be >= 1")
	}
	switch config.SessionPolicy.PhaseContextVerbosity {
	case VerbosityMinimal, VerbosityStandard, VerbosityFull:
	default:
		issues = append(issues, fmt.Sprintf("sessionPolicy.phaseContextVerbosity %q is not one of minimal, standard, full", config.SessionPolicy.PhaseContextVerbosity))
	}

	switch config.Output.Type {
	case OutputNone, OutputDocumentation:
	default:
		issues = append(issues, fmt.Sprintf("output.type %q is not one of none, documentation", config.Output.Type))
	}
	if config.Documentation.MaxRevisionRounds < 0 {
		issues = append(issues, "documentationReview.maxRevisionRounds must be >= 0")
	}

	if len(config.TurnOrder) > 0 {
		issues = append(issues, validateTurnOrder(config)...)
	}

	return issues
}

func validateMembers(members []Member) []string {
	var issues []string

	if len(members)%2 == 0 || len(members) < 3 {
		issues = append(issues, fmt.Sprintf("council must have an odd number of members >= 3, got %d", len(members)))
	}

	seen := make(map[string]bool, len(members))
	for index, member := range members {
		prefix := fmt.Sprintf("members[%d]", index)
		if member.ID == "" {
			issues = append(issues, fmt.Sprintf("%s: id is required", prefix))
			continue
		}
		prefix = fmt.Sprintf("members[%d] %q", index, member.ID)
		if seen[member.ID] {
			issues = append(issues, fmt.Sprintf("%s: duplicate member id", prefix))
		}
		seen[member.ID] = true

		if member.SystemPrompt == "" {
			issues = append(issues, fmt.Sprintf("%s: systemPrompt is required", prefix))
		}
		if member.Model.Provider == "" {
			issues = append(issues, fmt.Sprintf("%s: model.provider is required", prefix))
		}
		if member.Model.Model == "" {
			issues = append(issues, fmt.Sprintf("%s: model.model is required", prefix))
		}
	}

	return issues
}

func validateTurnOrder(config *Config) []string {
	var issues []string

	memberIDs := make(map[string]bool, len(config.Members))
	for _, member := range config.Members {
		memberIDs[member.ID] = true
	}

	if len(config.TurnOrder) != len(config.Members) {
		issues = append(issues, fmt.Sprintf("turnOrder has %d entries, want %d (one per member)", len(config.TurnOrder), len(config.Members)))
	}

	seen := make(map[string]bool, len(config.TurnOrder))
	for _, id := range config.TurnOrder {
		if !memberIDs[id] {
			issues = append(issues, fmt.Sprintf("turnOrder references unknown member id %q", id))
		}
		if seen[id] {
			issues = append(issues, fmt.Sprintf("turnOrder has duplicate member id %q", id))
		}
		seen[id] = true
	}

	return issues
}

func validatePhases(config *Config) []string {
	var issues []string

	if len(config.Phases) == 0 {
		issues = append(issues, "at least one phase is required")
		return issues
	}

	phaseIDs := make(map[string]bool, len(config.Phases))
	for index, phase := range config.Phases {
		prefix := fmt.Sprintf("phases[%d]", index)
		if phase.ID == "" {
			issues = append(issues, fmt.Sprintf("%s: id is required", prefix))
			continue
		}
		prefix = fmt.Sprintf("phases[%d] %q", index, phase.ID)
		if phaseIDs[phase.ID] {
			issues = append(issues, fmt.Sprintf("%s: duplicate phase id", prefix))
		}
		phaseIDs[phase.ID] = true

		if phase.Governance.MajorityThreshold <= 0 || phase.Governance.MajorityThreshold > 1 {
			issues = append(issues, fmt.Sprintf("%s: governance.majorityThreshold must be in (0, 1], got %v", prefix, phase.Governance.MajorityThreshold))
		}
		if phase.StopConditions.MaxRounds < 1 {
			issues = append(issues, fmt.Sprintf("%s: stopConditions.maxRounds must be >= 1", prefix))
		}

		switch phase.Fallback.Action {
		case FallbackEndSession:
		case FallbackTransition:
			if phase.Fallback.TransitionToPhaseID == "" {
				issues = append(issues, fmt.Sprintf("%s: fallback.action is TRANSITION but transitionToPhaseId is empty", prefix))
			}
		default:
			issues = append(issues, fmt.Sprintf("%s: fallback.action %q is not one of END_SESSION, TRANSITION", prefix, phase.Fallback.Action))
		}

		for transitionIndex, transition := range phase.Transitions {
			transitionPrefix := fmt.Sprintf("%s.transitions[%d]", prefix, transitionIndex)
			switch transition.When {
			case TriggerMajorityVote, TriggerRoundLimit, TriggerAlways:
			default:
				issues = append(issues, fmt.Sprintf("%s: when %q is not one of MAJORITY_VOTE, ROUND_LIMIT, ALWAYS", transitionPrefix, transition.When))
			}
			if transition.Priority < 0 {
				issues = append(issues, fmt.Sprintf("%s: priority must be >= 0", transitionPrefix))
			}
		}
	}

	if config.SessionPolicy.EntryPhaseID == "" {
		issues = append(issues, "sessionPolicy.entryPhaseId is required")
		return issues
	}
	if !phaseIDs[config.SessionPolicy.EntryPhaseID] {
		issues = append(issues, fmt.Sprintf("sessionPolicy.entryPhaseId %q does not reference a declared phase", config.SessionPolicy.EntryPhaseID))
		return issues
	}

	// Every transition target and fallback target must reference a
	// declared phase.
	for _, phase := range config.Phases {
		for _, transition := range phase.Transitions {
			if transition.To != "" && !phaseIDs[transition.To] {
				issues = append(issues, fmt.Sprintf("phase %q: transition target %q does not reference a declared phase", phase.ID, transition.To))
			}
		}
		if phase.Fallback.Action == FallbackTransition && phase.Fallback.TransitionToPhaseID != "" && !phaseIDs[phase.Fallback.TransitionToPhaseID] {
			issues = append(issues, fmt.Sprintf("phase %q: fallback.transitionToPhaseId %q does not reference a declared phase", phase.ID, phase.Fallback.TransitionToPhaseID))
		}
	}

	if unreachable := unreachablePhases(config); len(unreachable) > 0 {
		issues = append(issues, fmt.Sprintf("phases unreachable from entryPhaseId %q: %v", config.SessionPolicy.EntryPhaseID, unreachable))
	}

	return issues
}

// unreachablePhases returns the ids of declared phases not reachable
// from the entry phase by following transitions and fallback
// transitions. A phase graph with unreachable phases is rejected
// before any session activity.
func unreachablePhases(config *Config) []string {
	adjacency := make(map[string][]string, len(config.Phases))
	for _, phase := range config.Phases {
		var targets []string
		for _, transition := range phase.Transitions {
			targets = append(targets, transition.To)
		}
		if phase.Fallback.Action == FallbackTransition {
			targets = append(targets, phase.Fallback.TransitionToPhaseID)
		}
		adjacency[phase.ID] = targets
	}

	visited := map[string]bool{config.SessionPolicy.EntryPhaseID: true}
	queue := []string{config.SessionPolicy.EntryPhaseID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	for _, phase := range config.Phases {
		if !visited[phase.ID] {
			unreachable = append(unreachable, phase.ID)
		}
	}
	return unreachable
}
