// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		CouncilName: "Test Council",
		Purpose:     "decide things",
		Members: []Member{
			{ID: "alice", SystemPrompt: "You are Alice.", Model: ModelReference{Provider: "mock", Model: "mock-1"}},
			{ID: "bob", SystemPrompt: "You are Bob.", Model: ModelReference{Provider: "mock", Model: "mock-1"}},
			{ID: "carol", SystemPrompt: "You are Carol.", Model: ModelReference{Provider: "mock", Model: "mock-1"}},
		},
		TurnOrder: []string{"alice", "bob", "carol"},
		SessionPolicy: SessionPolicy{
			EntryPhaseID:          "discuss",
			MaxPhaseTransitions:   12,
			PhaseContextVerbosity: VerbosityStandard,
		},
		Phases: []Phase{{
			ID: "discuss",
			Governance: Governance{
				MajorityThreshold: 0.5,
			},
			StopConditions: StopConditions{MaxRounds: 3},
			Fallback:       Fallback{Action: FallbackEndSession, Resolution: "no motion passed"},
		}},
		Output:        OutputPolicy{Type: OutputNone},
		Documentation: DocumentationReviewPolicy{MaxRevisionRounds: 1},
	}
}

func TestValidateAcceptsAWellFormedConfig(t *testing.T) {
	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("Validate() = %v, want no issues", issues)
	}
}

func TestValidateRequiresNameAndPurpose(t *testing.T) {
	config := validConfig()
	config.CouncilName = ""
	config.Purpose = ""

	issues := Validate(config)
	assertContains(t, issues, "councilName is required")
	assertContains(t, issues, "purpose is required")
}

func TestValidateRejectsEvenMemberCount(t *testing.T) {
	config := validConfig()
	config.Members = append(config.Members, Member{ID: "dave", SystemPrompt: "You are Dave.", Model: ModelReference{Provider: "mock", Model: "mock-1"}})
	config.TurnOrder = append(config.TurnOrder, "dave")

	issues := Validate(config)
	assertContainsSubstring(t, issues, "odd number of members")
}

func TestValidateRejectsFewerThanThreeMembers(t *testing.T) {
	config := validConfig()
	config.Members = config.Members[:1]
	config.TurnOrder = config.TurnOrder[:1]

	issues := Validate(config)
	assertContainsSubstring(t, issues, "odd number of members")
}

func TestValidateRejectsDuplicateMemberID(t *testing.T) {
	config := validConfig()
	config.Members[2].ID = "alice"

	issues := Validate(config)
	assertContainsSubstring(t, issues, "duplicate member id")
}

func TestValidateRejectsMissingMemberFields(t *testing.T) {
	config := validConfig()
	config.Members[0].SystemPrompt = ""
	config.Members[1].Model.Provider = ""
	config.Members[2].Model.Model = ""

	issues := Validate(config)
	assertContainsSubstring(t, issues, "systemPrompt is required")
	assertContainsSubstring(t, issues, "model.provider is required")
	assertContainsSubstring(t, issues, "model.model is required")
}

func TestValidateRejectsBadTurnOrder(t *testing.T) {
	config := validConfig()
	config.TurnOrder = []string{"alice", "alice", "unknown", "carol"}

	issues := Validate(config)
	assertContainsSubstring(t, issues, "duplicate member id")
	assertContainsSubstring(t, issues, "unknown member id")
	assertContainsSubstring(t, issues, "has 4 entries, want 3")
}

func TestValidateRejectsNoPhases(t *testing.T) {
	config := validConfig()
	config.Phases = nil

	issues := Validate(config)
	assertContains(t, issues, "at least one phase is required")
}

func TestValidateRejectsBadMajorityThreshold(t *testing.T) {
	config := validConfig()
	config.Phases[0].Governance.MajorityThreshold = 1.5

	issues := Validate(config)
	assertContainsSubstring(t, issues, "majorityThreshold must be in (0, 1]")
}

func TestValidateRejectsUnknownEntryPhase(t *testing.T) {
	config := validConfig()
	config.SessionPolicy.EntryPhaseID = "nonexistent"

	issues := Validate(config)
	assertContainsSubstring(t, issues, "does not reference a declared phase")
}

func TestValidateRejectsTransitionToUnknownPhase(t *testing.T) {
	config := validConfig()
	config.Phases[0].Transitions = []Transition{{To: "nowhere", When: TriggerMajorityVote}}

	issues := Validate(config)
	assertContainsSubstring(t, issues, `transition target "nowhere" does not reference a declared phase`)
}

func TestValidateRejectsUnreachablePhase(t *testing.T) {
	config := validConfig()
	config.Phases = append(config.Phases, Phase{
		ID:             "orphan",
		Governance:     Governance{MajorityThreshold: 0.5},
		StopConditions: StopConditions{MaxRounds: 1},
		Fallback:       Fallback{Action: FallbackEndSession},
	})

	issues := Validate(config)
	assertContainsSubstring(t, issues, "unreachable from entryPhaseId")
}

func TestValidateRejectsFallbackTransitionWithoutTarget(t *testing.T) {
	config := validConfig()
	config.Phases[0].Fallback = Fallback{Action: FallbackTransition}

	issues := Validate(config)
	assertContainsSubstring(t, issues, "transitionToPhaseId is empty")
}

func assertContains(t *testing.T, issues []string, want string) {
	t.Helper()
	for _, issue := range issues {
		if issue == want {
			return
		}
	}
	t.Errorf("issues %v do not contain %q", issues, want)
}

func assertContainsSubstring(t *testing.T, issues []string, want string) {
	t.Helper()
	for _, issue := range issues {
		if strings.Contains(issue, want) {
			return
		}
	}
	t.Errorf("issues %v do not contain a substring %q", issues, want)
}
