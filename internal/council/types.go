// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package council holds the immutable configuration types for a
// deliberation session: the council itself, its members, and the
// phase graph they move through.
package council

// Config is the immutable, validated input to a session. The only
// change after [LoadConfig] returns is council-run's --output-type
// override, applied before the session starts; nothing mutates it
// during a session.
type Config struct {
	CouncilName string
	Purpose     string
	Members     []Member
	TurnOrder   []string // permutation of Member ids; nil means declaration order

	SessionPolicy SessionPolicy
	Phases        []Phase
	Output        OutputPolicy
	Documentation DocumentationReviewPolicy
	Storage       StoragePolicy
	Execution     ExecutionPolicy
}

// SessionPolicy governs phase sequencing bounds shared across the session.
type SessionPolicy struct {
	EntryPhaseID          string
	MaxPhaseTransitions   int // default 12
	PhaseContextVerbosity Verbosity
}

// Verbosity controls how much of the phase graph is injected into prompts.
type Verbosity string

const (
	VerbosityMinimal  Verbosity = "minimal"
	VerbosityStandard Verbosity = "standard"
	VerbosityFull     Verbosity = "full"
)

// OutputType selects whether the session produces reviewed documentation.
type OutputType string

const (
	OutputNone          OutputType = "none"
	OutputDocumentation OutputType = "documentation"
)

// OutputPolicy is the session's declared output shape.
type OutputPolicy struct {
	Type OutputType
}

// DocumentationReviewPolicy bounds the draft/review/revise loop that
// produces the session's documentation output.
type DocumentationReviewPolicy struct {
	MaxRevisionRounds int
}

// StoragePolicy names the on-disk roots for session and memory artifacts.
type StoragePolicy struct {
	RootDir   string
	MemoryDir string
}

// ExecutionPolicy gates whether a leader's execution brief is honored
// without an explicit human approval flag.
type ExecutionPolicy struct {
	RequireHumanApproval   bool
	DefaultExecutorProfile string
}

// ModelReference names which provider and model a member calls into.
type ModelReference struct {
	Provider    string // "anthropic", "openai", or "mock"
	Model       string
	Temperature *float64
}

// Member is one council participant.
type Member struct {
	ID           string
	Name         string
	Role         string
	SystemPrompt string
	Traits       []string
	FocusWeights map[string]float64
	Model        ModelReference
}

// TransitionTrigger names the condition under which a phase transition
// becomes eligible.
type TransitionTrigger string

const (
	TriggerMajorityVote TransitionTrigger = "MAJORITY_VOTE"
	TriggerRoundLimit   TransitionTrigger = "ROUND_LIMIT"
	TriggerAlways       TransitionTrigger = "ALWAYS"
)

// Transition is one outgoing edge of the phase graph.
type Transition struct {
	To       string
	When     TransitionTrigger
	Priority int
}

// FallbackAction names what happens when a phase closes with no
// eligible transition.
type FallbackAction string

const (
	FallbackEndSession FallbackAction = "END_SESSION"
	FallbackTransition FallbackAction = "TRANSITION"
)

// Fallback is the phase's answer to "no transition matched."
type Fallback struct {
	Resolution           string
	Action               FallbackAction
	TransitionToPhaseID  string
}

// Governance holds the seconding/voting rules for motions raised in a phase.
type Governance struct {
	RequireSeconding   bool
	MajorityThreshold  float64 // in (0, 1]
	AbstainCountsAsNo  bool
}

// StopConditions bound a phase's round loop.
type StopConditions struct {
	MaxRounds         int
	EndOnMajorityVote bool
}

// MemoryPolicy controls whether a phase reads/writes member or council memory.
type MemoryPolicy struct {
	ReadMemberMemory         bool
	WriteMemberMemory        bool
	WriteCouncilMemory       bool
	IncludePriorPhaseSummary bool
}

// EvidenceRequirements are quality gates checked against contributions.
type EvidenceRequirements struct {
	MinCitations             int
	RequireExplicitAssumptions bool
	RequireRiskRegister      bool
}

// Deliverable is one required output of a phase, used both for
// evidence-gap reporting and for documentation-draft structure checks.
type Deliverable struct {
	ID          string
	Description string
	Required    bool
}

// Phase is one node in the deliberation graph.
type Phase struct {
	ID                   string
	Goal                 string
	PromptGuidance       []string
	Deliverables         []Deliverable
	Governance           Governance
	StopConditions       StopConditions
	MemoryPolicy         MemoryPolicy
	EvidenceRequirements EvidenceRequirements
	QualityGates         []string
	Fallback             Fallback
	Transitions          []Transition
}
