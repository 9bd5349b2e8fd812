// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// ConfigError reports one or more problems found while loading or
// validating a council configuration. It is returned before any
// session activity starts, per the config-error taxonomy.
type ConfigError struct {
	Issues []string
}

func (err *ConfigError) Error() string {
	if len(err.Issues) == 1 {
		return fmt.Sprintf("council config: %s", err.Issues[0])
	}
	return fmt.Sprintf("council config: %d issues, first: %s", len(err.Issues), err.Issues[0])
}

// ExitCode marks ConfigError as a CLI-distinguishable failure class
// (bad input, not a runtime fault).
func (err *ConfigError) ExitCode() int { return 2 }

// LoadConfig reads a JSONC council configuration file, validates it,
// and returns an immutable Config. Comments and trailing commas are
// tolerated since operators hand-author these files.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	stripped := jsonc.ToJSON(data)

	var wire wireConfig
	if err := json.Unmarshal(stripped, &wire); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	config := wire.toConfig()

	if issues := Validate(config); len(issues) > 0 {
		return nil, &ConfigError{Issues: issues}
	}

	return config, nil
}

// --- wire format ---
//
// The wire structs mirror the JSON key list in the configuration
// section verbatim (camelCase on the wire, exported Go names in the
// domain type). Kept separate from Config so the domain type can stay
// free of json tags and zero-value ambiguity (e.g. distinguishing an
// absent turnOrder from an empty one is not needed once loaded).

type wireConfig struct {
	CouncilName   string                       `json:"councilName"`
	Purpose       string                       `json:"purpose"`
	SessionPolicy wireSessionPolicy            `json:"sessionPolicy"`
	Phases        []wirePhase                  `json:"phases"`
	Output        wireOutputPolicy             `json:"output"`
	Documentation wireDocumentationReview      `json:"documentationReview"`
	Members       []wireMember                 `json:"members"`
	TurnOrder     []string                     `json:"turnOrder,omitempty"`
	Storage       wireStoragePolicy            `json:"storage"`
	Execution     wireExecutionPolicy          `json:"execution"`
}

type wireSessionPolicy struct {
	EntryPhaseID          string `json:"entryPhaseId"`
	MaxPhaseTransitions   int    `json:"maxPhaseTransitions"`
	PhaseContextVerbosity string `json:"phaseContextVerbosity"`
}

type wireOutputPolicy struct {
	Type string `json:"type"`
}

type wireDocumentationReview struct {
	MaxRevisionRounds int `json:"maxRevisionRounds"`
}

type wireStoragePolicy struct {
	RootDir   string `json:"rootDir"`
	MemoryDir string `json:"memoryDir"`
}

type wireExecutionPolicy struct {
	RequireHumanApproval   bool   `json:"requireHumanApproval"`
	DefaultExecutorProfile string `json:"defaultExecutorProfile"`
}

type wireModelReference struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type wireMember struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Role         string             `json:"role"`
	SystemPrompt string             `json:"systemPrompt"`
	Traits       []string           `json:"traits,omitempty"`
	FocusWeights map[string]float64 `json:"focusWeights,omitempty"`
	Model        wireModelReference `json:"model"`
}

type wireDeliverable struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type wireGovernance struct {
	RequireSeconding  bool    `json:"requireSeconding"`
	MajorityThreshold float64 `json:"majorityThreshold"`
	AbstainCountsAsNo bool    `json:"abstainCountsAsNo"`
}

type wireStopConditions struct {
	MaxRounds         int  `json:"maxRounds"`
	EndOnMajorityVote bool `json:"endOnMajorityVote"`
}

type wireMemoryPolicy struct {
	ReadMemberMemory         bool `json:"readMemberMemory"`
	WriteMemberMemory        bool `json:"writeMemberMemory"`
	WriteCouncilMemory       bool `json:"writeCouncilMemory"`
	IncludePriorPhaseSummary bool `json:"includePriorPhaseSummary"`
}

type wireEvidenceRequirements struct {
	MinCitations               int  `json:"minCitations"`
	RequireExplicitAssumptions bool `json:"requireExplicitAssumptions"`
	RequireRiskRegister        bool `json:"requireRiskRegister"`
}

type wireFallback struct {
	Resolution          string `json:"resolution"`
	Action              string `json:"action"`
	TransitionToPhaseID string `json:"transitionToPhaseId,omitempty"`
}

type wireTransition struct {
	To       string `json:"to"`
	When     string `json:"when"`
	Priority int    `json:"priority"`
}

type wirePhase struct {
	ID                   string                   `json:"id"`
	Goal                 string                   `json:"goal"`
	PromptGuidance       []string                 `json:"promptGuidance,omitempty"`
	Deliverables         []wireDeliverable        `json:"deliverables,omitempty"`
	Governance           wireGovernance           `json:"governance"`
	StopConditions       wireStopConditions       `json:"stopConditions"`
	MemoryPolicy         wireMemoryPolicy         `json:"memoryPolicy"`
	EvidenceRequirements wireEvidenceRequirements `json:"evidenceRequirements"`
	QualityGates         []string                 `json:"qualityGates,omitempty"`
	Fallback             wireFallback             `json:"fallback"`
	Transitions          []wireTransition         `json:"transitions,omitempty"`
}

func (wire *wireConfig) toConfig() *Config {
	config := &Config{
		CouncilName: wire.CouncilName,
		Purpose:     wire.Purpose,
		TurnOrder:   wire.TurnOrder,
		SessionPolicy: SessionPolicy{
			EntryPhaseID:          wire.SessionPolicy.EntryPhaseID,
			MaxPhaseTransitions:   wire.SessionPolicy.MaxPhaseTransitions,
			PhaseContextVerbosity: Verbosity(wire.SessionPolicy.PhaseContextVerbosity),
		},
		Output: OutputPolicy{Type: OutputType(wire.Output.Type)},
		Documentation: DocumentationReviewPolicy{
			MaxRevisionRounds: wire.Documentation.MaxRevisionRounds,
		},
		Storage: StoragePolicy{
			RootDir:   wire.Storage.RootDir,
			MemoryDir: wire.Storage.MemoryDir,
		},
		Execution: ExecutionPolicy{
			RequireHumanApproval:   wire.Execution.RequireHumanApproval,
			DefaultExecutorProfile: wire.Execution.DefaultExecutorProfile,
		},
	}

	if config.SessionPolicy.MaxPhaseTransitions == 0 {
		config.SessionPolicy.MaxPhaseTransitions = 12
	}
	if config.SessionPolicy.PhaseContextVerbosity == "" {
		config.SessionPolicy.PhaseContextVerbosity = VerbosityStandard
	}

	for _, wireMember := range wire.Members {
		config.Members = append(config.Members, Member{
			ID:           wireMember.ID,
			Name:         wireMember.Name,
			Role:         wireMember.Role,
			SystemPrompt: wireMember.SystemPrompt,
			Traits:       wireMember.Traits,
			FocusWeights: wireMember.FocusWeights,
			Model: ModelReference{
				Provider:    wireMember.Model.Provider,
				Model:       wireMember.Model.Model,
				Temperature: wireMember.Model.Temperature,
			},
		})
	}

	for _, wirePhase := range wire.Phases {
		phase := Phase{
			ID:             wirePhase.ID,
			Goal:           wirePhase.Goal,
			PromptGuidance: wirePhase.PromptGuidance,
			QualityGates:   wirePhase.QualityGates,
			Governance: Governance{
				RequireSeconding:  wirePhase.Governance.RequireSeconding,
				MajorityThreshold: wirePhase.Governance.MajorityThreshold,
				AbstainCountsAsNo: wirePhase.Governance.AbstainCountsAsNo,
			},
			StopConditions: StopConditions{
				MaxRounds:         wirePhase.StopConditions.MaxRounds,
				EndOnMajorityVote: wirePhase.StopConditions.EndOnMajorityVote,
			},
			MemoryPolicy: MemoryPolicy{
				ReadMemberMemory:         wirePhase.MemoryPolicy.ReadMemberMemory,
				WriteMemberMemory:        wirePhase.MemoryPolicy.WriteMemberMemory,
				WriteCouncilMemory:       wirePhase.MemoryPolicy.WriteCouncilMemory,
				IncludePriorPhaseSummary: wirePhase.MemoryPolicy.IncludePriorPhaseSummary,
			},
			EvidenceRequirements: EvidenceRequirements{
				MinCitations:               wirePhase.EvidenceRequirements.MinCitations,
				RequireExplicitAssumptions: wirePhase.EvidenceRequirements.RequireExplicitAssumptions,
				RequireRiskRegister:        wirePhase.EvidenceRequirements.RequireRiskRegister,
			},
			Fallback: Fallback{
				Resolution:          wirePhase.Fallback.Resolution,
				Action:              FallbackAction(wirePhase.Fallback.Action),
				TransitionToPhaseID: wirePhase.Fallback.TransitionToPhaseID,
			},
		}
		for _, deliverable := range wirePhase.Deliverables {
			phase.Deliverables = append(phase.Deliverables, Deliverable{
				ID:          deliverable.ID,
				Description: deliverable.Description,
				Required:    deliverable.Required,
			})
		}
		for _, transition := range wirePhase.Transitions {
			phase.Transitions = append(phase.Transitions, Transition{
				To:       transition.To,
				When:     TransitionTrigger(transition.When),
				Priority: transition.Priority,
			})
		}
		config.Phases = append(config.Phases, phase)
	}

	return config
}
