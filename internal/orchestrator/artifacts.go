// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/council-engine/council/internal/docreview"
	"github.com/council-engine/council/internal/protocol"
)

// sessionArtifact is the shape written to session.json: the synthesis
// a reader needs without replaying events.json — who led, how each
// phase ended, whether the session's outputs were approved, and where
// to find everything else on disk.
type sessionArtifact struct {
	SessionID             string                 `json:"sessionId"`
	LeaderID              string                 `json:"leaderId"`
	PhaseResults          []protocol.PhaseResult `json:"phaseResults"`
	EndedBy               protocol.EndedBy       `json:"endedBy"`
	FinalResolution       string                 `json:"finalResolution"`
	RequiresExecution     bool                   `json:"requiresExecution"`
	DocumentationApproved *bool                  `json:"documentationApproved,omitempty"`
	ExecutionApproved     *bool                  `json:"executionApproved,omitempty"`
	ArtifactPaths         map[string]string      `json:"artifactPaths"`
}

// writeSessionArtifact writes session.json, the final session state
// document. It is written last, after every artifact path it names
// has already landed on disk.
func writeSessionArtifact(sessionDir string, result Result) error {
	lastResult := result.PhaseResults[len(result.PhaseResults)-1]

	artifactPaths := map[string]string{
		"transcript": "transcript.md",
		"events":     "events.json",
		"summary":    "leader-summary.md",
	}
	var documentationApproved *bool
	if result.Documentation != nil {
		artifactPaths["documentation"] = "documentation.md"
		documentationApproved = &result.Documentation.Approved
	}
	var executionApproved *bool
	if result.Execution != nil {
		artifactPaths["executionHandoff"] = "execution-handoff.json"
		executionApproved = &result.Execution.Approved
	}

	artifact := sessionArtifact{
		SessionID:             result.SessionID,
		LeaderID:              result.LeaderID,
		PhaseResults:          result.PhaseResults,
		EndedBy:               lastResult.EndedBy,
		FinalResolution:       lastResult.FinalResolution,
		RequiresExecution:     result.Summary.RequiresExecution,
		DocumentationApproved: documentationApproved,
		ExecutionApproved:     executionApproved,
		ArtifactPaths:         artifactPaths,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshaling session.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "session.json"), data, 0o644); err != nil {
		return fmt.Errorf("orchestrator: writing session.json: %w", err)
	}
	return nil
}

// writeLeaderSummaryArtifact writes leader-summary.md: the leader's
// closing statement as the markdown prose it was drafted in, not the
// JSON envelope it arrived wrapped in.
func writeLeaderSummaryArtifact(sessionDir string, summary protocol.LeaderSummary) error {
	if err := os.WriteFile(filepath.Join(sessionDir, "leader-summary.md"), []byte(summary.SummaryMarkdown), 0o644); err != nil {
		return fmt.Errorf("orchestrator: writing leader-summary.md: %w", err)
	}
	return nil
}

// writeExecutionHandoffArtifact writes execution-handoff.json,
// present only when the leader summary declared requiresExecution.
func writeExecutionHandoffArtifact(sessionDir string, handoff protocol.ExecutionHandoff) error {
	data, err := json.MarshalIndent(handoff, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshaling execution-handoff.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "execution-handoff.json"), data, 0o644); err != nil {
		return fmt.Errorf("orchestrator: writing execution-handoff.json: %w", err)
	}
	return nil
}

// writeDocumentationArtifact writes the final reviewed draft to
// documentation.md, whether or not it was ultimately approved — an
// unapproved draft is still the best available account of what the
// council produced, and it is marked as such in a leading note. The
// per-revision drafts and review feedback live alongside it, written
// by the docreview package as the loop runs.
func writeDocumentationArtifact(sessionDir string, result docreview.Result) error {
	content := result.FinalDraft
	if !result.Approved {
		content = "<!-- unapproved after exhausting the revision budget -->\n\n" + content
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "documentation.md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("orchestrator: writing documentation.md: %w", err)
	}
	return nil
}
