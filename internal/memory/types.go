// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory persists bounded, structured per-member and
// council-wide knowledge across sessions, and derives the
// prompt-context snapshot injected into a member's turn prompts.
//
// Records are written only at session close (RecordSession); they are
// read only at the start of the next session (PromptContext). There
// are no mid-session writes, matching the "read on turn entry, written
// once at session close" contract.
package memory

import "time"

// Kind is the closed set of things a memory record can represent.
type Kind string

const (
	KindPreference  Kind = "preference"
	KindConstraint  Kind = "constraint"
	KindDecision    Kind = "decision"
	KindAssumption  Kind = "assumption"
	KindRiskPattern Kind = "risk_pattern"
	KindLesson      Kind = "lesson"
	KindOpenLoop    Kind = "open_loop"
	KindOutcome     Kind = "outcome"
)

// Status is a record's lifecycle state. Only Active records
// contribute to a derived PromptContext; the others remain on disk
// for audit but are never rendered into a prompt.
type Status string

const (
	StatusActive     Status = "active"
	StatusResolved   Status = "resolved"
	StatusSuperseded Status = "superseded"
	StatusStale      Status = "stale"
)

// Record is a single durable knowledge item, either scoped to one
// member or to the council as a whole. ID is stable across upserts —
// the same ID upserted twice replaces the prior value rather than
// duplicating it, which is what lets a later session mark an
// open_loop record Resolved instead of piling up a new row.
type Record struct {
	ID          string
	Kind        Kind
	Status      Status
	Summary     string
	Importance  int // 1-5
	Confidence  float64
	EvidenceIDs []string // session ids that produced or reinforced this record
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// perMemberBound and councilBound are the prune policy's record caps.
const (
	perMemberBound = 80
	councilBound   = 80

	memberDigestBound  = 40
	councilDigestBound = 50

	fadeWindowSessions = 25
)

// PromptContext is the derived, capped snapshot read on turn entry.
// Bucket caps are fixed: 4 constraints, 5 decisions, 4 risks and
// assumptions, 4 open loops, 3 preferences, 3 anti-patterns.
type PromptContext struct {
	Constraints        []string
	Decisions          []string
	RisksAndAssumptions []string
	OpenLoops          []string
	Preferences        []string
	AntiPatterns       []string
}

const (
	capConstraints = 4
	capDecisions   = 5
	capRisks       = 4
	capOpenLoops   = 4
	capPreferences = 3
	capAntiPattern = 3
)
