// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// PromptContext derives the bounded, bucketed snapshot for memberID.
// Only Active records are eligible, and a record contributes only if
// at least one of its evidence session ids is among the
// fadeWindowSessions most recent sessions recorded for memberID.
func (s *Store) PromptContext(ctx context.Context, memberID string) (PromptContext, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return PromptContext{}, err
	}
	defer s.pool.Put(conn)

	recentSessions, err := s.recentSessionIDs(conn, memberID, fadeWindowSessions)
	if err != nil {
		return PromptContext{}, err
	}

	records, err := s.activeMemberRecords(conn, memberID)
	if err != nil {
		return PromptContext{}, err
	}

	return bucketRecords(records, recentSessions), nil
}

// CouncilPromptContext derives the council-wide snapshot, following
// the same rules against the council-wide session digest.
func (s *Store) CouncilPromptContext(ctx context.Context) (PromptContext, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return PromptContext{}, err
	}
	defer s.pool.Put(conn)

	recentSessions, err := s.recentSessionIDs(conn, "", fadeWindowSessions)
	if err != nil {
		return PromptContext{}, err
	}

	records, err := s.activeCouncilRecords(conn)
	if err != nil {
		return PromptContext{}, err
	}

	return bucketRecords(records, recentSessions), nil
}

func (s *Store) recentSessionIDs(conn *sqlite.Conn, memberID string, limit int) (map[string]bool, error) {
	recent := make(map[string]bool, limit)
	err := sqlitex.Execute(conn, `
		SELECT session_id FROM session_digest WHERE member_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, &sqlitex.ExecOptions{
		Args: []any{memberID, limit},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			recent[stmt.ColumnText(0)] = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: recent sessions: %w", err)
	}
	return recent, nil
}

func (s *Store) activeMemberRecords(conn *sqlite.Conn, memberID string) ([]Record, error) {
	var records []Record
	err := sqlitex.Execute(conn, `
		SELECT id, kind, status, summary, importance, confidence, evidence
		FROM member_memory WHERE member_id = ? AND status = ?
		ORDER BY importance DESC, updated_at DESC
	`, &sqlitex.ExecOptions{
		Args: []any{memberID, string(StatusActive)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record, err := scanRecord(stmt)
			if err != nil {
				return err
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: active member records: %w", err)
	}
	return records, nil
}

func (s *Store) activeCouncilRecords(conn *sqlite.Conn) ([]Record, error) {
	var records []Record
	err := sqlitex.Execute(conn, `
		SELECT id, kind, status, summary, importance, confidence, evidence
		FROM council_memory WHERE status = ?
		ORDER BY importance DESC, updated_at DESC
	`, &sqlitex.ExecOptions{
		Args: []any{string(StatusActive)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record, err := scanRecord(stmt)
			if err != nil {
				return err
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: active council records: %w", err)
	}
	return records, nil
}

func scanRecord(stmt *sqlite.Stmt) (Record, error) {
	var record Record
	record.ID = stmt.ColumnText(0)
	record.Kind = Kind(stmt.ColumnText(1))
	record.Status = Status(stmt.ColumnText(2))
	record.Summary = stmt.ColumnText(3)
	record.Importance = stmt.ColumnInt(4)
	record.Confidence = stmt.ColumnFloat(5)
	if err := json.Unmarshal([]byte(stmt.ColumnText(6)), &record.EvidenceIDs); err != nil {
		return record, fmt.Errorf("unmarshal evidence for %s: %w", record.ID, err)
	}
	return record, nil
}

// bucketRecords partitions records into the six fixed prompt-context
// buckets, keeping only records with evidence inside recentSessions,
// and applies each bucket's cap.
func bucketRecords(records []Record, recentSessions map[string]bool) PromptContext {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Importance > records[j].Importance })

	var context PromptContext
	for _, record := range records {
		if !hasRecentEvidence(record, recentSessions) {
			continue
		}
		switch record.Kind {
		case KindConstraint:
			context.Constraints = appendCapped(context.Constraints, record.Summary, capConstraints)
		case KindDecision, KindOutcome:
			context.Decisions = appendCapped(context.Decisions, record.Summary, capDecisions)
		case KindRiskPattern, KindAssumption:
			context.RisksAndAssumptions = appendCapped(context.RisksAndAssumptions, record.Summary, capRisks)
		case KindOpenLoop:
			context.OpenLoops = appendCapped(context.OpenLoops, record.Summary, capOpenLoops)
		case KindPreference:
			context.Preferences = appendCapped(context.Preferences, record.Summary, capPreferences)
		case KindLesson:
			context.AntiPatterns = appendCapped(context.AntiPatterns, record.Summary, capAntiPattern)
		}
	}
	return context
}

func hasRecentEvidence(record Record, recentSessions map[string]bool) bool {
	for _, sessionID := range record.EvidenceIDs {
		if recentSessions[sessionID] {
			return true
		}
	}
	return false
}

func appendCapped(bucket []string, value string, limit int) []string {
	if len(bucket) >= limit {
		return bucket
	}
	return append(bucket, value)
}
