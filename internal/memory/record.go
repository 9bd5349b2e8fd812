// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SessionInput is what the orchestrator hands to RecordSession once,
// at session close.
type SessionInput struct {
	SessionID       string
	FinalResolution string
	MemberIDs       []string // declaration order, all council members

	// LastMessageByMember holds the last MESSAGE_CONTRIBUTED text per
	// member, when that member contributed at least once this session.
	LastMessageByMember map[string]string

	// ParseFallbackMembers lists members that hit the JSON
	// parse-fallback path at least once this session.
	ParseFallbackMembers []string

	EndedByRoundLimit bool

	RequiresExecution bool
	ApproveExecution  bool
}

// RecordSession applies the fixed set of upserts described by the
// memory policy, then re-applies the prune bound. It is the only
// method that writes to the store.
func (s *Store) RecordSession(ctx context.Context, input SessionInput) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	now := s.clock.Now()

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("memory: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	// Council-level session-decision record.
	if err = s.upsertCouncil(conn, Record{
		ID:          "decision:" + input.SessionID,
		Kind:        KindDecision,
		Status:      StatusActive,
		Summary:     input.FinalResolution,
		Importance:  5,
		Confidence:  0.9,
		EvidenceIDs: []string{input.SessionID},
	}, now); err != nil {
		return err
	}

	// Per-member stance record.
	for _, memberID := range input.MemberIDs {
		message, contributed := input.LastMessageByMember[memberID]
		summary := "No contribution recorded this session."
		if contributed && message != "" {
			summary = message
		}
		if err = s.upsertMember(conn, memberID, Record{
			ID:          "outcome:" + input.SessionID + ":" + memberID,
			Kind:        KindOutcome,
			Status:      StatusActive,
			Summary:     summary,
			Importance:  3,
			Confidence:  0.7,
			EvidenceIDs: []string{input.SessionID},
		}, now); err != nil {
			return err
		}
	}

	// Reliability risk per flagged member, plus one council-level
	// cross-agent lesson if any member hit the fallback path.
	if len(input.ParseFallbackMembers) > 0 {
		for _, memberID := range input.ParseFallbackMembers {
			if err = s.upsertMember(conn, memberID, Record{
				ID:          "risk_pattern:parse_fallback:" + memberID,
				Kind:        KindRiskPattern,
				Status:      StatusActive,
				Summary:     "This member has produced unparseable JSON responses and fell back to a deterministic default at least once.",
				Importance:  4,
				Confidence:  0.6,
				EvidenceIDs: []string{input.SessionID},
			}, now); err != nil {
				return err
			}
		}
		if err = s.upsertCouncil(conn, Record{
			ID:          "lesson:parse_fallback:" + input.SessionID,
			Kind:        KindLesson,
			Status:      StatusActive,
			Summary:     "One or more members returned unparseable JSON this session; prompts should keep reinforcing the single-line JSON contract.",
			Importance:  3,
			Confidence:  0.6,
			EvidenceIDs: []string{input.SessionID},
		}, now); err != nil {
			return err
		}
	}

	if input.EndedByRoundLimit {
		if err = s.upsertCouncil(conn, Record{
			ID:          "open_loop:" + input.SessionID,
			Kind:        KindOpenLoop,
			Status:      StatusActive,
			Summary:     "The session exhausted its round limit without reaching a passing motion; consensus on \"" + input.FinalResolution + "\" remains unreached.",
			Importance:  4,
			Confidence:  0.8,
			EvidenceIDs: []string{input.SessionID},
		}, now); err != nil {
			return err
		}
	}

	if input.RequiresExecution {
		record := Record{
			ID:          "execution:" + input.SessionID,
			Kind:        KindOpenLoop,
			Status:      StatusActive,
			Summary:     "The council requested execution of its resolution; approval is still pending.",
			Importance:  4,
			Confidence:  0.8,
			EvidenceIDs: []string{input.SessionID},
		}
		if input.ApproveExecution {
			record.Kind = KindOutcome
			record.Status = StatusResolved
			record.Summary = "The council requested execution of its resolution; execution was approved."
		}
		if err = s.upsertCouncil(conn, record, now); err != nil {
			return err
		}
	}

	// Session digest, per member and council-wide.
	for _, memberID := range input.MemberIDs {
		if err = s.appendDigest(conn, memberID, input.SessionID, input.FinalResolution, now); err != nil {
			return err
		}
	}
	if err = s.appendDigest(conn, "", input.SessionID, input.FinalResolution, now); err != nil {
		return err
	}

	if err = s.pruneCouncil(conn); err != nil {
		return err
	}
	for _, memberID := range input.MemberIDs {
		if err = s.pruneMember(conn, memberID); err != nil {
			return err
		}
	}
	if err = s.pruneDigest(conn, "", councilDigestBound); err != nil {
		return err
	}
	for _, memberID := range input.MemberIDs {
		if err = s.pruneDigest(conn, memberID, memberDigestBound); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) upsertMember(conn *sqlite.Conn, memberID string, record Record, now time.Time) error {
	evidence, err := json.Marshal(record.EvidenceIDs)
	if err != nil {
		return fmt.Errorf("memory: marshal evidence: %w", err)
	}
	return sqlitex.Execute(conn, `
		INSERT INTO member_memory (member_id, id, kind, status, summary, importance, confidence, evidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id, id) DO UPDATE SET
			kind=excluded.kind, status=excluded.status, summary=excluded.summary,
			importance=excluded.importance, confidence=excluded.confidence,
			evidence=excluded.evidence, updated_at=excluded.updated_at
	`, &sqlitex.ExecOptions{
		Args: []any{memberID, record.ID, string(record.Kind), string(record.Status), record.Summary,
			record.Importance, record.Confidence, string(evidence), now.Unix(), now.Unix()},
	})
}

func (s *Store) upsertCouncil(conn *sqlite.Conn, record Record, now time.Time) error {
	evidence, err := json.Marshal(record.EvidenceIDs)
	if err != nil {
		return fmt.Errorf("memory: marshal evidence: %w", err)
	}
	return sqlitex.Execute(conn, `
		INSERT INTO council_memory (id, kind, status, summary, importance, confidence, evidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, status=excluded.status, summary=excluded.summary,
			importance=excluded.importance, confidence=excluded.confidence,
			evidence=excluded.evidence, updated_at=excluded.updated_at
	`, &sqlitex.ExecOptions{
		Args: []any{record.ID, string(record.Kind), string(record.Status), record.Summary,
			record.Importance, record.Confidence, string(evidence), now.Unix(), now.Unix()},
	})
}

func (s *Store) appendDigest(conn *sqlite.Conn, memberID, sessionID, summary string, now time.Time) error {
	return sqlitex.Execute(conn, `
		INSERT INTO session_digest (member_id, session_id, summary, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id, session_id) DO UPDATE SET summary=excluded.summary, created_at=excluded.created_at
	`, &sqlitex.ExecOptions{Args: []any{memberID, sessionID, summary, now.Unix()}})
}

// pruneMember keeps the top perMemberBound rows for memberID, ranked
// by (importance desc, updated_at desc).
func (s *Store) pruneMember(conn *sqlite.Conn, memberID string) error {
	return sqlitex.Execute(conn, `
		DELETE FROM member_memory
		WHERE member_id = ? AND id NOT IN (
			SELECT id FROM member_memory WHERE member_id = ?
			ORDER BY importance DESC, updated_at DESC LIMIT ?
		)
	`, &sqlitex.ExecOptions{Args: []any{memberID, memberID, perMemberBound}})
}

func (s *Store) pruneCouncil(conn *sqlite.Conn) error {
	return sqlitex.Execute(conn, `
		DELETE FROM council_memory
		WHERE id NOT IN (
			SELECT id FROM council_memory ORDER BY importance DESC, updated_at DESC LIMIT ?
		)
	`, &sqlitex.ExecOptions{Args: []any{councilBound}})
}

func (s *Store) pruneDigest(conn *sqlite.Conn, memberID string, bound int) error {
	return sqlitex.Execute(conn, `
		DELETE FROM session_digest
		WHERE member_id = ? AND session_id NOT IN (
			SELECT session_id FROM session_digest WHERE member_id = ?
			ORDER BY created_at DESC LIMIT ?
		)
	`, &sqlitex.ExecOptions{Args: []any{memberID, memberID, bound}})
}
