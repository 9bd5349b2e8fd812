// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// snapshotDocument is the canonical JSON shape behind MEMORY.json and
// COUNCIL.json.
type snapshotDocument struct {
	Records []Record `json:"records"`
}

// RenderMember writes <memoryDir>/<memberID>/MEMORY.json and
// MEMORY.md, and seeds AGENT.md with profile if the file is absent.
func (s *Store) RenderMember(ctx context.Context, memoryDir, memberID, role, systemPrompt string) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	records, err := s.activeMemberRecords(conn, memberID)
	s.pool.Put(conn)
	if err != nil {
		return err
	}

	dir := filepath.Join(memoryDir, memberID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("memory: creating %s: %w", dir, err)
	}

	if err := writeSnapshot(dir, "MEMORY", records, renderMemberMarkdown); err != nil {
		return err
	}

	agentPath := filepath.Join(dir, "AGENT.md")
	if _, err := os.Stat(agentPath); os.IsNotExist(err) {
		profile := fmt.Sprintf("# %s\n\n**Role:** %s\n\n## System Prompt\n\n%s\n", memberID, role, systemPrompt)
		if err := os.WriteFile(agentPath, []byte(profile), 0o644); err != nil {
			return fmt.Errorf("memory: writing AGENT.md: %w", err)
		}
	}

	return nil
}

// RenderCouncil writes <memoryDir>/COUNCIL.json and COUNCIL.md.
func (s *Store) RenderCouncil(ctx context.Context, memoryDir string) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	records, err := s.activeCouncilRecords(conn)
	s.pool.Put(conn)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(memoryDir, 0o755); err != nil {
		return fmt.Errorf("memory: creating %s: %w", memoryDir, err)
	}

	return writeSnapshot(memoryDir, "COUNCIL", records, renderCouncilMarkdown)
}

func writeSnapshot(dir, baseName string, records []Record, renderMarkdown func([]Record) string) error {
	data, err := json.MarshalIndent(snapshotDocument{Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal %s.json: %w", baseName, err)
	}
	if err := os.WriteFile(filepath.Join(dir, baseName+".json"), data, 0o644); err != nil {
		return fmt.Errorf("memory: writing %s.json: %w", baseName, err)
	}

	markdown := renderMarkdown(records)
	if err := os.WriteFile(filepath.Join(dir, baseName+".md"), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("memory: writing %s.md: %w", baseName, err)
	}
	return nil
}

func renderMemberMarkdown(records []Record) string {
	return renderRecordsMarkdown("Member Memory", records)
}

func renderCouncilMarkdown(records []Record) string {
	return renderRecordsMarkdown("Council Memory", records)
}

func renderRecordsMarkdown(title string, records []Record) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s\n\n", title)

	byKind := make(map[Kind][]Record)
	var order []Kind
	for _, record := range records {
		if _, seen := byKind[record.Kind]; !seen {
			order = append(order, record.Kind)
		}
		byKind[record.Kind] = append(byKind[record.Kind], record)
	}

	for _, kind := range order {
		fmt.Fprintf(&builder, "## %s\n\n", kind)
		for _, record := range byKind[kind] {
			fmt.Fprintf(&builder, "- **%s** (importance %d, confidence %.1f, %s): %s\n",
				record.ID, record.Importance, record.Confidence, record.Status, record.Summary)
		}
		builder.WriteByte('\n')
	}

	return builder.String()
}
