// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package modelclient

import "testing"

func TestExtractJSONFromFencedBlock(t *testing.T) {
	raw := "Here is my response:\n```json\n{\"ballot\":\"YES\",\"rationale\":\"agreed\"}\n```\nLet me know if you need anything else."
	got := extractJSON(raw)
	want := `{"ballot":"YES","rationale":"agreed"}`
	if got != want {
		t.Errorf("extractJSON() = %q, want %q", got, want)
	}
}

func TestExtractJSONFromChatterSurroundedObject(t *testing.T) {
	raw := `Sure, my vote: {"ballot":"NO","rationale":"not convinced"} thanks!`
	got := extractJSON(raw)
	want := `{"ballot":"NO","rationale":"not convinced"}`
	if got != want {
		t.Errorf("extractJSON() = %q, want %q", got, want)
	}
}

func TestExtractJSONIgnoresBracesInsideStrings(t *testing.T) {
	raw := `{"rationale":"the set {1,2,3} matters","ballot":"YES"}`
	got := extractJSON(raw)
	if got != raw {
		t.Errorf("extractJSON() = %q, want unchanged %q", got, raw)
	}
}

func TestExtractJSONEscapesRawNewlines(t *testing.T) {
	raw := "{\"rationale\":\"line one\nline two\",\"ballot\":\"YES\"}"
	got := extractJSON(raw)
	want := `{"rationale":"line one\nline two","ballot":"YES"}`
	if got != want {
		t.Errorf("extractJSON() = %q, want %q", got, want)
	}
}

func TestRepairTruncatedClosesOpenStringAndBraces(t *testing.T) {
	truncated := `{"ballot":"YES","rationale":"agreed because it addresses the risk`
	repaired := repairTruncated(truncated)
	want := `{"ballot":"YES","rationale":"agreed because it addresses the risk"}`
	if repaired != want {
		t.Errorf("repairTruncated() = %q, want %q", repaired, want)
	}
}

func TestRepairTruncatedLeavesValidJSONUnchanged(t *testing.T) {
	valid := `{"ballot":"YES","rationale":"agreed"}`
	if got := repairTruncated(valid); got != valid {
		t.Errorf("repairTruncated() = %q, want unchanged %q", got, valid)
	}
}

func TestRepairTruncatedHandlesNestedObjects(t *testing.T) {
	truncated := `{"criticalBlockers":[{"id":"B1","problem":"no risks listed"`
	repaired := repairTruncated(truncated)
	want := `{"criticalBlockers":[{"id":"B1","problem":"no risks listed"}}`
	if repaired != want {
		t.Errorf("repairTruncated() = %q, want %q", repaired, want)
	}
}

func TestUnclosedBraceCountIgnoresExtraCloseBraces(t *testing.T) {
	if got := unclosedBraceCount(`{"a":1}}`); got != 0 {
		t.Errorf("unclosedBraceCount() = %d, want 0", got)
	}
}
