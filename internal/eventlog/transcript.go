// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/council-engine/council/internal/protocol"
)

// renderTranscriptLine formats event as one entry of the human-readable
// running transcript. Every event gets a heading and a timestamp;
// events with a payload worth reading get a rendered body.
func renderTranscriptLine(event protocol.Event) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "\n### [%s] %s", event.Timestamp.Format("15:04:05"), event.Type)
	if event.ActorID != "" {
		fmt.Fprintf(&builder, " (%s)", event.ActorID)
	}
	if event.Round > 0 {
		fmt.Fprintf(&builder, " round %d", event.Round)
	}
	builder.WriteByte('\n')

	if body := transcriptBody(event); body != "" {
		builder.WriteString(body)
		builder.WriteByte('\n')
	}

	return builder.String()
}

// transcriptBody renders the payload for event types with a
// human-meaningful body. Event types not listed here (state-machine
// bookkeeping such as ROUND_STARTED) get only the heading line.
func transcriptBody(event protocol.Event) string {
	switch payload := event.Payload.(type) {
	case fmt.Stringer:
		return payload.String()
	}

	switch event.Type {
	case protocol.EventMessageContributed, protocol.EventMotionCalled,
		protocol.EventSecondingResponse, protocol.EventVoteCast,
		protocol.EventDocumentDraftWritten, protocol.EventDocumentRevisionWritten:
		return renderJSONFallback(event.Payload)
	default:
		return ""
	}
}

// renderJSONFallback renders a payload we don't have a dedicated
// formatter for as an indented JSON code block. It is used only for
// the event types transcriptBody lists; other events keep their
// payload in events.json alone.
func renderJSONFallback(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unrenderable payload: %v)", err)
	}
	return "```json\n" + string(data) + "\n```"
}
