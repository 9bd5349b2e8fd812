// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package phase runs one phase of a council session: the per-round,
// per-member turn loop and the motion sub-state-machine it can enter.
// This is the concurrency-bearing core of the engine — one of the
// places, with leader election and the documentation review loop,
// that fans work out across members and joins it back into a single
// deterministic event stream.
package phase

import (
	"context"
	"fmt"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/internal/eventlog"
	"github.com/council-engine/council/internal/idgen"
	"github.com/council-engine/council/internal/memory"
	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/protocol"
)

// transcriptWindowSize bounds how many recent transcript lines are
// injected into a turn prompt. The full transcript lives in the event
// log; this is only the slice that fits usefully in a prompt.
const transcriptWindowSize = 12

// Session carries the state that is shared across every phase run in
// one council session: the turn-index counter, the running transcript
// window, and the set of members that have hit the JSON parse
// fallback at least once (fed to the memory store at session close).
//
// Session is written only by the sequencing goroutine that calls
// RunPhase; fan-out workers spawned inside RunPhase return values up
// to it and never touch this struct directly.
type Session struct {
	Config  *council.Config
	Log     *eventlog.Log
	Clients map[string]modelclient.ModelClient // member id -> client
	Memory  map[string]memory.PromptContext    // member id -> prompt-context snapshot

	TurnIndex            int
	Transcript           []string
	ParseFallbackMembers map[string]bool

	// PriorResults holds every phase that has completed so far in this
	// session, in order. The orchestrator appends to it after each
	// phase.RunPhase call returns, before running the next phase.
	PriorResults []protocol.PhaseResult
}

// NewSession initializes per-session state common to every phase run.
func NewSession(config *council.Config, log *eventlog.Log, clients map[string]modelclient.ModelClient, snapshots map[string]memory.PromptContext) *Session {
	return &Session{
		Config:               config,
		Log:                  log,
		Clients:              clients,
		Memory:               snapshots,
		ParseFallbackMembers: make(map[string]bool),
	}
}

// TurnOrder returns config.TurnOrder if set, else member declaration order.
func (session *Session) TurnOrder() []string {
	if len(session.Config.TurnOrder) > 0 {
		return session.Config.TurnOrder
	}
	order := make([]string, len(session.Config.Members))
	for i, member := range session.Config.Members {
		order[i] = member.ID
	}
	return order
}

// Member looks up a configured member by id. It panics on an unknown
// id: an unknown member id reaching here is a logical invariant
// violation, not a recoverable condition.
func (session *Session) Member(id string) council.Member {
	for _, member := range session.Config.Members {
		if member.ID == id {
			return member
		}
	}
	panic(fmt.Sprintf("phase: unknown member id %q", id))
}

// client returns the ModelClient for a member id, panicking if none
// is registered — a wiring bug, not a runtime condition.
func (session *Session) client(id string) modelclient.ModelClient {
	client, ok := session.Clients[id]
	if !ok {
		panic(fmt.Sprintf("phase: no model client registered for member id %q", id))
	}
	return client
}

func (session *Session) recentTranscript() []string {
	if len(session.Transcript) <= transcriptWindowSize {
		return append([]string(nil), session.Transcript...)
	}
	return append([]string(nil), session.Transcript[len(session.Transcript)-transcriptWindowSize:]...)
}

func (session *Session) appendTranscript(line string) {
	session.Transcript = append(session.Transcript, line)
}

func (session *Session) nextTurnIndex() int {
	session.TurnIndex++
	return session.TurnIndex
}

func (session *Session) emit(ctx context.Context, event protocol.Event) (protocol.Event, error) {
	return session.Log.Append(event)
}

func newMotionID() (string, error) {
	return idgen.New("motion")
}
