// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package prompt

import (
	"context"

	"github.com/council-engine/council/internal/modelclient"
	"github.com/council-engine/council/internal/protocol"
)

// The Complete* functions are the only place this package performs
// I/O: each pairs a Build* prompt with a modelclient.CompleteJSON call
// and the matching Normalize* fallback, so callers never have to name
// the unexported wire type a schema unmarshals into.

func CompleteTurnAction(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, opts modelclient.CompletionOptions) (protocol.TurnAction, bool, error) {
	wire, parseErr, err := modelclient.CompleteJSON[turnActionWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return protocol.TurnAction{}, false, err
	}
	action, usedFallback := NormalizeTurnAction(wire, parseErr)
	return action, usedFallback, nil
}

func CompleteSecondingResponse(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, opts modelclient.CompletionOptions) (protocol.SecondingResponse, bool, error) {
	wire, parseErr, err := modelclient.CompleteJSON[secondingResponseWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return protocol.SecondingResponse{}, false, err
	}
	response, usedFallback := NormalizeSecondingResponse(wire, parseErr)
	return response, usedFallback, nil
}

func CompleteVoteResponse(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, opts modelclient.CompletionOptions) (protocol.VoteResponse, bool, error) {
	wire, parseErr, err := modelclient.CompleteJSON[voteResponseWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return protocol.VoteResponse{}, false, err
	}
	response, usedFallback := NormalizeVoteResponse(wire, parseErr)
	return response, usedFallback, nil
}

func CompleteLeaderElectionBallot(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, memberIDsInOrder []string, opts modelclient.CompletionOptions) (protocol.LeaderElectionBallot, bool, error) {
	wire, parseErr, err := modelclient.CompleteJSON[leaderElectionBallotWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return protocol.LeaderElectionBallot{}, false, err
	}
	ballot, usedFallback := NormalizeLeaderElectionBallot(wire, parseErr, memberIDsInOrder)
	return ballot, usedFallback, nil
}

func CompleteLeaderSummary(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt, finalResolutionFallback string, opts modelclient.CompletionOptions) (protocol.LeaderSummary, bool, error) {
	wire, parseErr, err := modelclient.CompleteJSON[leaderSummaryWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return protocol.LeaderSummary{}, false, err
	}
	summary, usedFallback := NormalizeLeaderSummary(wire, parseErr, finalResolutionFallback)
	return summary, usedFallback, nil
}

// CompleteDocumentApproval reuses the vote-response wire shape and
// normalizer: a documentation approval ballot is YES/NO/ABSTAIN on the
// draft rather than on a motion, but the shape and abstain-on-failure
// fallback are identical.
func CompleteDocumentApproval(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, opts modelclient.CompletionOptions) (protocol.VoteResponse, bool, error) {
	return CompleteVoteResponse(ctx, client, systemPrompt, userPrompt, opts)
}

func CompleteDocumentFeedback(ctx context.Context, client modelclient.ModelClient, systemPrompt, userPrompt string, opts modelclient.CompletionOptions) (DocumentFeedback, error) {
	wire, parseErr, err := modelclient.CompleteJSON[documentFeedbackWire](ctx, client, systemPrompt, userPrompt, opts)
	if err != nil {
		return DocumentFeedback{}, err
	}
	return NormalizeDocumentFeedback(wire, parseErr), nil
}
