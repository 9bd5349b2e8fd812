// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelclient adapts council members onto lib/llm providers,
// and implements the JSON extraction/repair pipeline that turns raw
// model text into either a typed value or a deterministic parse-error
// signal for the normalizer.
package modelclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/council-engine/council/internal/protocol"
	"github.com/council-engine/council/lib/llm"
)

// CompletionOptions overrides a client's default sampling parameters
// for a single call.
type CompletionOptions struct {
	Temperature *float64
	MaxTokens   int
}

// ModelClient is the opaque per-member oracle the orchestrator calls
// into. Every call may fail with a transport/auth error, which is
// fatal to the session; a call never fails merely because the model's
// text did not parse as JSON — see CompleteJSON.
type ModelClient interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string, opts CompletionOptions) (string, error)
}

// CompleteJSON calls client.CompleteText, then extracts and parses a
// JSON object of type T from the response. A transport error is
// returned as-is (fatal). A response that cannot be coerced into T
// after extraction and repair yields a *protocol.ParseErrorEnvelope
// instead of an error — the normalizer, not the caller, decides what
// to do with an unparseable turn.
func CompleteJSON[T any](ctx context.Context, client ModelClient, systemPrompt, userPrompt string, opts CompletionOptions) (*T, *protocol.ParseErrorEnvelope, error) {
	raw, err := client.CompleteText(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return nil, nil, err
	}

	candidate := extractJSON(raw)
	candidate = repairTruncated(candidate)

	var value T
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, protocol.NewParseErrorEnvelope(err.Error(), raw), nil
	}

	return &value, nil, nil
}

// Client is the production ModelClient: one member's model reference
// bound to a lib/llm.Provider.
type Client struct {
	provider           llm.Provider
	model              string
	defaultTemperature *float64
	defaultMaxTokens   int
}

// NewClient builds a Client for the given provider and model. Council
// members typically request modest completions (a paragraph of
// discussion, a JSON envelope); defaultMaxTokens of 0 falls back to
// 4096, generous enough for a documentation draft turn.
func NewClient(provider llm.Provider, model string, defaultTemperature *float64, defaultMaxTokens int) *Client {
	if defaultMaxTokens == 0 {
		defaultMaxTokens = 4096
	}
	return &Client{
		provider:           provider,
		model:              model,
		defaultTemperature: defaultTemperature,
		defaultMaxTokens:   defaultMaxTokens,
	}
}

func (client *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string, opts CompletionOptions) (string, error) {
	temperature := client.defaultTemperature
	if opts.Temperature != nil {
		temperature = opts.Temperature
	}
	maxTokens := client.defaultMaxTokens
	if opts.MaxTokens != 0 {
		maxTokens = opts.MaxTokens
	}

	response, err := client.provider.Complete(ctx, llm.Request{
		Model:       client.model,
		System:      systemPrompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("modelclient: completing text: %w", err)
	}

	return response.Content, nil
}
