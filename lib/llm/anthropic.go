// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// Anthropic implements [Provider] for the Anthropic Messages API.
type Anthropic struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewAnthropic creates an Anthropic provider that authenticates with
// apiKey. baseURL defaults to the public Anthropic API when empty,
// which lets tests point it at an httptest server.
func NewAnthropic(httpClient *http.Client, apiKey string, baseURL string) *Anthropic {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Anthropic{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Complete sends a single non-streaming request and returns the full
// response. The council engine never streams: a member's turn or
// ballot needs the complete text before the phase runner can move on.
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	headers := map[string]string{
		"x-api-key":         provider.apiKey,
		"anthropic-version": anthropicVersion,
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/messages", wireRequest, "llm/anthropic", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

// buildRequest converts our types to Anthropic wire format.
func (provider *Anthropic) buildRequest(request Request) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
	}

	if request.System != "" {
		wireRequest.System = request.System
	}
	if request.Temperature != nil {
		wireRequest.Temperature = request.Temperature
	}
	if len(request.StopSequences) > 0 {
		wireRequest.StopSequences = request.StopSequences
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, anthropicMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}

	return wireRequest
}

// --- Anthropic wire types ---
//
// These map directly to the Anthropic Messages API JSON format. They
// are separate from the public types because the wire format uses
// snake_case and represents message content as a list of typed blocks
// even for plain text.

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

func (wireResponse *anthropicResponse) toResponse() *Response {
	response := &Response{
		StopReason: mapAnthropicStopReason(wireResponse.StopReason),
		Model:      wireResponse.Model,
		Usage: Usage{
			InputTokens:      wireResponse.Usage.InputTokens,
			OutputTokens:     wireResponse.Usage.OutputTokens,
			CacheReadTokens:  wireResponse.Usage.CacheReadInputTokens,
			CacheWriteTokens: wireResponse.Usage.CacheCreationInputTokens,
		},
	}
	for _, block := range wireResponse.Content {
		if block.Type == "text" {
			response.Content += block.Text
		}
	}
	return response
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}
