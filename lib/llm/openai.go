// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
)

// OpenAI implements [Provider] for the OpenAI Chat Completions API.
// This is compatible with any API that implements the OpenAI chat
// completions wire format (OpenAI, Azure OpenAI, OpenRouter, vLLM,
// Ollama, llama.cpp, etc.), which lets a council member's provider be
// swapped without touching the orchestrator.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewOpenAI creates an OpenAI-compatible provider that authenticates
// with apiKey. baseURL defaults to the public OpenAI API when empty.
func NewOpenAI(httpClient *http.Client, apiKey string, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAI{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Complete sends a single non-streaming request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	headers := map[string]string{
		"Authorization": "Bearer " + provider.apiKey,
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/chat/completions", wireRequest, "llm/openai", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

// buildRequest converts our types to the OpenAI wire format.
func (provider *OpenAI) buildRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
	}

	if request.Temperature != nil {
		wireRequest.Temperature = request.Temperature
	}
	if len(request.StopSequences) > 0 {
		wireRequest.Stop = request.StopSequences
	}

	// System prompt becomes the first message with role "system".
	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}

	return wireRequest
}

// --- OpenAI wire types ---
//
// These map directly to the OpenAI Chat Completions API JSON format.
// They are separate from the public types because the wire format
// uses different field names and conventions.

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens        int64                      `json:"prompt_tokens"`
	CompletionTokens    int64                      `json:"completion_tokens"`
	PromptTokensDetails *openaiPromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

type openaiPromptTokensDetails struct {
	CachedTokens int64 `json:"cached_tokens"`
}

func (wireResponse *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}

	if wireResponse.Usage.PromptTokensDetails != nil {
		response.Usage.CacheReadTokens = wireResponse.Usage.PromptTokensDetails.CachedTokens
	}

	if len(wireResponse.Choices) == 0 {
		return response
	}

	choice := wireResponse.Choices[0]
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	response.Content = choice.Message.Content

	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReason(reason)
	}
}
