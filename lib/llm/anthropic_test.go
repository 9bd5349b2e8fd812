// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicComplete(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			writer.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var wireRequest anthropicRequest
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}

		if wireRequest.Model != "claude-sonnet-4-5-20250929" {
			t.Errorf("model = %q, want claude-sonnet-4-5-20250929", wireRequest.Model)
		}
		if wireRequest.MaxTokens != 1024 {
			t.Errorf("max_tokens = %d, want 1024", wireRequest.MaxTokens)
		}
		if wireRequest.System != "You preside over a deliberation." {
			t.Errorf("system = %q, want the presiding prompt", wireRequest.System)
		}
		if request.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", request.Header.Get("x-api-key"))
		}
		if request.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("anthropic-version = %q, want %q", request.Header.Get("anthropic-version"), anthropicVersion)
		}
		if len(wireRequest.Messages) != 1 || wireRequest.Messages[0].Content != "Call the vote." {
			t.Errorf("messages = %+v, want one user message", wireRequest.Messages)
		}

		json.NewEncoder(writer).Encode(anthropicResponse{
			Content:    []anthropicContentBlock{{Type: "text", Text: "MOTION SECONDED"}},
			Model:      "claude-sonnet-4-5-20250929",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 40, OutputTokens: 6},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewAnthropic(server.Client(), "test-key", server.URL)

	response, err := provider.Complete(context.Background(), Request{
		Model:     "claude-sonnet-4-5-20250929",
		System:    "You preside over a deliberation.",
		MaxTokens: 1024,
		Messages:  []Message{{Role: RoleUser, Content: "Call the vote."}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if response.Content != "MOTION SECONDED" {
		t.Errorf("Content = %q, want MOTION SECONDED", response.Content)
	}
	if response.StopReason != StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", response.StopReason)
	}
	if response.Usage.InputTokens != 40 || response.Usage.OutputTokens != 6 {
		t.Errorf("Usage = %+v, want {40 6}", response.Usage)
	}
}

func TestAnthropicCompleteErrorResponse(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			writer.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writer.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(writer).Encode(map[string]any{
			"error": map[string]string{
				"type":    "rate_limit_error",
				"message": "rate limited",
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewAnthropic(server.Client(), "test-key", server.URL)

	_, err := provider.Complete(context.Background(), Request{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 100,
		Messages:  []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete should fail on rate limit response")
	}

	providerErr, ok := err.(*ProviderError)
	if !ok {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if !providerErr.IsRateLimited() {
		t.Errorf("IsRateLimited() = false, want true")
	}
}

func TestAnthropicDefaultBaseURL(t *testing.T) {
	t.Parallel()

	provider := NewAnthropic(http.DefaultClient, "key", "")
	if provider.baseURL != "https://api.anthropic.com" {
		t.Errorf("baseURL = %q, want default Anthropic API", provider.baseURL)
	}
}

func TestMapAnthropicStopReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wire string
		want StopReason
	}{
		{"end_turn", StopReasonEndTurn},
		{"max_tokens", StopReasonMaxTokens},
		{"stop_sequence", StopReasonStopSequence},
		{"something_new", StopReason("something_new")},
	}

	for _, test := range tests {
		if got := mapAnthropicStopReason(test.wire); got != test.want {
			t.Errorf("mapAnthropicStopReason(%q) = %q, want %q", test.wire, got, test.want)
		}
	}
}
