// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider is the interface for LLM API backends. Implementations
// translate between the common types in this package and each
// vendor's wire format.
type Provider interface {
	// Complete sends a request and blocks until the full response is
	// available. The council engine issues exactly one Complete call
	// per member turn or ballot; it never streams.
	Complete(ctx context.Context, request Request) (*Response, error)
}

// ProviderError is returned when the LLM API responds with an error.
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the provider-specific error type string
	// (e.g., "invalid_request_error", "rate_limit_error").
	Type string

	// Message is the human-readable error description.
	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == 429
}

// IsOverloaded returns true if the error is a server overload response (HTTP 529).
func (err *ProviderError) IsOverloaded() bool {
	return err.StatusCode == 529
}

// doProviderRequest marshals wireRequest as JSON, POSTs it to endpoint
// via httpClient, and returns the HTTP response. Returns a
// ProviderError for non-200 status codes. headers are applied to the
// request after Content-Type, so callers can set provider-specific
// auth headers.
//
// On success the caller is responsible for closing the response body.
// On error the body is already closed.
func doProviderRequest(ctx context.Context, httpClient *http.Client, endpoint string, wireRequest any, prefix string, headers map[string]string) (*http.Response, error) {
	body, err := json.Marshal(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", prefix, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		httpRequest.Header.Set(name, value)
	}

	httpResponse, err := httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", prefix, err)
	}

	if httpResponse.StatusCode != http.StatusOK {
		defer httpResponse.Body.Close()
		return nil, readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// wireResponse is implemented by pointer-to-struct types that can
// convert themselves from JSON wire format to the common Response.
type wireResponse[T any] interface {
	*T
	toResponse() *Response
}

// decodeResponse reads an HTTP response body as JSON into a
// provider-specific wire response type and converts it to the common
// Response. The HTTP response body is closed when this function returns.
func decodeResponse[T any, P wireResponse[T]](httpResponse *http.Response, prefix string) (*Response, error) {
	defer httpResponse.Body.Close()

	wireResp := P(new(T))
	if err := json.NewDecoder(httpResponse.Body).Decode(wireResp); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", prefix, err)
	}

	return wireResp.toResponse(), nil
}

// readProviderError parses an error response body in the common provider
// error format used by Anthropic, OpenAI, and compatible APIs:
// {"error":{"type":"...","message":"..."}}. Extra fields in the error
// object (such as OpenAI's "code" and "param") are silently ignored.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &ProviderError{
			StatusCode: httpResponse.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}

	return &ProviderError{
		StatusCode: httpResponse.StatusCode,
		Message:    string(body),
	}
}
