// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for single-shot
// completions against Large Language Model APIs.
//
// The primary abstraction is [Provider], whose one method, Complete,
// blocks until the full response is available. The council engine
// never streams and never issues tool calls: a member's turn or
// ballot is one prompt in, one block of text back, so the interface
// stays intentionally narrow. Provider implementations translate
// between the common [Request]/[Response] types and each vendor's
// wire format.
//
// HTTP requests go through a caller-supplied [http.Client], which
// lets callers inject retry, rate-limiting, or logging middleware
// without this package knowing about it. The base URL is overridable
// on each provider constructor so tests can point at an httptest
// server instead of the real API.
//
// Current provider implementations:
//   - [Anthropic]: Claude models via the Messages API (/v1/messages)
//   - [OpenAI]: GPT and OpenAI-compatible models via Chat Completions
//     (/v1/chat/completions)
package llm
