// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package modelclient

import (
	"fmt"
	"net/http"

	"github.com/council-engine/council/internal/council"
	"github.com/council-engine/council/lib/llm"
)

// APIKeys resolves provider credentials by provider name. Credential
// resolution itself (OAuth flows, keychain lookups) is out of scope
// for the core; this is the narrow seam the core needs to build a
// provider.
type APIKeys func(provider string) (string, error)

// NewForMember builds the ModelClient a Member's configuration
// requests. "mock" never reaches here in production; callers building
// mock-driven sessions construct a *Mock directly and never call this
// function.
func NewForMember(httpClient *http.Client, member council.Member, keys APIKeys) (ModelClient, error) {
	switch member.Model.Provider {
	case "anthropic":
		key, err := keys("anthropic")
		if err != nil {
			return nil, fmt.Errorf("modelclient: resolving anthropic credentials for %s: %w", member.ID, err)
		}
		provider := llm.NewAnthropic(httpClient, key, "")
		return NewClient(provider, member.Model.Model, member.Model.Temperature, 0), nil

	case "openai":
		key, err := keys("openai")
		if err != nil {
			return nil, fmt.Errorf("modelclient: resolving openai credentials for %s: %w", member.ID, err)
		}
		provider := llm.NewOpenAI(httpClient, key, "")
		return NewClient(provider, member.Model.Model, member.Model.Temperature, 0), nil

	default:
		return nil, fmt.Errorf("modelclient: unknown provider %q for member %s", member.Model.Provider, member.ID)
	}
}
