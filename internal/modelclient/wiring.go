// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package modelclient

import (
	"fmt"
	"net/http"
	"os"

	"github.com/council-engine/council/internal/council"
)

// credentialEnvVar names the environment variable a provider reads its
// API key from. Kept here, not in providers.go, since the mapping
// from provider name to env var is a CLI wiring choice, not a
// property of the providers themselves — a caller with a different
// credential source (keychain, secrets manager) supplies its own
// APIKeys and never needs this mapping.
func credentialEnvVar(provider string) (string, bool) {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY", true
	case "openai":
		return "OPENAI_API_KEY", true
	default:
		return "", false
	}
}

// RequiredCredentialEnvVars returns the deduplicated set of
// environment variables EnvAPIKeys will need to resolve config's
// members, in member declaration order of first use. Members on the
// "mock" provider need no credential.
func RequiredCredentialEnvVars(config *council.Config) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, member := range config.Members {
		envVar, ok := credentialEnvVar(member.Model.Provider)
		if !ok || seen[envVar] {
			continue
		}
		seen[envVar] = true
		vars = append(vars, envVar)
	}
	return vars
}

// EnvAPIKeys resolves provider credentials from the process
// environment — the credential source council-run uses. Other hosts
// embedding this engine can supply any other APIKeys implementation.
func EnvAPIKeys(provider string) (string, error) {
	envVar, ok := credentialEnvVar(provider)
	if !ok {
		return "", fmt.Errorf("unsupported model provider %q", provider)
	}
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return "", fmt.Errorf("provider %q requires %s to be set", provider, envVar)
	}
	return apiKey, nil
}

// BuildClients constructs one ModelClient per configured member via
// NewForMember, sharing one http.Client across every member.
func BuildClients(config *council.Config, keys APIKeys) (map[string]ModelClient, error) {
	httpClient := &http.Client{}

	clients := make(map[string]ModelClient, len(config.Members))
	for _, member := range config.Members {
		client, err := NewForMember(httpClient, member, keys)
		if err != nil {
			return nil, err
		}
		clients[member.ID] = client
	}
	return clients, nil
}
