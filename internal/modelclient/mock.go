// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package modelclient

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted ModelClient for deterministic tests. Each call
// to CompleteText pops the next response off queue, in order. It is
// safe for concurrent use so it can stand in during a fan-out
// (leader election, seconding, voting) without extra synchronization
// in the test itself.
type Mock struct {
	mutex sync.Mutex
	queue []string
}

// NewMock builds a Mock that returns responses in the given order.
func NewMock(responses ...string) *Mock {
	return &Mock{queue: append([]string(nil), responses...)}
}

// Enqueue appends additional scripted responses.
func (mock *Mock) Enqueue(responses ...string) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.queue = append(mock.queue, responses...)
}

func (mock *Mock) CompleteText(ctx context.Context, systemPrompt, userPrompt string, opts CompletionOptions) (string, error) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()

	if len(mock.queue) == 0 {
		return "", fmt.Errorf("modelclient: mock queue exhausted")
	}

	response := mock.queue[0]
	mock.queue = mock.queue[1:]
	return response, nil
}

// Registry hands out a Mock per member id, so a test can script each
// council seat independently while still sharing one ModelClient type
// with the production path.
type Registry struct {
	mutex   sync.Mutex
	clients map[string]*Mock
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Mock)}
}

// For returns the Mock for memberID, creating an empty one if absent.
func (registry *Registry) For(memberID string) *Mock {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	client, ok := registry.clients[memberID]
	if !ok {
		client = NewMock()
		registry.clients[memberID] = client
	}
	return client
}
