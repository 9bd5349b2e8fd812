// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package concurrency holds the one structured-concurrency primitive
// the engine needs: a bounded fan-out that joins before returning.
// Every place the engine talks to more than one member at once —
// leader election, seconding, voting, documentation approval and
// feedback — goes through FanOut so that no event is ever emitted
// from a partial or still-running fan-out.
package concurrency

import "sync"

// FanOut calls work once per id concurrently and returns the results
// in the same order as ids, regardless of completion order. It joins
// every goroutine before returning — callers must not act on the
// results, including emitting an event derived from them, until
// FanOut returns. That join is what gives the engine's fan-out points
// their blind-voting and turn-order-preserving properties.
func FanOut[T any](ids []string, work func(id string) T) []T {
	results := make([]T, len(ids))
	var waitGroup sync.WaitGroup
	waitGroup.Add(len(ids))
	for i, id := range ids {
		go func(i int, id string) {
			defer waitGroup.Done()
			results[i] = work(id)
		}(i, id)
	}
	waitGroup.Wait()
	return results
}
