// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"sync"
	"time"
)

// Gate suppresses re-emission of a metric key within a minimum interval.
// The bus delivers frames far faster than any consumer needs (roughly every
// 200 ms per device); the gate throttles state-store writes to the
// configured rate, independently per key.
//
// Each Gate owns its own last-emission table, so independent bus listeners
// never cross-contaminate each other's throttling.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        map[string]time.Time
}

// NewGate creates a gate with the given process-wide minimum interval,
// applied uniformly to all keys.
func NewGate(minInterval time.Duration) *Gate {
	return &Gate{
		minInterval: minInterval,
		last:        make(map[string]time.Time),
	}
}

// ShouldEmit reports whether a value for key may be emitted at now, and
// records now as the key's last emission time when it returns true. The
// first emission of a key always passes.
func (g *Gate) ShouldEmit(key string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[key]; ok && now.Sub(last) < g.minInterval {
		return false
	}
	g.last[key] = now
	return true
}

// Reset forgets all last-emission times
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = make(map[string]time.Time)
}
