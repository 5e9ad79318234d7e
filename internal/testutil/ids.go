// Package testutil holds deterministic helpers shared by tests and the
// conformance harness.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates numbered dispatch ids: "<prefix>-001",
// "<prefix>-002", and so on.
//
// Unlike runtime.FixedGenerator it never runs out, so a scenario of any
// length produces the same ids on every run.
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix becomes
// "dispatch".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "dispatch"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
//
// Implements runtime.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// Reset restarts numbering at 1 so a generator can be reused across runs.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
