package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates ids "prefix-1", "prefix-2", ... in order.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same SequentialIDs produces byte-identical
// normalized output.
//
// Unlike schema.UUIDGenerator, SequentialIDs can be reset for test reuse.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialIDs creates a generator with the given prefix.
//
// If prefix is empty, ids are generated as "id-1", "id-2", ...
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id in sequence.
//
// Implements schema.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset rewinds the sequence so the next Generate returns "prefix-1" again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
