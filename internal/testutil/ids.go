package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates unit ids "<prefix>1", "<prefix>2", ...
//
// The same scenario with a fresh SequentialIDs produces byte-identical
// traces, which is what golden comparison needs.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "unit-".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "unit-"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}
