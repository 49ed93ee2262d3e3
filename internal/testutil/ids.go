package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates 32-character event ids that sort in generation
// order: prefix, then a zero-padded counter.
//
// Thread-safety: Next is safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialIDs creates a generator. The prefix is truncated to 16
// characters; if empty, "evt" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "evt"
	}
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next id. The first id ends in ...0001.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%0*d", g.prefix, 32-len(g.prefix), g.n)
}
