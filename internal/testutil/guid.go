package testutil

import (
	"fmt"
	"sync"
)

// FixedGUIDs hands out a predictable sequence of GUIDs: prefix-1,
// prefix-2, and so on.
//
// Two runs of the same test with fresh generators produce identical ids,
// which keeps viewing ids stable in golden files.
type FixedGUIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedGUIDs creates a generator. An empty prefix becomes "guid".
func NewFixedGUIDs(prefix string) *FixedGUIDs {
	if prefix == "" {
		prefix = "guid"
	}
	return &FixedGUIDs{prefix: prefix}
}

// Generate returns the next GUID in the sequence.
func (g *FixedGUIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
