package testutil

import "sync"

// EffectCounter counts observable side effects in tests, such as how many
// times a condition with an effect was evaluated.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type EffectCounter struct {
	mu sync.Mutex
	n  int64
}

// NewEffectCounter creates a counter starting at 0.
//
// The first call to Tick() returns 1.
func NewEffectCounter() *EffectCounter {
	return &EffectCounter{}
}

// Tick records one effect and returns the new count.
func (c *EffectCounter) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Count returns the number of effects recorded so far.
func (c *EffectCounter) Count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset sets the count back to 0 so a scenario can run again.
func (c *EffectCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
