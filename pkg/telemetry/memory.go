package telemetry

import (
	"context"
	"slices"
	"sync"
)

// Collector keeps every event in memory. Tests and the CLI's compare
// command use it to inspect what a run produced.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record implements Reporter.
func (c *Collector) Record(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the recorded events, optionally filtered by kind.
func (c *Collector) Events(kinds ...Kind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(kinds) == 0 {
		return slices.Clone(c.events)
	}
	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		if slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Reset discards recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
