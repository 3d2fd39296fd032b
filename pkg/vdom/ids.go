package vdom

import (
	"strconv"
	"sync/atomic"
)

// DefaultPrefix is prepended to numeric ids in rendered markup.
const DefaultPrefix = "bh"

// IDGenerator issues monotonically increasing node ids. Ids are never
// reused. The zero value is ready to use.
type IDGenerator struct {
	counter atomic.Uint64
}

// NewIDGenerator creates a new IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id, starting at 1.
func (g *IDGenerator) Next() uint64 {
	return g.counter.Add(1)
}

// Current returns the last issued id without incrementing.
func (g *IDGenerator) Current() uint64 {
	return g.counter.Load()
}

// processIDs is shared by reconcilers that are not given a generator, so ids
// are unique across the process.
var processIDs IDGenerator

// FormatID renders the element id for a numeric node id.
func FormatID(prefix string, id uint64) string {
	return prefix + "-" + strconv.FormatUint(id, 10)
}
