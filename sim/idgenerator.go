package sim

import "sync/atomic"

// IDGenerator produces unique message identifiers.
//
// A generator belongs to one simulation session. Two sessions that use their
// own generators produce the same ids for the same run.
type IDGenerator interface {
	Generate() uint64
}

// NewSequentialIDGenerator returns a generator whose first emitted id is 1.
func NewSequentialIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	next uint64
}

func (g *sequentialIDGenerator) Generate() uint64 {
	return atomic.AddUint64(&g.next, 1)
}
