// Package btdebug tracks allocation and lifecycle counters for the hot-path
// pooled types: atomic acquire, alloc, release and destroy counters per type.
package btdebug

import "sync/atomic"

// PoolCounters track operations on an object pool for a specific kind.
type PoolCounters struct {
	Acquire atomic.Uint64
	Alloc   atomic.Uint64
	Release atomic.Uint64
	Destroy atomic.Uint64
}

// ReusePercent returns the percent (0..100) reuse rate for the pool kind.
func (pc *PoolCounters) ReusePercent() float64 {
	acquire := pc.Acquire.Load()
	alloc := pc.Alloc.Load()
	if acquire <= 0 {
		return 0.0
	}
	reuse := acquire - alloc
	return 100 * float64(reuse) / float64(acquire)
}

var (
	// EventMessageCounters tracks the per-graph Event message pool.
	EventMessageCounters PoolCounters

	// PacketBeginningCounters tracks the PacketBeginning message pool.
	PacketBeginningCounters PoolCounters

	// PacketEndCounters tracks the PacketEnd message pool.
	PacketEndCounters PoolCounters

	// SharedObjectDestroyCount tracks total SharedObject destructions,
	// used by ref-count-safety tests to assert destructors run exactly once.
	SharedObjectDestroyCount atomic.Uint64
)
