package graph

import "sync/atomic"

// Interrupter is a shared, monotonic cancellation flag: once set, it stays
// set for the rest of the graph's lifetime. A graph may have more than one
// (e.g. one owned by the CLI's signal handler, one owned by a calling
// library); the graph treats itself as interrupted the moment any of them
// trips.
type Interrupter struct {
	set atomic.Bool
}

// NewInterrupter creates an unset interrupter.
func NewInterrupter() *Interrupter { return &Interrupter{} }

// Set trips the interrupter. Idempotent.
func (i *Interrupter) Set() { i.set.Store(true) }

// IsSet reports whether Set has been called. Implements
// component.Interrupter so component-class methods can poll it directly.
func (i *Interrupter) IsSet() bool { return i.set.Load() }
