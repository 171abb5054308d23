package bt2

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bt2go/bt2/internal/btdebug"
)

// SharedObject is the reference-counted, freezable base embedded by every
// long-lived entity in the trace IR, message, component and graph layers.
//
// A SharedObject has an atomic strong count and an optional parent (a weak
// back-link set once at construction). Once an object's own count drops to
// zero, further Get/Put operations are delegated to its parent: this lets a
// tree of descendants survive for as long as any ancestor is directly held,
// while still freeing the whole tree when the root object is released.
//
// SharedObject also carries a monotonic freeze flag: once frozen, it stays
// frozen. Freezing itself doesn't change mutability by itself — callers
// should guard their own mutators with MutateGuard.
type SharedObject struct {
	mu     sync.Mutex
	strong int64
	parent *SharedObject

	onDestroy func()

	listeners   []destructionListenerEntry
	listenerSeq uint64

	destroyed bool

	frozen atomic.Bool
}

type destructionListenerEntry struct {
	id uint64
	fn func(self *SharedObject, data any)
	// data is passed back to fn verbatim; it is the listener's own
	// state, not the object's.
	data any
}

// NewSharedObject returns a new object with an initial strong count of one
// (the caller's own reference), optionally parented to another object.
// onDestroy, if non-nil, runs once, when the object's strong count reaches
// zero (whether through its own references or ones delegated from a child
// whose own count reached zero). An object created with a parent is never
// destroyed on its own, so its onDestroy does not run.
func NewSharedObject(parent *SharedObject, onDestroy func()) *SharedObject {
	return &SharedObject{
		strong:    1,
		parent:    parent,
		onDestroy: onDestroy,
	}
}

// owner walks up the parent chain to find the node whose strong count
// currently governs this object's lifetime: the first ancestor (possibly
// so itself) with a nonzero count, or the root if none does.
func (so *SharedObject) owner() *SharedObject {
	cur := so
	for {
		cur.mu.Lock()
		s := cur.strong
		p := cur.parent
		cur.mu.Unlock()
		if s > 0 || p == nil {
			return cur
		}
		cur = p
	}
}

// GetRef increments the strong count of whichever object in the parent
// chain currently governs so's lifetime.
func (so *SharedObject) GetRef() {
	owner := so.owner()
	owner.mu.Lock()
	owner.strong++
	owner.mu.Unlock()
}

// PutRef decrements the strong count of whichever object in the parent
// chain currently governs so's lifetime. When that count reaches zero on an
// object with no parent, the object is destroyed: its destruction listeners
// run (with the count transiently bumped to one so they observe a live
// object), then onDestroy runs. An object with a parent is not destroyed
// when its own count reaches zero; its lifetime then follows its parent's.
func (so *SharedObject) PutRef() {
	owner := so.owner()
	owner.mu.Lock()
	owner.strong--
	hitZero := owner.strong == 0
	owner.mu.Unlock()

	// A parented object whose own count reaches zero is not destroyed: from
	// here on owner() skips it, so its Get/Put go to its parent.
	if hitZero && owner.parent == nil {
		owner.destroy()
	}
}

func (so *SharedObject) destroy() {
	so.mu.Lock()
	if so.destroyed {
		so.mu.Unlock()
		return // already ran (can happen if a listener's Put re-enters)
	}
	so.destroyed = true
	// Transiently bump the count to one so that destruction listeners see
	// a live object. Listeners must not retain it across return: PutRef-ing
	// it back down to zero from within the listener panics below.
	so.strong = 1
	listeners := append([]destructionListenerEntry(nil), so.listeners...)
	so.mu.Unlock()

	for _, l := range listeners {
		l.fn(so, l.data)

		so.mu.Lock()
		retained := so.strong != 1
		so.mu.Unlock()
		if retained {
			panic(fmt.Errorf("bt2: destruction listener retained a reference to the object being destroyed"))
		}
	}

	so.mu.Lock()
	so.strong = 0
	so.listeners = nil
	so.mu.Unlock()

	btdebug.SharedObjectDestroyCount.Add(1)

	if so.onDestroy != nil {
		so.onDestroy()
	}
}

// AddDestructionListener registers fn to run when so is destroyed, passing
// data back verbatim. It returns an id that can be used with
// RemoveDestructionListener.
func (so *SharedObject) AddDestructionListener(fn func(self *SharedObject, data any), data any) uint64 {
	so.mu.Lock()
	defer so.mu.Unlock()

	so.listenerSeq++
	id := so.listenerSeq
	so.listeners = append(so.listeners, destructionListenerEntry{id: id, fn: fn, data: data})
	return id
}

// RemoveDestructionListener removes a previously registered listener by id.
// It is a no-op if the id is unknown (e.g. already fired).
func (so *SharedObject) RemoveDestructionListener(id uint64) {
	so.mu.Lock()
	defer so.mu.Unlock()

	for i, l := range so.listeners {
		if l.id == id {
			so.listeners = append(so.listeners[:i], so.listeners[i+1:]...)
			return
		}
	}
}

// Freeze marks so as frozen. Freezing is monotonic and transitive on use:
// callers that own a tree of SharedObjects are expected to propagate Freeze
// to descendants at the point the tree is first observed externally (e.g. a
// TraceClass freezes when its first Stream is created).
func (so *SharedObject) Freeze() {
	so.frozen.Store(true)
}

// IsFrozen reports whether Freeze has ever been called on so.
func (so *SharedObject) IsFrozen() bool {
	return so.frozen.Load()
}

// MutateGuard returns a non-nil error if so is frozen, for mutator methods
// to check before modifying state. Embedders should call this first thing
// in every exported mutator.
func (so *SharedObject) MutateGuard() error {
	if so.IsFrozen() {
		return ErrFrozen
	}
	return nil
}

// ErrFrozen is returned by mutators on a frozen object.
var ErrFrozen = fmt.Errorf("bt2: object is frozen")

// RefCount returns the current strong count of so specifically (not
// delegated through a parent), intended for tests.
func (so *SharedObject) RefCount() int64 {
	so.mu.Lock()
	defer so.mu.Unlock()
	return so.strong
}
