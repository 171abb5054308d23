package ir

import (
	"fmt"

	"github.com/bt2go/bt2"
)

// EnvironmentEntryKind distinguishes the two scalar kinds a TraceClass
// environment entry may hold.
type EnvironmentEntryKind int

const (
	EnvironmentString EnvironmentEntryKind = iota
	EnvironmentInteger
)

// EnvironmentEntry is one value of a TraceClass's environment map.
type EnvironmentEntry struct {
	Kind      EnvironmentEntryKind
	StringVal string
	IntVal    int64
}

// TraceClass is the root of the trace IR: it owns the ordered list of
// stream classes and carries trace-wide metadata (name, UUID, environment).
//
// The first Stream instantiated from a TraceClass (via Trace.CreateStream,
// transitively) freezes the trace class and every stream/event class and
// field class it owns. This mirrors the original object model's
// bt_trace_class_freeze cascade, where tc->frozen flips exactly once, on
// first use, and the whole metadata tree becomes immutable together.
type TraceClass struct {
	*bt2.SharedObject

	name string
	uuid *[16]byte
	env  map[string]EnvironmentEntry
	envOrder []string

	streamClasses   []*StreamClass
	streamClassByID map[uint64]*StreamClass
}

// NewTraceClass creates an empty trace class.
func NewTraceClass() *TraceClass {
	tc := &TraceClass{
		env:             map[string]EnvironmentEntry{},
		streamClassByID: map[uint64]*StreamClass{},
	}
	tc.SharedObject = bt2.NewSharedObject(nil, nil)
	return tc
}

func (tc *TraceClass) Name() (string, bool) {
	if tc.name == "" {
		return "", false
	}
	return tc.name, true
}

func (tc *TraceClass) SetName(name string) error {
	if err := tc.MutateGuard(); err != nil {
		return err
	}
	tc.name = name
	return nil
}

func (tc *TraceClass) UUID() (uuid [16]byte, ok bool) {
	if tc.uuid == nil {
		return uuid, false
	}
	return *tc.uuid, true
}

func (tc *TraceClass) SetUUID(uuid [16]byte) error {
	if err := tc.MutateGuard(); err != nil {
		return err
	}
	tc.uuid = &uuid
	return nil
}

// SetEnvironmentEntry inserts or overwrites an environment entry, preserving
// first-insertion order for new keys (the CTF metadata dumper relies on
// this for reproducible output).
func (tc *TraceClass) SetEnvironmentEntry(key string, entry EnvironmentEntry) error {
	if err := tc.MutateGuard(); err != nil {
		return err
	}
	if _, exists := tc.env[key]; !exists {
		tc.envOrder = append(tc.envOrder, key)
	}
	tc.env[key] = entry
	return nil
}

func (tc *TraceClass) EnvironmentEntry(key string) (EnvironmentEntry, bool) {
	e, ok := tc.env[key]
	return e, ok
}

func (tc *TraceClass) EnvironmentKeys() []string {
	return append([]string(nil), tc.envOrder...)
}

// StreamClasses returns the trace class's stream classes in declaration
// order.
func (tc *TraceClass) StreamClasses() []*StreamClass {
	return append([]*StreamClass(nil), tc.streamClasses...)
}

func (tc *TraceClass) StreamClassByID(id uint64) (*StreamClass, bool) {
	sc, ok := tc.streamClassByID[id]
	return sc, ok
}

// AppendStreamClass attaches sc to tc. It fails if tc is frozen, sc already
// belongs to a trace class, or a stream class with the same id already
// exists.
func (tc *TraceClass) AppendStreamClass(sc *StreamClass) error {
	if err := tc.MutateGuard(); err != nil {
		return err
	}
	if sc.traceClass != nil {
		return fmt.Errorf("bt2/ir: stream class already belongs to a trace class")
	}
	if _, exists := tc.streamClassByID[sc.id]; exists {
		return fmt.Errorf("bt2/ir: trace class already has a stream class with id %d", sc.id)
	}
	sc.traceClass = tc
	tc.streamClassByID[sc.id] = sc
	tc.streamClasses = append(tc.streamClasses, sc)
	return nil
}

// freezeAll validates every DynamicArray length path and Variant selector
// path in tc's field class trees (§3.4), then freezes tc and cascades into
// every stream class, event class and field class it owns. Validation runs
// before any freezing, so a rejected binding leaves tc mutable and
// reportable as an ordinary error. Safe to call more than once once it has
// succeeded; Freeze is idempotent at every level.
func (tc *TraceClass) freezeAll() error {
	for _, sc := range tc.streamClasses {
		for _, ec := range sc.eventClasses {
			if err := validateFieldPaths(sc, ec); err != nil {
				return fmt.Errorf("bt2/ir: stream class %d, event class %d: %w", sc.id, ec.id, err)
			}
		}
	}
	tc.Freeze()
	for _, sc := range tc.streamClasses {
		sc.freeze()
	}
	return nil
}
