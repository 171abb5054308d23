package ir

import (
	"fmt"

	"github.com/bt2go/bt2"
)

// Trace is a runtime instance of a TraceClass: a named collection of
// Streams sharing that class's metadata.
type Trace struct {
	*bt2.SharedObject

	class *TraceClass
	name  string

	streams   []*Stream
	streamByID map[uint64]*Stream
}

// NewTrace creates a trace instance of class. It does not by itself freeze
// class; freezing happens on the first CreateStream call, matching the
// "frozen on first use" rule.
func NewTrace(class *TraceClass) *Trace {
	class.GetRef()
	t := &Trace{
		class:      class,
		streamByID: map[uint64]*Stream{},
	}
	t.SharedObject = bt2.NewSharedObject(nil, func() { class.PutRef() })
	return t
}

func (t *Trace) Class() *TraceClass { return t.class }

func (t *Trace) Name() (string, bool) {
	if t.name == "" {
		return "", false
	}
	return t.name, true
}

func (t *Trace) SetName(name string) error {
	if err := t.MutateGuard(); err != nil {
		return err
	}
	t.name = name
	return nil
}

func (t *Trace) Streams() []*Stream {
	return append([]*Stream(nil), t.streams...)
}

func (t *Trace) StreamByID(id uint64) (*Stream, bool) {
	s, ok := t.streamByID[id]
	return s, ok
}

// CreateStream instantiates a stream of streamClass within t. This is the
// operation that freezes t.class (and everything it owns) on first call,
// per the trace IR's freeze-on-first-instantiation invariant.
func (t *Trace) CreateStream(streamClass *StreamClass, id uint64) (*Stream, error) {
	if streamClass.traceClass != t.class {
		return nil, fmt.Errorf("bt2/ir: stream class does not belong to this trace's class")
	}
	if _, exists := t.streamByID[id]; exists {
		return nil, fmt.Errorf("bt2/ir: trace already has a stream with id %d", id)
	}

	if err := t.class.freezeAll(); err != nil {
		return nil, err
	}

	s := newStream(t, streamClass, id)
	t.streamByID[id] = s
	t.streams = append(t.streams, s)
	return s, nil
}
