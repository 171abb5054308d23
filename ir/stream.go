package ir

import "github.com/bt2go/bt2"

// Stream is a runtime instance of a StreamClass within a specific Trace.
type Stream struct {
	*bt2.SharedObject

	trace *Trace
	class *StreamClass
	id    uint64
}

// newStream is unexported: streams are only ever created through
// Trace.CreateStream, which enforces the id-uniqueness and class-ownership
// invariants before construction.
func newStream(trace *Trace, class *StreamClass, id uint64) *Stream {
	trace.GetRef()
	s := &Stream{trace: trace, class: class, id: id}
	s.SharedObject = bt2.NewSharedObject(nil, func() { trace.PutRef() })
	return s
}

func (s *Stream) Trace() *Trace       { return s.trace }
func (s *Stream) Class() *StreamClass { return s.class }
func (s *Stream) ID() uint64          { return s.id }
