package msg

import (
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/ir"
)

func newTestStream(t *testing.T) *ir.Stream {
	t.Helper()
	tc := ir.NewTraceClass()
	sc := ir.NewStreamClass(ir.StreamClassConfig{ID: 0})
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatalf("AppendStreamClass: %v", err)
	}
	trace := ir.NewTrace(tc)
	stream, err := trace.CreateStream(sc, 0)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	return stream
}

func TestEventMessageAccessors(t *testing.T) {
	stream := newTestStream(t)
	ec := ir.NewEventClass(0, "ec0")
	fields := bt2.NewMap()
	fields.MapSet("x", bt2.NewUnsignedInt(7))

	m := NewEvent(stream, ec, fields, nil)
	if m.Kind() != KindEvent {
		t.Fatalf("Kind() = %v, want KindEvent", m.Kind())
	}
	if m.EventStream() != stream {
		t.Fatalf("EventStream() mismatch")
	}
	if m.EventClass() != ec {
		t.Fatalf("EventClass() mismatch")
	}
	if v, ok := m.EventFields().MapGet("x"); !ok {
		t.Fatalf("EventFields() missing key x")
	} else if u, _ := v.AsUnsignedInt(); u != 7 {
		t.Fatalf("EventFields()[x] = %d, want 7", u)
	}
}

func TestWrongKindAccessorPanics(t *testing.T) {
	m := NewStreamBeginning(newTestStream(t), UnknownClockSnapshot())

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic calling EventClass() on a stream-beginning message")
		}
	}()
	m.EventClass()
}

func TestPoolsAcquireReleaseRoundTrip(t *testing.T) {
	pools := NewPools(1, 4)
	stream := newTestStream(t)
	ec := ir.NewEventClass(0, "ec0")

	m := pools.AcquireEvent(stream, ec, bt2.NewNull(), nil)
	if m.graphToken != 1 {
		t.Fatalf("graphToken = %d, want 1", m.graphToken)
	}
	pools.ReleaseEvent(m)

	m2 := pools.AcquireEvent(stream, ec, bt2.NewNull(), nil)
	if m2 != m {
		t.Fatalf("AcquireEvent after release did not reuse the pooled instance")
	}
}

func TestPoolsReleaseRejectsForeignGraphToken(t *testing.T) {
	a := NewPools(1, 4)
	b := NewPools(2, 4)
	stream := newTestStream(t)
	ec := ir.NewEventClass(0, "ec0")

	m := a.AcquireEvent(stream, ec, bt2.NewNull(), nil)
	b.ReleaseEvent(m) // must be a no-op: m belongs to pool a, not b

	m2 := a.AcquireEvent(stream, ec, bt2.NewNull(), nil)
	if m2 == m {
		t.Fatalf("pool a's Acquire returned the instance wrongly released into pool b")
	}
}
