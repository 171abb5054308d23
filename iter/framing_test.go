package iter

import (
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/ir"
	"github.com/bt2go/bt2/msg"
)

func newFramingTestStream(t *testing.T, supportsPackets, supportsDiscardedEvents, supportsDiscardedPackets bool) *ir.Stream {
	t.Helper()
	tc := ir.NewTraceClass()
	sc := ir.NewStreamClass(ir.StreamClassConfig{
		ID:                       0,
		SupportsPackets:          supportsPackets,
		SupportsDiscardedEvents:  supportsDiscardedEvents,
		SupportsDiscardedPackets: supportsDiscardedPackets,
	})
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

func TestFramingValidatorAcceptsValidSequenceWithPackets(t *testing.T) {
	stream := newFramingTestStream(t, true, true, true)
	ec := ir.NewEventClass(0, "ec0")
	packet := ir.NewPacket(stream, 0)

	v := NewFramingValidator()
	seq := []*msg.Message{
		msg.NewStreamBeginning(stream, msg.UnknownClockSnapshot()),
		msg.NewPacketBeginning(packet, nil),
		msg.NewEvent(stream, ec, bt2.NewNull(), nil),
		msg.NewDiscardedEvents(stream, nil, nil, nil),
		msg.NewPacketEnd(packet, nil),
		msg.NewDiscardedPackets(stream, nil, nil, nil),
		msg.NewStreamEnd(stream, msg.UnknownClockSnapshot()),
	}
	for i, m := range seq {
		if err := v.Check(m); err != nil {
			t.Fatalf("Check(seq[%d] = %v): %v", i, m.Kind(), err)
		}
	}
}

func TestFramingValidatorRejectsEventBeforeStreamBeginning(t *testing.T) {
	stream := newFramingTestStream(t, false, false, false)
	ec := ir.NewEventClass(0, "ec0")

	v := NewFramingValidator()
	if err := v.Check(msg.NewEvent(stream, ec, bt2.NewNull(), nil)); err == nil {
		t.Fatalf("Check(Event) before StreamBeginning succeeded, want error")
	}
}

func TestFramingValidatorRejectsPacketBeginningWhenUnsupported(t *testing.T) {
	stream := newFramingTestStream(t, false, false, false)
	packet := ir.NewPacket(stream, 0)

	v := NewFramingValidator()
	if err := v.Check(msg.NewStreamBeginning(stream, msg.UnknownClockSnapshot())); err != nil {
		t.Fatalf("Check(StreamBeginning): %v", err)
	}
	if err := v.Check(msg.NewPacketBeginning(packet, nil)); err == nil {
		t.Fatalf("Check(PacketBeginning) on a no-packets stream succeeded, want error")
	}
}

func TestFramingValidatorRejectsPacketAfterDiscardedPacketsPhase(t *testing.T) {
	stream := newFramingTestStream(t, true, false, true)
	packet := ir.NewPacket(stream, 0)

	v := NewFramingValidator()
	for _, m := range []*msg.Message{
		msg.NewStreamBeginning(stream, msg.UnknownClockSnapshot()),
		msg.NewPacketBeginning(packet, nil),
		msg.NewPacketEnd(packet, nil),
		msg.NewDiscardedPackets(stream, nil, nil, nil),
	} {
		if err := v.Check(m); err != nil {
			t.Fatalf("Check(%v): %v", m.Kind(), err)
		}
	}
	// Once the DiscardedPackets* phase has begun, no further packet cycle
	// is allowed by the grammar.
	if err := v.Check(msg.NewPacketBeginning(packet, nil)); err == nil {
		t.Fatalf("Check(PacketBeginning) after DiscardedPackets phase succeeded, want error")
	}
}

func TestFramingValidatorRejectsNonMonotonicClock(t *testing.T) {
	stream := newFramingTestStream(t, false, false, false)
	ec := ir.NewEventClass(0, "ec0")
	cc, err := ir.NewClockClass(ir.ClockClassConfig{FrequencyHz: 1})
	if err != nil {
		t.Fatalf("NewClockClass: %v", err)
	}

	late, err := msg.KnownClockSnapshot(cc, 100)
	if err != nil {
		t.Fatalf("KnownClockSnapshot: %v", err)
	}
	early, err := msg.KnownClockSnapshot(cc, 1)
	if err != nil {
		t.Fatalf("KnownClockSnapshot: %v", err)
	}

	v := NewFramingValidator()
	if err := v.Check(msg.NewStreamBeginning(stream, msg.UnknownClockSnapshot())); err != nil {
		t.Fatalf("Check(StreamBeginning): %v", err)
	}
	if err := v.Check(msg.NewEvent(stream, ec, bt2.NewNull(), &late)); err != nil {
		t.Fatalf("Check(Event, late): %v", err)
	}
	if err := v.Check(msg.NewEvent(stream, ec, bt2.NewNull(), &early)); err == nil {
		t.Fatalf("Check(Event, early) after a later clock value succeeded, want error")
	}
}
