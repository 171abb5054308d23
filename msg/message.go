package msg

import (
	"fmt"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/ir"
)

// Kind is the closed set of message variants.
type Kind int

const (
	KindEvent Kind = iota
	KindIteratorInactivity
	KindStreamBeginning
	KindStreamEnd
	KindPacketBeginning
	KindPacketEnd
	KindDiscardedEvents
	KindDiscardedPackets
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindIteratorInactivity:
		return "message-iterator-inactivity"
	case KindStreamBeginning:
		return "stream-beginning"
	case KindStreamEnd:
		return "stream-end"
	case KindPacketBeginning:
		return "packet-beginning"
	case KindPacketEnd:
		return "packet-end"
	case KindDiscardedEvents:
		return "discarded-events"
	case KindDiscardedPackets:
		return "discarded-packets"
	default:
		return "unknown"
	}
}

// ClockSnapshotState distinguishes a known clock value from the two ways a
// stream boundary message can lack one: genuinely unknown (the upstream
// couldn't determine it) versus absent (the stream class has no default
// clock class at all).
type ClockSnapshotState int

const (
	ClockSnapshotKnown ClockSnapshotState = iota
	ClockSnapshotUnknown
	ClockSnapshotAbsent
)

// ClockSnapshot pairs a raw cycle count with its nanoseconds-from-origin
// conversion, computed once at message construction via the stream class's
// default ClockClass so that monotonicity checks never re-derive it.
type ClockSnapshot struct {
	State        ClockSnapshotState
	Cycles       uint64
	NsFromOrigin int64
}

// KnownClockSnapshot builds a Known clock snapshot, converting cycles via
// cc.
func KnownClockSnapshot(cc *ir.ClockClass, cycles uint64) (ClockSnapshot, error) {
	ns, err := cc.CyclesToNsFromOrigin(cycles)
	if err != nil {
		return ClockSnapshot{}, err
	}
	return ClockSnapshot{State: ClockSnapshotKnown, Cycles: cycles, NsFromOrigin: ns}, nil
}

// UnknownClockSnapshot returns the Unknown sentinel snapshot.
func UnknownClockSnapshot() ClockSnapshot { return ClockSnapshot{State: ClockSnapshotUnknown} }

// AbsentClockSnapshot returns the Absent sentinel snapshot.
func AbsentClockSnapshot() ClockSnapshot { return ClockSnapshot{State: ClockSnapshotAbsent} }

// Message is the closed sum type flowing through message iterators. Exactly
// one of the kind-specific field groups below is meaningful for a given
// Message, selected by Kind(); accessors for the wrong kind panic, the same
// contract bt2.Value's Map* accessors use.
type Message struct {
	kind Kind

	// graphToken identifies the graph this message was produced for, so a
	// per-kind pool can refuse to accept back a message from a different
	// (possibly already-destroyed) graph's pool on Release.
	graphToken uint64

	stream      *ir.Stream
	eventClass  *ir.EventClass
	fields      bt2.Value
	clockSnap   *ClockSnapshot // Event, PacketBeginning, PacketEnd: optional
	requiredSnap ClockSnapshot // MessageIteratorInactivity: always present

	streamClockSnap ClockSnapshot // StreamBeginning, StreamEnd: tri-state, always set

	packet *ir.Packet

	discardedCount    *uint64
	discardedBeginSnap *ClockSnapshot
	discardedEndSnap   *ClockSnapshot
}

func wrongKind(got, want Kind) error {
	return fmt.Errorf("bt2/msg: accessor for %s called on a %s message", want, got)
}

func (m *Message) Kind() Kind { return m.kind }

// NewEvent builds an Event message. clockSnap may be nil if the stream
// class has no default clock class.
func NewEvent(stream *ir.Stream, eventClass *ir.EventClass, fields bt2.Value, clockSnap *ClockSnapshot) *Message {
	return &Message{kind: KindEvent, stream: stream, eventClass: eventClass, fields: fields, clockSnap: clockSnap}
}

func (m *Message) EventStream() *ir.Stream {
	if m.kind != KindEvent {
		panic(wrongKind(m.kind, KindEvent))
	}
	return m.stream
}

func (m *Message) EventClass() *ir.EventClass {
	if m.kind != KindEvent {
		panic(wrongKind(m.kind, KindEvent))
	}
	return m.eventClass
}

func (m *Message) EventClockSnapshot() *ClockSnapshot {
	if m.kind != KindEvent {
		panic(wrongKind(m.kind, KindEvent))
	}
	return m.clockSnap
}

func (m *Message) EventFields() bt2.Value {
	if m.kind != KindEvent {
		panic(wrongKind(m.kind, KindEvent))
	}
	return m.fields
}

// NewMessageIteratorInactivity builds an inactivity message: a heartbeat
// telling downstream filters/sinks "no events yet, but time has passed to
// at least this clock value", used to let multi-input filters make
// progress without starving on a slow upstream.
func NewMessageIteratorInactivity(snap ClockSnapshot) *Message {
	return &Message{kind: KindIteratorInactivity, requiredSnap: snap}
}

func (m *Message) InactivityClockSnapshot() ClockSnapshot {
	if m.kind != KindIteratorInactivity {
		panic(wrongKind(m.kind, KindIteratorInactivity))
	}
	return m.requiredSnap
}

// NewStreamBeginning builds a StreamBeginning message.
func NewStreamBeginning(stream *ir.Stream, snap ClockSnapshot) *Message {
	return &Message{kind: KindStreamBeginning, stream: stream, streamClockSnap: snap}
}

// NewStreamEnd builds a StreamEnd message.
func NewStreamEnd(stream *ir.Stream, snap ClockSnapshot) *Message {
	return &Message{kind: KindStreamEnd, stream: stream, streamClockSnap: snap}
}

func (m *Message) StreamBoundaryStream() *ir.Stream {
	if m.kind != KindStreamBeginning && m.kind != KindStreamEnd {
		panic(fmt.Errorf("bt2/msg: StreamBoundaryStream called on a %s message", m.kind))
	}
	return m.stream
}

func (m *Message) StreamBoundaryClockSnapshot() ClockSnapshot {
	if m.kind != KindStreamBeginning && m.kind != KindStreamEnd {
		panic(fmt.Errorf("bt2/msg: StreamBoundaryClockSnapshot called on a %s message", m.kind))
	}
	return m.streamClockSnap
}

// NewPacketBeginning builds a PacketBeginning message.
func NewPacketBeginning(packet *ir.Packet, clockSnap *ClockSnapshot) *Message {
	return &Message{kind: KindPacketBeginning, packet: packet, clockSnap: clockSnap}
}

// NewPacketEnd builds a PacketEnd message.
func NewPacketEnd(packet *ir.Packet, clockSnap *ClockSnapshot) *Message {
	return &Message{kind: KindPacketEnd, packet: packet, clockSnap: clockSnap}
}

func (m *Message) Packet() *ir.Packet {
	if m.kind != KindPacketBeginning && m.kind != KindPacketEnd {
		panic(fmt.Errorf("bt2/msg: Packet called on a %s message", m.kind))
	}
	return m.packet
}

func (m *Message) PacketClockSnapshot() *ClockSnapshot {
	if m.kind != KindPacketBeginning && m.kind != KindPacketEnd {
		panic(fmt.Errorf("bt2/msg: PacketClockSnapshot called on a %s message", m.kind))
	}
	return m.clockSnap
}

// NewDiscardedEvents builds a DiscardedEvents message. Callers must only do
// so for streams whose class has SupportsDiscardedEvents() true; the
// iterator layer enforces that invariant, not this constructor.
func NewDiscardedEvents(stream *ir.Stream, count *uint64, begin, end *ClockSnapshot) *Message {
	return &Message{kind: KindDiscardedEvents, stream: stream, discardedCount: count, discardedBeginSnap: begin, discardedEndSnap: end}
}

// NewDiscardedPackets builds a DiscardedPackets message. Same
// SupportsDiscardedPackets() caveat as NewDiscardedEvents.
func NewDiscardedPackets(stream *ir.Stream, count *uint64, begin, end *ClockSnapshot) *Message {
	return &Message{kind: KindDiscardedPackets, stream: stream, discardedCount: count, discardedBeginSnap: begin, discardedEndSnap: end}
}

func (m *Message) DiscardedStream() *ir.Stream {
	if m.kind != KindDiscardedEvents && m.kind != KindDiscardedPackets {
		panic(fmt.Errorf("bt2/msg: DiscardedStream called on a %s message", m.kind))
	}
	return m.stream
}

func (m *Message) DiscardedCount() *uint64 {
	if m.kind != KindDiscardedEvents && m.kind != KindDiscardedPackets {
		panic(fmt.Errorf("bt2/msg: DiscardedCount called on a %s message", m.kind))
	}
	return m.discardedCount
}

func (m *Message) DiscardedClockSnapshots() (begin, end *ClockSnapshot) {
	if m.kind != KindDiscardedEvents && m.kind != KindDiscardedPackets {
		panic(fmt.Errorf("bt2/msg: DiscardedClockSnapshots called on a %s message", m.kind))
	}
	return m.discardedBeginSnap, m.discardedEndSnap
}

// reset clears m back to its zero value for kind, for pooled reuse. It is
// unexported: only the pools in this package call it.
func (m *Message) reset() {
	*m = Message{}
}
