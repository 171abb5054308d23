package iter

import (
	"fmt"

	"github.com/bt2go/bt2/ir"
	"github.com/bt2go/bt2/msg"
)

// streamFramingState is a stream's position in the message language:
//
//	StreamBeginning (PacketBeginning (Event | DiscardedEvents)* PacketEnd)* DiscardedPackets* StreamEnd
//
// with PacketBeginning/PacketEnd elided when the stream class doesn't
// support packets, and each Discarded* kind elided unless its stream class
// flag says it's supported.
type streamFramingState int

const (
	framingBeforeBegin streamFramingState = iota
	framingAfterBegin
	framingInPacket
	framingAfterPacketsPhase
	framingEnded
)

type streamValidator struct {
	class  *ir.StreamClass
	state  streamFramingState
	lastNs int64
	hasNs  bool
}

// FramingValidator checks, for every Stream it observes a message about,
// that the sequence of messages on that stream matches the iterator
// language and that default-clock-snapshot values are non-decreasing. It
// has no bearing on control flow — Check is meant to be called by tests (or
// by a paranoid filter) alongside normal message consumption, and returns
// an error the instant a message would violate either contract.
type FramingValidator struct {
	streams map[uint64]*streamValidator
}

// NewFramingValidator creates an empty validator; streams are registered
// implicitly the first time a message about them is checked.
func NewFramingValidator() *FramingValidator {
	return &FramingValidator{streams: map[uint64]*streamValidator{}}
}

func (v *FramingValidator) streamState(s *ir.Stream) *streamValidator {
	sv, ok := v.streams[s.ID()]
	if !ok {
		sv = &streamValidator{class: s.Class()}
		v.streams[s.ID()] = sv
	}
	return sv
}

// Check validates m against whichever stream it references. Messages with
// no stream affiliation (MessageIteratorInactivity) are always accepted.
func (v *FramingValidator) Check(m *msg.Message) error {
	switch m.Kind() {
	case msg.KindIteratorInactivity:
		return nil

	case msg.KindStreamBeginning:
		sv := v.streamState(m.StreamBoundaryStream())
		if sv.state != framingBeforeBegin {
			return fmt.Errorf("bt2/iter: unexpected StreamBeginning in state %v", sv.state)
		}
		sv.state = framingAfterBegin
		return v.checkClock(sv, streamBoundarySnapshot(m))

	case msg.KindStreamEnd:
		sv := v.streamState(m.StreamBoundaryStream())
		if sv.state != framingAfterBegin && sv.state != framingAfterPacketsPhase {
			return fmt.Errorf("bt2/iter: unexpected StreamEnd in state %v", sv.state)
		}
		if err := v.checkClock(sv, streamBoundarySnapshot(m)); err != nil {
			return err
		}
		sv.state = framingEnded
		return nil

	case msg.KindPacketBeginning:
		sv := v.streamState(m.Packet().Stream())
		if !sv.class.SupportsPackets() {
			return fmt.Errorf("bt2/iter: PacketBeginning on a stream whose class doesn't support packets")
		}
		if sv.state != framingAfterBegin {
			return fmt.Errorf("bt2/iter: unexpected PacketBeginning in state %v", sv.state)
		}
		sv.state = framingInPacket
		return v.checkClock(sv, m.PacketClockSnapshot())

	case msg.KindPacketEnd:
		sv := v.streamState(m.Packet().Stream())
		if sv.state != framingInPacket {
			return fmt.Errorf("bt2/iter: unexpected PacketEnd in state %v", sv.state)
		}
		sv.state = framingAfterBegin
		return v.checkClock(sv, m.PacketClockSnapshot())

	case msg.KindEvent:
		sv := v.streamState(m.EventStream())
		if sv.class.SupportsPackets() {
			if sv.state != framingInPacket {
				return fmt.Errorf("bt2/iter: Event outside a packet on a stream whose class supports packets (state %v)", sv.state)
			}
		} else if sv.state != framingAfterBegin {
			return fmt.Errorf("bt2/iter: unexpected Event in state %v", sv.state)
		}
		return v.checkClock(sv, eventSnapshot(m))

	case msg.KindDiscardedEvents:
		sv := v.streamState(m.DiscardedStream())
		if !sv.class.SupportsDiscardedEvents() {
			return fmt.Errorf("bt2/iter: DiscardedEvents on a stream whose class doesn't support it")
		}
		if sv.class.SupportsPackets() {
			if sv.state != framingInPacket {
				return fmt.Errorf("bt2/iter: unexpected DiscardedEvents in state %v", sv.state)
			}
		} else if sv.state != framingAfterBegin {
			return fmt.Errorf("bt2/iter: unexpected DiscardedEvents in state %v", sv.state)
		}
		return nil

	case msg.KindDiscardedPackets:
		sv := v.streamState(m.DiscardedStream())
		if !sv.class.SupportsDiscardedPackets() {
			return fmt.Errorf("bt2/iter: DiscardedPackets on a stream whose class doesn't support it")
		}
		if sv.state != framingAfterBegin && sv.state != framingAfterPacketsPhase {
			return fmt.Errorf("bt2/iter: unexpected DiscardedPackets in state %v", sv.state)
		}
		sv.state = framingAfterPacketsPhase
		return nil

	default:
		return fmt.Errorf("bt2/iter: unknown message kind %v", m.Kind())
	}
}

func streamBoundarySnapshot(m *msg.Message) *msg.ClockSnapshot {
	snap := m.StreamBoundaryClockSnapshot()
	return &snap
}

func eventSnapshot(m *msg.Message) *msg.ClockSnapshot {
	return m.EventClockSnapshot()
}

// checkClock enforces clock monotonicity (§4.2 contract 2): if snap is
// Known, its ns value must not precede the last Known value observed for
// this stream.
func (v *FramingValidator) checkClock(sv *streamValidator, snap *msg.ClockSnapshot) error {
	if snap == nil || snap.State != msg.ClockSnapshotKnown {
		return nil
	}
	if sv.hasNs && snap.NsFromOrigin < sv.lastNs {
		return fmt.Errorf("bt2/iter: clock snapshot %d ns precedes previous %d ns on the same stream", snap.NsFromOrigin, sv.lastNs)
	}
	sv.lastNs = snap.NsFromOrigin
	sv.hasNs = true
	return nil
}
