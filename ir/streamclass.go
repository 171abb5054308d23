package ir

import (
	"fmt"

	"github.com/bt2go/bt2"
)

// StreamClass describes one kind of stream within a TraceClass: the shape
// of its packet and event-common-context fields, its default clock class,
// and the ordered list of event classes its streams may emit.
type StreamClass struct {
	*bt2.SharedObject

	id   uint64
	name string

	assignsAutomaticEventClassID bool
	assignsAutomaticStreamID     bool

	supportsPackets          bool
	supportsDiscardedEvents  bool
	supportsDiscardedPackets bool

	packetsHaveDefaultClockSnapshot           bool
	discardedEventsHaveDefaultClockSnapshots  bool
	discardedPacketsHaveDefaultClockSnapshots bool

	packetContextFC       *FieldClass
	eventCommonContextFC  *FieldClass
	defaultClockClass     *ClockClass

	eventClasses   []*EventClass
	eventClassByID map[uint64]*EventClass

	traceClass *TraceClass
}

// StreamClassConfig groups the construction-time flags of a StreamClass. All
// of its "assigns automatic ...", "supports ..." and "... default clock
// snapshot(s)" flags default to false, matching the conservative defaults of the original design: a stream class
// opts into packets, discarded-events tracking and discarded-packets
// tracking rather than having them on by default.
type StreamClassConfig struct {
	ID   uint64
	Name string

	AssignsAutomaticEventClassID bool
	AssignsAutomaticStreamID     bool

	SupportsPackets          bool
	SupportsDiscardedEvents  bool
	SupportsDiscardedPackets bool

	PacketsHaveDefaultClockSnapshot           bool
	DiscardedEventsHaveDefaultClockSnapshots  bool
	DiscardedPacketsHaveDefaultClockSnapshots bool

	DefaultClockClass *ClockClass
}

// NewStreamClass creates a stream class, unattached to any TraceClass.
// AppendStreamClass on a TraceClass performs the attachment.
func NewStreamClass(cfg StreamClassConfig) *StreamClass {
	sc := &StreamClass{
		id:                           cfg.ID,
		name:                         cfg.Name,
		assignsAutomaticEventClassID: cfg.AssignsAutomaticEventClassID,
		assignsAutomaticStreamID:     cfg.AssignsAutomaticStreamID,
		supportsPackets:              cfg.SupportsPackets,
		supportsDiscardedEvents:      cfg.SupportsDiscardedEvents,
		supportsDiscardedPackets:     cfg.SupportsDiscardedPackets,
		packetsHaveDefaultClockSnapshot:           cfg.PacketsHaveDefaultClockSnapshot,
		discardedEventsHaveDefaultClockSnapshots:  cfg.DiscardedEventsHaveDefaultClockSnapshots,
		discardedPacketsHaveDefaultClockSnapshots: cfg.DiscardedPacketsHaveDefaultClockSnapshots,
		defaultClockClass:                         cfg.DefaultClockClass,
		eventClassByID:                            map[uint64]*EventClass{},
	}
	sc.SharedObject = bt2.NewSharedObject(nil, nil)
	return sc
}

func (sc *StreamClass) ID() uint64     { return sc.id }
func (sc *StreamClass) Name() string   { return sc.name }
func (sc *StreamClass) TraceClass() *TraceClass { return sc.traceClass }

func (sc *StreamClass) AssignsAutomaticEventClassID() bool { return sc.assignsAutomaticEventClassID }
func (sc *StreamClass) AssignsAutomaticStreamID() bool     { return sc.assignsAutomaticStreamID }
func (sc *StreamClass) SupportsPackets() bool               { return sc.supportsPackets }
func (sc *StreamClass) SupportsDiscardedEvents() bool        { return sc.supportsDiscardedEvents }
func (sc *StreamClass) SupportsDiscardedPackets() bool       { return sc.supportsDiscardedPackets }
func (sc *StreamClass) PacketsHaveDefaultClockSnapshot() bool { return sc.packetsHaveDefaultClockSnapshot }
func (sc *StreamClass) DiscardedEventsHaveDefaultClockSnapshots() bool {
	return sc.discardedEventsHaveDefaultClockSnapshots
}
func (sc *StreamClass) DiscardedPacketsHaveDefaultClockSnapshots() bool {
	return sc.discardedPacketsHaveDefaultClockSnapshots
}

func (sc *StreamClass) PacketContextFieldClass() *FieldClass      { return sc.packetContextFC }
func (sc *StreamClass) EventCommonContextFieldClass() *FieldClass { return sc.eventCommonContextFC }
func (sc *StreamClass) DefaultClockClass() *ClockClass            { return sc.defaultClockClass }

func (sc *StreamClass) SetPacketContextFieldClass(fc *FieldClass) error {
	if err := sc.MutateGuard(); err != nil {
		return err
	}
	sc.packetContextFC = fc
	return nil
}

func (sc *StreamClass) SetEventCommonContextFieldClass(fc *FieldClass) error {
	if err := sc.MutateGuard(); err != nil {
		return err
	}
	sc.eventCommonContextFC = fc
	return nil
}

// EventClasses returns the stream class's event classes in declaration
// order.
func (sc *StreamClass) EventClasses() []*EventClass {
	return append([]*EventClass(nil), sc.eventClasses...)
}

func (sc *StreamClass) EventClassByID(id uint64) (*EventClass, bool) {
	ec, ok := sc.eventClassByID[id]
	return ec, ok
}

// AppendEventClass attaches ec to sc. It fails if sc is frozen, ec already
// belongs to a stream class, or an event class with the same id already
// exists (ids must be unique within a stream class).
func (sc *StreamClass) AppendEventClass(ec *EventClass) error {
	if err := sc.MutateGuard(); err != nil {
		return err
	}
	if ec.streamClass != nil {
		return errEventClassAlreadyAttached
	}
	if _, exists := sc.eventClassByID[ec.id]; exists {
		return fmt.Errorf("bt2/ir: stream class %d already has an event class with id %d", sc.id, ec.id)
	}
	ec.streamClass = sc
	sc.eventClassByID[ec.id] = ec
	sc.eventClasses = append(sc.eventClasses, ec)
	return nil
}

// freeze freezes sc's own field classes and cascades into every event class
// it owns. Called by TraceClass.freezeAll when the owning trace class is
// frozen.
func (sc *StreamClass) freeze() {
	sc.Freeze()
	sc.packetContextFC.Freeze()
	sc.eventCommonContextFC.Freeze()
	for _, ec := range sc.eventClasses {
		ec.Freeze()
		ec.freezeFieldClasses()
	}
}
