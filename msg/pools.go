package msg

import (
	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/internal/btdebug"
	"github.com/bt2go/bt2/internal/objpool"
	"github.com/bt2go/bt2/ir"
)

// Pools holds the per-graph free lists for the hot message kinds (Event,
// PacketBeginning, PacketEnd). A graph constructs one Pools and threads it
// through every iterator it drives; messages are tagged with the graph's
// token at acquisition time so Release can detect (and refuse) a message
// being returned to the wrong graph's pools.
type Pools struct {
	graphToken uint64

	event           *objpool.Pool[Message]
	packetBeginning *objpool.Pool[Message]
	packetEnd       *objpool.Pool[Message]
}

// NewPools creates the pool set for one graph, identified by graphToken
// (typically a graph-unique counter or ULID-derived value). capacity bounds
// each individual kind's free list.
func NewPools(graphToken uint64, capacity int) *Pools {
	reset := func(m *Message) { m.reset() }
	destroy := func(m *Message) {}

	return &Pools{
		graphToken: graphToken,
		event: objpool.New(capacity, func() *Message {
			btdebug.EventMessageCounters.Alloc.Add(1)
			return &Message{}
		}, reset, destroy),
		packetBeginning: objpool.New(capacity, func() *Message {
			btdebug.PacketBeginningCounters.Alloc.Add(1)
			return &Message{}
		}, reset, destroy),
		packetEnd: objpool.New(capacity, func() *Message {
			btdebug.PacketEndCounters.Alloc.Add(1)
			return &Message{}
		}, reset, destroy),
	}
}

// AcquireEvent returns a pooled Event message initialized with the given
// fields, acquiring from the free list when possible.
func (p *Pools) AcquireEvent(stream *ir.Stream, eventClass *ir.EventClass, fields bt2.Value, clockSnap *ClockSnapshot) *Message {
	btdebug.EventMessageCounters.Acquire.Add(1)
	m := p.event.Acquire()
	m.kind = KindEvent
	m.graphToken = p.graphToken
	m.stream = stream
	m.eventClass = eventClass
	m.fields = fields
	m.clockSnap = clockSnap
	return m
}

// ReleaseEvent returns m to the event pool. It is a no-op (the message is
// simply dropped for the GC to collect) if m was not acquired from this
// Pools instance.
func (p *Pools) ReleaseEvent(m *Message) {
	if m.kind != KindEvent || m.graphToken != p.graphToken {
		return
	}
	btdebug.EventMessageCounters.Release.Add(1)
	p.event.Release(m)
}

// AcquirePacketBeginning returns a pooled PacketBeginning message.
func (p *Pools) AcquirePacketBeginning(packet *ir.Packet, clockSnap *ClockSnapshot) *Message {
	btdebug.PacketBeginningCounters.Acquire.Add(1)
	m := p.packetBeginning.Acquire()
	m.kind = KindPacketBeginning
	m.graphToken = p.graphToken
	m.packet = packet
	m.clockSnap = clockSnap
	return m
}

// ReleasePacketBeginning returns m to the packet-beginning pool.
func (p *Pools) ReleasePacketBeginning(m *Message) {
	if m.kind != KindPacketBeginning || m.graphToken != p.graphToken {
		return
	}
	btdebug.PacketBeginningCounters.Release.Add(1)
	p.packetBeginning.Release(m)
}

// AcquirePacketEnd returns a pooled PacketEnd message.
func (p *Pools) AcquirePacketEnd(packet *ir.Packet, clockSnap *ClockSnapshot) *Message {
	btdebug.PacketEndCounters.Acquire.Add(1)
	m := p.packetEnd.Acquire()
	m.kind = KindPacketEnd
	m.graphToken = p.graphToken
	m.packet = packet
	m.clockSnap = clockSnap
	return m
}

// ReleasePacketEnd returns m to the packet-end pool.
func (p *Pools) ReleasePacketEnd(m *Message) {
	if m.kind != KindPacketEnd || m.graphToken != p.graphToken {
		return
	}
	btdebug.PacketEndCounters.Release.Add(1)
	p.packetEnd.Release(m)
}

// Drain destroys every pooled (currently idle) message across all three
// kinds. Called once when the owning graph is destroyed, mirroring
// trace_core.go's pool-draining on collector shutdown.
func (p *Pools) Drain() {
	p.event.Clear()
	p.packetBeginning.Clear()
	p.packetEnd.Clear()
}
