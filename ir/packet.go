package ir

import "github.com/bt2go/bt2"

// Packet is a runtime instance of a packet within a Stream. The trace IR
// proper (§3.4) doesn't name Packet as a top-level class, but the message
// model (§3.5) references it from PacketBeginning/PacketEnd, so it lives
// here alongside Stream as the other runtime instance type.
type Packet struct {
	*bt2.SharedObject

	stream *Stream
	seq    uint64
}

// NewPacket creates a packet instance of stream. seq is caller-assigned and
// has no ordering requirement enforced by this type; sequencing invariants
// belong to the message-iterator layer, which observes packets framed by
// PacketBeginning/PacketEnd messages.
func NewPacket(stream *Stream, seq uint64) *Packet {
	stream.GetRef()
	p := &Packet{stream: stream, seq: seq}
	p.SharedObject = bt2.NewSharedObject(nil, func() { stream.PutRef() })
	return p
}

func (p *Packet) Stream() *Stream { return p.stream }
func (p *Packet) Seq() uint64     { return p.seq }
