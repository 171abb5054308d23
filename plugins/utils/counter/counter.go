// Package counter implements the utils.counter sink: a component that
// tallies every message kind it receives and periodically logs the running
// totals, the way the original's counter.c logs a count every "step"
// messages (see _examples/original_source/src/plugins/utils/counter).
package counter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/iter"
	"github.com/bt2go/bt2/msg"
)

// ClassName is the component class name registered for this sink.
const ClassName = "counter"

// defaultStep mirrors the original's default of logging every 1,000,000
// messages; lower here since this engine isn't CTF-decoder-backed and a
// CLI user is more likely to be looking at a handful of synthetic streams.
const defaultStep = 10000

const batchCapacity = 64

// Counts holds the per-kind message tallies a counter sink accumulates.
type Counts struct {
	Event             uint64
	StreamBeginning   uint64
	StreamEnd         uint64
	PacketBeginning   uint64
	PacketEnd         uint64
	DiscardedEvents   uint64
	DiscardedPackets  uint64
	Inactivity        uint64
}

func (c Counts) total() uint64 {
	return c.Event + c.StreamBeginning + c.StreamEnd + c.PacketBeginning +
		c.PacketEnd + c.DiscardedEvents + c.DiscardedPackets + c.Inactivity
}

type state struct {
	logger *zap.Logger
	step   uint64
	it     *iter.Iterator
	counts Counts
	lastLogged uint64
}

// NewClass creates the utils.counter sink component class. logger receives
// the periodic count summaries; a nil logger falls back to zap.NewNop.
func NewClass(logger *zap.Logger) (*component.Class, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return component.NewClass(component.KindSink, ClassName,
		"count messages received on the input port and periodically log totals",
		"utils.counter tallies every message it receives, broken down by kind, "+
			"and logs the running totals every `step` messages (params: step, default "+
			"10000) plus once more when the upstream iterator ends.",
		component.Methods{
			Init:              func(self *component.Component, params bt2.Value) (any, error) { return initFunc(self, params, logger) },
			GraphIsConfigured: graphIsConfigured,
			SinkConsume:       sinkConsume,
		},
	)
}

func initFunc(self *component.Component, params bt2.Value, logger *zap.Logger) (any, error) {
	if _, err := self.AddInputPort("in", nil); err != nil {
		return nil, err
	}
	step := uint64(defaultStep)
	if !params.IsNull() {
		if v, ok := params.MapGet("step"); ok {
			if u, ok := v.AsUnsignedInt(); ok && u > 0 {
				step = u
			}
		}
	}
	return &state{logger: logger, step: step}, nil
}

func graphIsConfigured(self *component.Component) error {
	st := self.Opaque().(*state)
	in, ok := self.InputPortByName("in")
	if !ok || !in.IsConnected() {
		return nil
	}
	it, err := component.CreateMessageIterator(in)
	if err != nil {
		return err
	}
	st.it = it
	return nil
}

func (st *state) tally(m *msg.Message) {
	switch m.Kind() {
	case msg.KindEvent:
		st.counts.Event++
	case msg.KindStreamBeginning:
		st.counts.StreamBeginning++
	case msg.KindStreamEnd:
		st.counts.StreamEnd++
	case msg.KindPacketBeginning:
		st.counts.PacketBeginning++
	case msg.KindPacketEnd:
		st.counts.PacketEnd++
	case msg.KindDiscardedEvents:
		st.counts.DiscardedEvents++
	case msg.KindDiscardedPackets:
		st.counts.DiscardedPackets++
	case msg.KindIteratorInactivity:
		st.counts.Inactivity++
	}
}

func (st *state) logIfDue(self *component.Component, force bool) {
	total := st.counts.total()
	if !force && (total == 0 || total-st.lastLogged < st.step) {
		return
	}
	st.lastLogged = total
	st.logger.Info("message counts",
		zap.String("component", self.Name()),
		zap.Uint64("total", total),
		zap.Uint64("event", st.counts.Event),
		zap.Uint64("stream_beginning", st.counts.StreamBeginning),
		zap.Uint64("stream_end", st.counts.StreamEnd),
		zap.Uint64("packet_beginning", st.counts.PacketBeginning),
		zap.Uint64("packet_end", st.counts.PacketEnd),
		zap.Uint64("discarded_events", st.counts.DiscardedEvents),
		zap.Uint64("discarded_packets", st.counts.DiscardedPackets),
	)
}

func sinkConsume(self *component.Component) (errchain.Status, error) {
	st := self.Opaque().(*state)
	if st.it == nil {
		return errchain.End, nil
	}
	status, batch, err := st.it.Next(batchCapacity)
	for _, m := range batch {
		st.tally(m)
	}
	st.logIfDue(self, status == errchain.End)
	if err != nil {
		return status, fmt.Errorf("utils.counter: %w", err)
	}
	return status, nil
}
