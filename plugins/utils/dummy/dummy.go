// Package dummy implements the utils.dummy sink: a component that pulls
// messages from its single input port and discards them. It exists to give
// the CLI and tests an obviously-correct consumer that exercises the graph
// scheduler without any rendering concern (rendering internals are a
// non-goal of this core; see spec.md §1).
package dummy

import (
	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/iter"
)

// ClassName is the component class name registered for this sink.
const ClassName = "dummy"

// batchCapacity bounds how many messages are pulled from the upstream
// iterator per SinkConsume call.
const batchCapacity = 64

type state struct {
	it *iter.Iterator
}

// NewClass creates the utils.dummy sink component class.
func NewClass() (*component.Class, error) {
	return component.NewClass(component.KindSink, ClassName,
		"discard every message received on the input port",
		"utils.dummy pulls from its single input port and drops everything it gets; "+
			"useful for benchmarking and for graphs that only care about side effects "+
			"performed by upstream filters.",
		component.Methods{
			Init:              initFunc,
			GraphIsConfigured: graphIsConfigured,
			SinkConsume:       sinkConsume,
		},
	)
}

func initFunc(self *component.Component, params bt2.Value) (any, error) {
	if _, err := self.AddInputPort("in", nil); err != nil {
		return nil, err
	}
	return &state{}, nil
}

func graphIsConfigured(self *component.Component) error {
	st := self.Opaque().(*state)
	in, ok := self.InputPortByName("in")
	if !ok {
		return nil
	}
	if !in.IsConnected() {
		return nil
	}
	it, err := component.CreateMessageIterator(in)
	if err != nil {
		return err
	}
	st.it = it
	return nil
}

func sinkConsume(self *component.Component) (errchain.Status, error) {
	st := self.Opaque().(*state)
	if st.it == nil {
		return errchain.End, nil
	}
	status, _, err := st.it.Next(batchCapacity)
	return status, err
}
