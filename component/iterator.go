package component

import (
	"fmt"

	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/iter"
)

// MessageIteratorInitFunc creates a new message iterator attached to
// outputPort. Sources and filters implement this once per component class;
// it is invoked on demand, once per downstream consumer of outputPort
// (§4.3: "creates a new message iterator on demand for each connected
// output port"). A filter's implementation typically calls
// CreateMessageIterator on its own input ports first, to obtain the
// upstream iterators it merges or transforms.
type MessageIteratorInitFunc func(self *Component, outputPort *Port) (*iter.Iterator, error)

// CreateMessageIterator creates a message iterator on inputPort by
// delegating to the upstream output port's component class. inputPort must
// be connected; the upstream class must implement MessageIteratorInit.
// This is the operation that turns a static Connection into a live,
// pullable iterator, and may itself trigger the upstream component to add
// further output ports (§4.3's "during a downstream iterator's creation"
// port-lifecycle case) before returning.
func CreateMessageIterator(inputPort *Port) (*iter.Iterator, error) {
	if inputPort.direction != DirectionInput {
		return nil, fmt.Errorf("bt2/component: CreateMessageIterator: port %q is not an input port", inputPort.name)
	}
	conn := inputPort.Connection()
	if conn == nil {
		return nil, fmt.Errorf("bt2/component: CreateMessageIterator: port %q is not connected", inputPort.name)
	}

	output := conn.OutputPort()
	upstream := output.Component()
	actor := errchain.Actor{
		Kind:           errchain.ActorMessageIterator,
		Name:           upstream.Name(),
		ClassRef:       upstream.Class().Name(),
		OutputPortName: output.Name(),
	}

	initFn := upstream.Class().Methods().MessageIteratorInit
	if initFn == nil {
		return nil, errchain.Wrap(
			fmt.Errorf("class %q does not implement message iterator creation", upstream.Class().Name()),
			actor, "create message iterator")
	}
	it, err := initFn(upstream, output)
	if err != nil {
		return nil, errchain.Wrap(err, actor, "create message iterator")
	}
	return it, nil
}
