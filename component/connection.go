package component

import (
	"fmt"

	"github.com/bt2go/bt2"
)

// Connection joins exactly one output Port to exactly one input Port. It is
// owned by the graph that created it; the references it holds to both
// endpoints are weak in the sense that a Connection does not keep either
// port's component alive (ports are owned by their components, which are
// owned by the graph).
type Connection struct {
	*bt2.SharedObject

	output *Port
	input  *Port
}

// Connect joins output to input, recording the Connection on both ports. It
// fails if either port is already connected, or if output/input don't
// actually have the directions their names imply.
func Connect(output, input *Port) (*Connection, error) {
	if output.direction != DirectionOutput {
		return nil, fmt.Errorf("bt2/component: Connect: first argument is not an output port")
	}
	if input.direction != DirectionInput {
		return nil, fmt.Errorf("bt2/component: Connect: second argument is not an input port")
	}
	if output.IsConnected() {
		return nil, fmt.Errorf("bt2/component: output port %q is already connected", output.name)
	}
	if input.IsConnected() {
		return nil, fmt.Errorf("bt2/component: input port %q is already connected", input.name)
	}

	conn := &Connection{output: output, input: input}
	conn.SharedObject = bt2.NewSharedObject(nil, nil)
	output.connection = conn
	input.connection = conn
	return conn, nil
}

func (c *Connection) OutputPort() *Port { return c.output }
func (c *Connection) InputPort() *Port  { return c.input }
