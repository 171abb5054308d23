package graph

import (
	"fmt"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/msg"
)

// State is the graph's configuration state machine:
// Configuring -> PartiallyConfigured -> Configured, plus the absorbing
// Faulty state reachable from any of the above.
type State int

const (
	StateConfiguring State = iota
	StatePartiallyConfigured
	StateConfigured
	StateFaulty
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StatePartiallyConfigured:
		return "partially-configured"
	case StateConfigured:
		return "configured"
	case StateFaulty:
		return "faulty"
	default:
		return "unknown"
	}
}

// portAddedKey groups port-added listeners by (component kind, direction),
// matching the registration granularity in §4.5.
type portAddedKey struct {
	kind      component.Kind
	direction component.Direction
}

// Graph owns a set of wired-together components and drives sink
// consumption to completion. Per the concurrency model, a Graph is not
// internally synchronized: all of run/consume/query/component-registration
// must be called from a single goroutine.
type Graph struct {
	*bt2.SharedObject

	token uint64
	pools *msg.Pools

	state State

	components   []*component.Component
	componentsByName map[string]*component.Component

	sinksToConsume []*component.Component

	interrupters []*Interrupter

	portAddedListeners map[portAddedKey][]func(*component.Component, *component.Port)

	retryDurationUs uint64
}

// New creates an empty graph identified by token (used to tag pooled
// messages so they can't cross between graphs). poolCapacity bounds each
// hot-kind message pool.
func New(token uint64, poolCapacity int) *Graph {
	g := &Graph{
		token:              token,
		pools:              msg.NewPools(token, poolCapacity),
		componentsByName:   map[string]*component.Component{},
		portAddedListeners: map[portAddedKey][]func(*component.Component, *component.Port){},
	}
	g.SharedObject = bt2.NewSharedObject(nil, func() { g.pools.Drain() })
	return g
}

func (g *Graph) State() State   { return g.state }
func (g *Graph) Pools() *msg.Pools { return g.pools }

// Components returns every component added to the graph so far, in
// registration order.
func (g *Graph) Components() []*component.Component {
	return append([]*component.Component(nil), g.components...)
}

// AddInterrupter registers a shared cancellation flag with the graph.
func (g *Graph) AddInterrupter(i *Interrupter) {
	g.interrupters = append(g.interrupters, i)
}

func (g *Graph) anyInterrupterSet() bool {
	for _, i := range g.interrupters {
		if i.IsSet() {
			return true
		}
	}
	return false
}

// AddPortAddedListener registers callback to run whenever a component of
// kind adds a port of direction.
func (g *Graph) AddPortAddedListener(kind component.Kind, direction component.Direction, callback func(*component.Component, *component.Port)) {
	key := portAddedKey{kind: kind, direction: direction}
	g.portAddedListeners[key] = append(g.portAddedListeners[key], callback)
}

func (g *Graph) notifyPortAdded(c *component.Component, p *component.Port) {
	key := portAddedKey{kind: c.Class().Kind(), direction: p.Direction()}
	for _, cb := range g.portAddedListeners[key] {
		cb(c, p)
	}
}

// addComponent is the shared implementation behind AddSourceComponent,
// AddFilterComponent and AddSinkComponent.
func (g *Graph) addComponent(class *component.Class, name string, params bt2.Value) (*component.Component, error) {
	if g.state != StateConfiguring {
		return nil, fmt.Errorf("bt2/graph: cannot add components while graph is %v", g.state)
	}
	if _, exists := g.componentsByName[name]; exists {
		return nil, fmt.Errorf("bt2/graph: a component named %q already exists in this graph", name)
	}

	c, err := component.New(class, name, params)
	if err != nil {
		return nil, err
	}
	c.SetGraphPortAddedListener(g.notifyPortAdded)

	g.componentsByName[name] = c
	g.components = append(g.components, c)

	if class.Kind() == component.KindSink {
		g.sinksToConsume = append(g.sinksToConsume, c)
	}

	// Init already ran inside component.New, before the listener above was
	// attached, so ports it added are reported to the graph-level
	// listeners here: input ports first, then output ports, each in
	// creation order. Ports added later are reported as they are added.
	for _, p := range c.InputPorts() {
		g.notifyPortAdded(c, p)
	}
	for _, p := range c.OutputPorts() {
		g.notifyPortAdded(c, p)
	}
	return c, nil
}

// AddSourceComponent adds a source component instance.
func (g *Graph) AddSourceComponent(class *component.Class, name string, params bt2.Value) (*component.Component, error) {
	if class.Kind() != component.KindSource {
		return nil, fmt.Errorf("bt2/graph: AddSourceComponent: class %q is not a source", class.Name())
	}
	return g.addComponent(class, name, params)
}

// AddFilterComponent adds a filter component instance.
func (g *Graph) AddFilterComponent(class *component.Class, name string, params bt2.Value) (*component.Component, error) {
	if class.Kind() != component.KindFilter {
		return nil, fmt.Errorf("bt2/graph: AddFilterComponent: class %q is not a filter", class.Name())
	}
	return g.addComponent(class, name, params)
}

// AddSinkComponent adds a sink component instance.
func (g *Graph) AddSinkComponent(class *component.Class, name string, params bt2.Value) (*component.Component, error) {
	if class.Kind() != component.KindSink {
		return nil, fmt.Errorf("bt2/graph: AddSinkComponent: class %q is not a sink", class.Name())
	}
	return g.addComponent(class, name, params)
}

// ConnectPorts wires output to input. Kinds must be compatible
// (source -> {filter, sink}, filter -> {filter, sink}); a sink's input can
// only ever receive from a filter or source output, never another sink
// (sinks have no output ports at all, so this falls out of the type system
// already, but the explicit kind check gives a clearer error).
func (g *Graph) ConnectPorts(output, input *component.Port) (*component.Connection, error) {
	outKind := output.Component().Class().Kind()
	if outKind == component.KindSink {
		return nil, fmt.Errorf("bt2/graph: ConnectPorts: output port belongs to a sink")
	}
	if output.Component() == input.Component() {
		return nil, fmt.Errorf("bt2/graph: ConnectPorts: cannot connect a component to itself")
	}

	downstream := input.Component()
	if downstream.Class().Methods().AcceptPortConnection != nil {
		if err := downstream.Class().Methods().AcceptPortConnection(downstream, input, output); err != nil {
			return nil, fmt.Errorf("bt2/graph: connection refused by %q: %w", downstream.Name(), err)
		}
	}

	return component.Connect(output, input)
}

// Configure transitions the graph from Configuring to Configured, calling
// each sink's GraphIsConfigured exactly once. At least one sink is
// required. Any GraphIsConfigured error makes the graph permanently Faulty.
func (g *Graph) Configure() error {
	if g.state == StateConfigured {
		return nil
	}
	if g.state == StateFaulty {
		return fmt.Errorf("bt2/graph: graph is faulty")
	}
	if len(g.sinksToConsume) == 0 {
		return fmt.Errorf("bt2/graph: cannot configure a graph with no sinks")
	}

	g.state = StatePartiallyConfigured
	for _, sink := range g.sinksToConsume {
		gic := sink.Class().Methods().GraphIsConfigured
		if gic == nil {
			continue
		}
		if err := gic(sink); err != nil {
			g.state = StateFaulty
			actor := errchain.Actor{Kind: errchain.ActorComponent, Name: sink.Name(), ClassRef: sink.Class().Name()}
			return errchain.Wrap(err, actor, "refused configuration")
		}
	}
	g.state = StateConfigured
	return nil
}

// Consume advances the sink scheduler by a single step: pop the head sink,
// invoke its consume method, and push it back (Ok/Again) or drop it (End)
// per the FIFO protocol (§4.5). Returns End once the queue is empty.
func (g *Graph) Consume() (errchain.Status, error) {
	if g.state == StateFaulty {
		actor := errchain.Actor{Kind: errchain.ActorUnknown, Module: "bt2/graph"}
		return errchain.Error, errchain.Wrap(fmt.Errorf("graph is faulty"), actor, "consume")
	}
	if g.state != StateConfigured {
		if err := g.Configure(); err != nil {
			return errchain.Error, err
		}
	}
	if g.anyInterrupterSet() {
		return errchain.Canceled, nil
	}
	if len(g.sinksToConsume) == 0 {
		return errchain.End, nil
	}

	sink := g.sinksToConsume[0]
	g.sinksToConsume = g.sinksToConsume[1:]

	status, err := sink.Class().Methods().SinkConsume(sink)
	switch status {
	case errchain.Ok, errchain.Again:
		g.sinksToConsume = append(g.sinksToConsume, sink)
	case errchain.End:
		// dropped
	case errchain.Error:
		g.state = StateFaulty
		actor := errchain.Actor{Kind: errchain.ActorComponent, Name: sink.Name(), ClassRef: sink.Class().Name()}
		return errchain.Error, errchain.Wrap(err, actor, "consume")
	}

	if len(g.sinksToConsume) == 0 {
		return errchain.End, nil
	}
	return status, err
}

// Run drives Consume until every sink has returned End, an interrupter
// trips, or a sink returns Error.
func (g *Graph) Run() error {
	for {
		status, err := g.Consume()
		switch status {
		case errchain.End:
			return nil
		case errchain.Canceled:
			return fmt.Errorf("bt2/graph: run canceled")
		case errchain.Error:
			return err
		}
		// Ok or Again: keep driving. The graph itself never sleeps on
		// Again (§4.5); a caller layered on top (e.g. the CLI) may.
	}
}
