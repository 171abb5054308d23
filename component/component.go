package component

import (
	"fmt"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/internal/errchain"
)

// Component is an instance of a Class within a specific graph: it owns its
// ports and whatever opaque state its class's Init produced.
type Component struct {
	*bt2.SharedObject

	class *Class
	name  string

	opaque any

	inputPorts       []*Port
	inputPortByName  map[string]*Port
	outputPorts      []*Port
	outputPortByName map[string]*Port

	// graphPortAdded is set by the owning graph right after construction.
	// Every later port addition — from a port-added callback or during a
	// downstream iterator's creation — is reported to it synchronously;
	// ports added during Init exist before it is set, and the graph reports
	// those itself when it attaches the listener (§4.3).
	graphPortAdded func(*Component, *Port)
}

// New creates a component instance of class, running its Init method.
func New(class *Class, instanceName string, params bt2.Value) (*Component, error) {
	c := &Component{
		class:            class,
		name:             instanceName,
		inputPortByName:  map[string]*Port{},
		outputPortByName: map[string]*Port{},
	}
	c.SharedObject = bt2.NewSharedObject(nil, nil)

	if class.methods.Init != nil {
		opaque, err := class.methods.Init(c, params)
		if err != nil {
			actor := errchain.Actor{Kind: errchain.ActorComponent, Name: instanceName, ClassRef: class.Name()}
			return nil, errchain.Wrap(err, actor, fmt.Sprintf("init %q", instanceName))
		}
		c.opaque = opaque
	}
	return c, nil
}

func (c *Component) Class() *Class { return c.class }
func (c *Component) Name() string  { return c.name }
func (c *Component) Opaque() any   { return c.opaque }

// SetGraphPortAddedListener registers the graph-level port-added callback.
// Exported for the graph package (component cannot import graph, which
// would be a cycle); called once, right after New.
func (c *Component) SetGraphPortAddedListener(fn func(*Component, *Port)) {
	c.graphPortAdded = fn
}

// Finalize runs the class's Finalize method, if any. The graph calls this
// once, when the component is being torn down.
func (c *Component) Finalize() {
	if c.class.methods.Finalize != nil {
		c.class.methods.Finalize(c)
	}
}

func (c *Component) InputPorts() []*Port  { return append([]*Port(nil), c.inputPorts...) }
func (c *Component) OutputPorts() []*Port { return append([]*Port(nil), c.outputPorts...) }

func (c *Component) InputPortByName(name string) (*Port, bool) {
	p, ok := c.inputPortByName[name]
	return p, ok
}

func (c *Component) OutputPortByName(name string) (*Port, bool) {
	p, ok := c.outputPortByName[name]
	return p, ok
}

// AddInputPort adds an input port. Sources never have input ports (§4.3);
// rejecting here rather than leaving it to misuse downstream.
func (c *Component) AddInputPort(name string, userData any) (*Port, error) {
	if c.class.kind == KindSource {
		return nil, fmt.Errorf("bt2/component: source %q cannot have input ports", c.name)
	}
	if _, exists := c.inputPortByName[name]; exists {
		return nil, fmt.Errorf("bt2/component: %q already has an input port named %q", c.name, name)
	}
	p := newPort(DirectionInput, name, c, userData)
	c.inputPortByName[name] = p
	c.inputPorts = append(c.inputPorts, p)
	c.notifyPortAdded(p)
	return p, nil
}

// AddOutputPort adds an output port. Sinks never have output ports (§4.3).
func (c *Component) AddOutputPort(name string, userData any) (*Port, error) {
	if c.class.kind == KindSink {
		return nil, fmt.Errorf("bt2/component: sink %q cannot have output ports", c.name)
	}
	if _, exists := c.outputPortByName[name]; exists {
		return nil, fmt.Errorf("bt2/component: %q already has an output port named %q", c.name, name)
	}
	p := newPort(DirectionOutput, name, c, userData)
	c.outputPortByName[name] = p
	c.outputPorts = append(c.outputPorts, p)
	c.notifyPortAdded(p)
	return p, nil
}

func (c *Component) notifyPortAdded(p *Port) {
	if c.class.methods.PortAdded != nil {
		c.class.methods.PortAdded(c, p)
	}
	if c.graphPortAdded != nil {
		c.graphPortAdded(c, p)
	}
}
