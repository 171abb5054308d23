package component

import (
	"fmt"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/internal/errchain"
)

// Kind is the closed set of component kinds.
type Kind int

const (
	KindSource Kind = iota
	KindFilter
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindFilter:
		return "filter"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// InitFunc initializes a newly created component instance given its
// configuration parameters, returning whatever opaque state the component
// wants to carry for the rest of its life.
type InitFunc func(self *Component, params bt2.Value) (opaque any, err error)

// FinalizeFunc runs once, when a component is being torn down, symmetric
// with InitFunc.
type FinalizeFunc func(self *Component)

// QueryFunc answers a query-executor request (§4.4) addressed to this
// component class, without requiring a live component instance.
type QueryFunc func(class *Class, object string, params bt2.Value, interrupter Interrupter) (bt2.Value, error)

// GraphIsConfiguredFunc notifies a sink, exactly once, that all connections
// have been made and it may start consuming. Returning an error taints the
// graph (§4.5).
type GraphIsConfiguredFunc func(self *Component) error

// SinkConsumeFunc advances a sink's own input iterators once.
type SinkConsumeFunc func(self *Component) (errchain.Status, error)

// PortAddedFunc notifies a component that one of its own ports was added,
// whether at init time or later (sources and filters may add output ports
// on demand, during a downstream iterator's creation).
type PortAddedFunc func(self *Component, port *Port)

// AcceptPortConnectionFunc notifies a downstream component that the graph
// is about to connect otherPort to port; returning a non-nil error refuses
// the connection.
type AcceptPortConnectionFunc func(self *Component, port *Port, otherPort *Port) error

// Interrupter lets a long-running query or consume call check for
// cooperative cancellation; the graph runtime supplies the concrete
// implementation (graph.Interrupter, backed by an atomic flag).
type Interrupter interface {
	IsSet() bool
}

// Methods is the method table of a ComponentClass. Which fields are
// meaningful depends on Kind: GraphIsConfigured and SinkConsume apply only
// to KindSink; Init, Finalize, Query and PortAdded apply to all three.
type Methods struct {
	Init                 InitFunc
	Finalize             FinalizeFunc
	Query                QueryFunc
	PortAdded            PortAddedFunc
	AcceptPortConnection AcceptPortConnectionFunc
	GraphIsConfigured    GraphIsConfiguredFunc
	SinkConsume          SinkConsumeFunc

	// MessageIteratorInit is required on source and filter classes (it is
	// never called on a sink, which has no output ports). See
	// MessageIteratorInitFunc.
	MessageIteratorInit MessageIteratorInitFunc
}

// Class is a component class: the kind, descriptive metadata, and method
// table shared by every Component instantiated from it.
type Class struct {
	*bt2.SharedObject

	kind        Kind
	name        string
	description string
	help        string
	methods     Methods
}

// NewClass creates a component class. Sink classes must supply
// Methods.SinkConsume; this is checked here rather than left to fail at
// first consume, since a sink class without one can never do anything
// useful.
func NewClass(kind Kind, name, description, help string, methods Methods) (*Class, error) {
	if kind == KindSink && methods.SinkConsume == nil {
		return nil, fmt.Errorf("bt2/component: sink class %q has no SinkConsume method", name)
	}
	if kind != KindSink && methods.MessageIteratorInit == nil {
		return nil, fmt.Errorf("bt2/component: %s class %q has no MessageIteratorInit method", kind, name)
	}
	c := &Class{kind: kind, name: name, description: description, help: help, methods: methods}
	c.SharedObject = bt2.NewSharedObject(nil, nil)
	return c, nil
}

func (c *Class) Kind() Kind               { return c.kind }
func (c *Class) Name() string             { return c.name }
func (c *Class) Description() string      { return c.description }
func (c *Class) HelpText() string         { return c.help }
func (c *Class) Methods() Methods         { return c.methods }
