package component

import (
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/iter"
)

func TestNewClassRequiresSinkConsume(t *testing.T) {
	if _, err := NewClass(KindSink, "broken-sink", "", "", Methods{}); err == nil {
		t.Fatalf("NewClass(KindSink, ...) without SinkConsume succeeded")
	}
}

func TestSourceCannotAddInputPort(t *testing.T) {
	class, err := NewClass(KindSource, "src", "", "", Methods{
		MessageIteratorInit: func(self *Component, outputPort *Port) (*iter.Iterator, error) { return nil, nil },
	})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	c, err := New(class, "src0", bt2.NewNull())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.AddInputPort("in", nil); err == nil {
		t.Fatalf("AddInputPort on a source succeeded")
	}
}

func TestSinkCannotAddOutputPort(t *testing.T) {
	class, err := NewClass(KindSink, "sink", "", "", Methods{
		SinkConsume: func(self *Component) (errchain.Status, error) { return errchain.End, nil },
	})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	c, err := New(class, "sink0", bt2.NewNull())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.AddOutputPort("out", nil); err == nil {
		t.Fatalf("AddOutputPort on a sink succeeded")
	}
}

func TestPortAddedNotifiesComponentAndGraphListener(t *testing.T) {
	var compSeen, graphSeen *Port

	class, err := NewClass(KindFilter, "filt", "", "", Methods{
		PortAdded:           func(self *Component, port *Port) { compSeen = port },
		MessageIteratorInit: func(self *Component, outputPort *Port) (*iter.Iterator, error) { return nil, nil },
	})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	c, err := New(class, "filt0", bt2.NewNull())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.SetGraphPortAddedListener(func(self *Component, port *Port) { graphSeen = port })

	p, err := c.AddOutputPort("out", nil)
	if err != nil {
		t.Fatalf("AddOutputPort: %v", err)
	}
	if compSeen != p || graphSeen != p {
		t.Fatalf("port-added notification did not reach both listeners")
	}
}

func TestConnectRejectsWrongDirectionsAndDoubleConnect(t *testing.T) {
	srcClass, _ := NewClass(KindSource, "src", "", "", Methods{
		MessageIteratorInit: func(self *Component, outputPort *Port) (*iter.Iterator, error) { return nil, nil },
	})
	sinkClass, _ := NewClass(KindSink, "sink", "", "", Methods{
		SinkConsume: func(self *Component) (errchain.Status, error) { return errchain.End, nil },
	})
	src, _ := New(srcClass, "src0", bt2.NewNull())
	sink, _ := New(sinkClass, "sink0", bt2.NewNull())

	out, _ := src.AddOutputPort("out", nil)
	in, _ := sink.AddInputPort("in", nil)

	if _, err := Connect(in, out); err == nil {
		t.Fatalf("Connect(input, output) (swapped) succeeded")
	}

	if _, err := Connect(out, in); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	in2, _ := sink.AddInputPort("in2", nil)
	if _, err := Connect(out, in2); err == nil {
		t.Fatalf("Connect succeeded on an already-connected output port")
	}
}
