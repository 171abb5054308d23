package component

import "github.com/bt2go/bt2"

// Direction distinguishes an input port (where a component receives
// messages, via an iterator it owns) from an output port (where a
// component produces them, via an iterator it hands to whoever connects).
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionInput {
		return "input"
	}
	return "output"
}

// Port belongs to exactly one Component and carries at most one Connection
// at a time.
type Port struct {
	*bt2.SharedObject

	direction Direction
	name      string
	component *Component
	userData  any

	connection *Connection
}

func newPort(direction Direction, name string, owner *Component, userData any) *Port {
	p := &Port{direction: direction, name: name, component: owner, userData: userData}
	p.SharedObject = bt2.NewSharedObject(nil, nil)
	return p
}

func (p *Port) Direction() Direction  { return p.direction }
func (p *Port) Name() string          { return p.name }
func (p *Port) Component() *Component { return p.component }
func (p *Port) UserData() any         { return p.userData }

// Connection returns the port's current connection, or nil if unconnected.
func (p *Port) Connection() *Connection { return p.connection }

// IsConnected reports whether the port currently carries a Connection.
func (p *Port) IsConnected() bool { return p.connection != nil }
