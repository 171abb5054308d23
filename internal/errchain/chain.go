package errchain

import (
	"fmt"
	"runtime"
	"strings"
)

// ActorKind identifies what kind of entity appended a Cause.
type ActorKind int

const (
	// ActorUnknown identifies a bare module, e.g. a package-level helper
	// with no component or iterator context.
	ActorUnknown ActorKind = iota

	// ActorComponent identifies a specific component instance.
	ActorComponent

	// ActorComponentClass identifies a component class, used by query
	// executor failures that occur before any component is instantiated.
	ActorComponentClass

	// ActorMessageIterator identifies a specific message iterator,
	// attached to an output port of a named component class.
	ActorMessageIterator
)

// Actor identifies who appended a Cause to a Chain.
type Actor struct {
	Kind ActorKind

	// Module is set when Kind is ActorUnknown.
	Module string

	// Name is the component or iterator name, when applicable.
	Name string

	// ClassRef names the component class, when applicable.
	ClassRef string

	// OutputPortName is set when Kind is ActorMessageIterator.
	OutputPortName string
}

func (a Actor) String() string {
	switch a.Kind {
	case ActorComponent:
		return fmt.Sprintf("component %q (%s)", a.Name, a.ClassRef)
	case ActorComponentClass:
		return fmt.Sprintf("component class %s", a.ClassRef)
	case ActorMessageIterator:
		return fmt.Sprintf("message iterator %q (output port %q, %s)", a.Name, a.OutputPortName, a.ClassRef)
	default:
		if a.Module != "" {
			return fmt.Sprintf("module %s", a.Module)
		}
		return "unknown"
	}
}

// Cause is a single entry appended to a Chain when an operation fails.
type Cause struct {
	Actor   Actor
	File    string
	Line    int
	Message string
}

func (c Cause) String() string {
	return fmt.Sprintf("%s: %s:%d: %s", c.Actor, c.File, c.Line, c.Message)
}

// Chain is an ordered list of causes, appended to as a failure propagates
// up through layers. Each layer should wrap and append rather than replace,
// so the chain reads deepest-cause-first when printed.
//
// The original design keeps this stack thread-local; Go's goroutine model
// makes thread-locals an anti-pattern, so a Chain is instead threaded
// explicitly through return values, growing by one Cause at each layer
// that observes and re-reports a failure (see Wrap).
type Chain struct {
	causes []Cause
}

// Append adds a new cause to the chain, computing the file/line of the
// caller at the given skip depth (0 = the function calling Append).
func (c *Chain) Append(actor Actor, skip int, format string, args ...any) *Chain {
	if c == nil {
		c = &Chain{}
	}
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file, line = "unknown", 0
	}
	c.causes = append(c.causes, Cause{
		Actor:   actor,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
	return c
}

// Causes returns the causes in append order (most recent last).
func (c *Chain) Causes() []Cause {
	if c == nil {
		return nil
	}
	return c.causes
}

// Error implements the error interface, printing from the deepest cause
// (the root, appended first) to the most recent, one per line. Every cause
// but the most recent is prefixed with "Caused by: ".
func (c *Chain) Error() string {
	if c == nil || len(c.causes) == 0 {
		return "<empty error chain>"
	}
	var sb strings.Builder
	for i, cause := range c.causes {
		if i != 0 {
			sb.WriteString("\n")
		}
		if i != len(c.causes)-1 {
			sb.WriteString("Caused by: ")
		}
		sb.WriteString(cause.String())
	}
	return sb.String()
}

// IsEmpty reports whether the chain has no causes.
func (c *Chain) IsEmpty() bool {
	return c == nil || len(c.causes) == 0
}

// Wrap appends a cause describing err to the chain it already carries
// (growing the chain in place as the failure propagates up through layers),
// or starts a new one if err isn't a *Chain yet. context describes what
// actor was doing when it observed err; err's own message is folded into
// the new cause automatically. Returns nil if err is nil.
//
// The file/line recorded is that of Wrap's caller, i.e. the real call site
// that observed the failure.
func Wrap(err error, actor Actor, context string) error {
	if err == nil {
		return nil
	}
	chain, ok := err.(*Chain)
	msg := context
	if !ok {
		msg = fmt.Sprintf("%s: %s", context, err)
	}
	return chain.Append(actor, 1, "%s", msg)
}
