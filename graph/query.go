package graph

import (
	"fmt"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
)

// Well-known query objects recognized by the core (§4.4). Component
// classes are free to answer any other object string; these three are the
// ones the CLI and auto-discovery rely on existing.
const (
	QueryObjectSupportInfo   = "babeltrace.support-info"
	QueryObjectTraceInfo     = "babeltrace.trace-info"
	QueryObjectMetadataInfo  = "metadata-info"
)

// Execute performs a synchronous query against class, without instantiating
// a component. It is re-entrant across classes (nothing here is shared
// mutable state besides the interrupter, which is read-only from the
// callee's perspective).
func Execute(class *component.Class, object string, params bt2.Value, interrupter *Interrupter) (bt2.Value, error) {
	if object == "" {
		return bt2.Value{}, fmt.Errorf("bt2/graph: query object must not be empty")
	}
	q := class.Methods().Query
	actor := errchain.Actor{Kind: errchain.ActorComponentClass, ClassRef: class.Name()}
	if q == nil {
		return bt2.Value{}, errchain.Wrap(fmt.Errorf("does not support queries"), actor, fmt.Sprintf("query %q", object))
	}
	if interrupter != nil && interrupter.IsSet() {
		return bt2.Value{}, errQueryCanceled
	}

	var ci component.Interrupter
	if interrupter != nil {
		ci = interrupter
	}
	result, err := q(class, object, params, ci)
	if err != nil {
		return bt2.Value{}, errchain.Wrap(err, actor, fmt.Sprintf("query %q", object))
	}
	return result, nil
}

var errQueryCanceled = fmt.Errorf("bt2/graph: query canceled: %s", errchain.Canceled)
