// Package bt2 provides the shared foundations of the pipeline engine: a
// reference-counted, freezable object base (SharedObject) and a typed
// dynamic configuration value tree (Value).
//
// Every long-lived entity in the trace IR, message, component and graph
// layers embeds a *SharedObject for ownership and freeze semantics. Value
// is used for component parameters, query objects and query results.
//
// Most applications interact with this package indirectly, through
// [github.com/bt2go/bt2/graph] and the component packages it wires
// together.
package bt2
