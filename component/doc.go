// Package component implements the component-class/component/port/
// connection layer: the pluggable unit of work in a graph (source, filter
// or sink), its instances, and the directed wiring between them.
//
// A ComponentClass is a method table plus descriptive metadata; Component is
// an instance of a class holding user-opaque state, owning a set of Ports.
// A Connection joins exactly one output Port to exactly one input Port.
package component
