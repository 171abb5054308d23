// Package graph implements the graph runtime (§4.5): the owner of a set of
// wired-together components that drives sink consumption to completion, and
// the query executor (§4.4) that answers class-level queries without
// instantiating a component.
package graph
