// Package ir implements the trace intermediate representation: the closed
// class hierarchy of metadata objects (clock classes, field classes, event
// and stream classes, trace classes) and their runtime instances (traces and
// streams).
//
// The IR classes form a tree rooted at a TraceClass. Field classes and their
// parent metadata objects are frozen together the first time a Stream is
// instantiated from the owning TraceClass; after that point no mutator on
// any of them succeeds.
package ir
