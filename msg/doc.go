// Package msg implements the message model of the iterator protocol: the
// closed set of message kinds produced by source and filter components and
// consumed by filters and sinks, and the per-graph pools that recycle the
// hot kinds (Event, PacketBeginning, PacketEnd).
package msg
