// Package iter implements the message iterator protocol (§4.2): the
// pull-based, batched interface downstream components use to consume
// messages from an upstream output port, plus a framing validator whose
// Check can be run on every message an iterator returns to check the
// per-stream message language and clock monotonicity contracts at runtime
// (this package's tests use it; no component in this module does).
package iter
