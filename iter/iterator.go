package iter

import (
	"fmt"
	"sync/atomic"

	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/msg"
)

// State is the iterator's lifecycle state machine: NotStarted -> Active ->
// (Ended | Finalized), with Finalized reachable from any state via an
// explicit Finalize call.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateEnded
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// PullFunc produces at most one message per call. A nil message paired with
// errchain.End/Again/Error/MemoryError signals a terminal or suspend
// condition for the current pull. A non-nil message means "here is one more
// message, keep pulling if there's room"; the status returned alongside it
// is ignored (the pull functions in this module pass errchain.Ok).
type PullFunc func() (m *msg.Message, status errchain.Status, err error)

// SeekBeginningFunc and SeekNsFromOriginFunc let a concrete iterator support
// seeking; both may be nil, in which case the corresponding CanSeek* method
// reports false.
type SeekBeginningFunc func() error
type SeekNsFromOriginFunc func(ns int64) error

// Iterator is the concrete, reusable implementation of the message
// iterator protocol: it drives a PullFunc to fill batches, enforces the
// single-entry contract, and implements "flush what you have" batch
// atomicity (§4.2 contract 4 / the iterator's documented seek-and-resume
// behavior): once a batch has at least one message, the call returns Ok
// even if the underlying pull hit a terminal or error condition; that
// condition is buffered and surfaces on the next call against an empty
// batch.
type Iterator struct {
	pull PullFunc

	seekBeginning      SeekBeginningFunc
	seekNsFromOrigin   SeekNsFromOriginFunc

	state State

	entered atomic.Bool

	pendingStatus errchain.Status
	pendingErr    error
	hasPending    bool
}

// iterActor tags causes appended at this layer, which has no access to the
// owning component or port identity (iter cannot import component without
// creating an import cycle); the component package attaches a more specific
// ActorMessageIterator around iterator creation itself.
var iterActor = errchain.Actor{Kind: errchain.ActorUnknown, Module: "bt2/iter"}

// New creates an iterator around pull. seekBeginning/seekNsFromOrigin may
// be nil.
func New(pull PullFunc, seekBeginning SeekBeginningFunc, seekNsFromOrigin SeekNsFromOriginFunc) *Iterator {
	return &Iterator{pull: pull, seekBeginning: seekBeginning, seekNsFromOrigin: seekNsFromOrigin}
}

func (it *Iterator) State() State { return it.state }

// Next advances the iterator, filling a batch of up to batchCapacity
// messages. See the Iterator doc comment for the batch-atomicity contract.
func (it *Iterator) Next(batchCapacity int) (errchain.Status, []*msg.Message, error) {
	if batchCapacity <= 0 {
		panic(fmt.Errorf("bt2/iter: Next called with non-positive batch capacity %d", batchCapacity))
	}
	if !it.entered.CompareAndSwap(false, true) {
		panic(fmt.Errorf("bt2/iter: Next re-entered on the same iterator"))
	}
	defer it.entered.Store(false)

	switch it.state {
	case StateEnded:
		return errchain.End, nil, nil
	case StateFinalized:
		return errchain.Error, nil, errchain.Wrap(fmt.Errorf("called on a finalized iterator"), iterActor, "next")
	}

	if it.hasPending {
		status, err := it.pendingStatus, it.pendingErr
		it.hasPending = false
		if status == errchain.End {
			it.state = StateEnded
		}
		return status, nil, err
	}

	it.state = StateActive

	batch := make([]*msg.Message, 0, batchCapacity)
	for len(batch) < batchCapacity {
		m, status, err := it.pull()
		if m != nil {
			batch = append(batch, m)
			continue
		}

		// Terminal or suspend condition from the pull.
		if len(batch) > 0 {
			// Flush what we have; remember the condition for next time.
			it.pendingStatus = status
			it.pendingErr = err
			it.hasPending = true
			return errchain.Ok, batch, nil
		}

		if status == errchain.End {
			it.state = StateEnded
		}
		return status, nil, err
	}

	return errchain.Ok, batch, nil
}

// CanSeekBeginning reports whether SeekBeginning is supported.
func (it *Iterator) CanSeekBeginning() bool { return it.seekBeginning != nil }

// SeekBeginning resets the iterator to just before its first message.
func (it *Iterator) SeekBeginning() (errchain.Status, error) {
	if it.state == StateFinalized {
		return errchain.Error, errchain.Wrap(fmt.Errorf("called on a finalized iterator"), iterActor, "seek beginning")
	}
	if it.seekBeginning == nil {
		return errchain.UnsupportedFeature, nil
	}
	if err := it.seekBeginning(); err != nil {
		return errchain.Error, errchain.Wrap(err, iterActor, "seek beginning")
	}
	it.state = StateNotStarted
	it.hasPending = false
	return errchain.Ok, nil
}

// CanSeekNsFromOrigin reports whether a seek-ns-from-origin function was
// provided to New. ns is not consulted: the answer is the same for every
// instant.
func (it *Iterator) CanSeekNsFromOrigin(ns int64) bool {
	return it.seekNsFromOrigin != nil
}

// SeekNsFromOrigin resets the iterator to just before the first message at
// or after ns nanoseconds from the clock origin.
func (it *Iterator) SeekNsFromOrigin(ns int64) (errchain.Status, error) {
	if it.state == StateFinalized {
		return errchain.Error, errchain.Wrap(fmt.Errorf("called on a finalized iterator"), iterActor, "seek ns from origin")
	}
	if it.seekNsFromOrigin == nil {
		return errchain.UnsupportedFeature, nil
	}
	if err := it.seekNsFromOrigin(ns); err != nil {
		return errchain.Error, errchain.Wrap(err, iterActor, "seek ns from origin")
	}
	it.state = StateActive
	it.hasPending = false
	return errchain.Ok, nil
}

// Finalize transitions the iterator to StateFinalized from any state. It is
// idempotent.
func (it *Iterator) Finalize() {
	it.state = StateFinalized
	it.hasPending = false
}
