package iter

import (
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/ir"
	"github.com/bt2go/bt2/msg"
)

func newTestStream(t *testing.T) *ir.Stream {
	t.Helper()
	tc := ir.NewTraceClass()
	sc := ir.NewStreamClass(ir.StreamClassConfig{ID: 0, SupportsPackets: false})
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatalf("AppendStreamClass: %v", err)
	}
	trace := ir.NewTrace(tc)
	stream, err := trace.CreateStream(sc, 0)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	return stream
}

func TestIteratorBatchAtomicity(t *testing.T) {
	stream := newTestStream(t)
	ec := ir.NewEventClass(0, "ec0")

	remaining := []*msg.Message{
		msg.NewEvent(stream, ec, bt2.NewNull(), nil),
		msg.NewEvent(stream, ec, bt2.NewNull(), nil),
	}

	it := New(func() (*msg.Message, errchain.Status, error) {
		if len(remaining) == 0 {
			return nil, errchain.End, nil
		}
		m := remaining[0]
		remaining = remaining[1:]
		return m, errchain.Ok, nil
	}, nil, nil)

	status, batch, err := it.Next(10)
	if err != nil || status != errchain.Ok || len(batch) != 2 {
		t.Fatalf("Next() = (%v, %d msgs, %v), want (Ok, 2, nil)", status, len(batch), err)
	}

	// The underlying pull already signaled End while the batch had
	// messages; that End must surface on the *next* call, against an empty
	// batch, not on this one.
	status, batch, err = it.Next(10)
	if err != nil || status != errchain.End || len(batch) != 0 {
		t.Fatalf("second Next() = (%v, %d msgs, %v), want (End, 0, nil)", status, len(batch), err)
	}
}

func TestIteratorAgainWithEmptyBatch(t *testing.T) {
	it := New(func() (*msg.Message, errchain.Status, error) {
		return nil, errchain.Again, nil
	}, nil, nil)

	status, batch, err := it.Next(4)
	if err != nil || status != errchain.Again || len(batch) != 0 {
		t.Fatalf("Next() = (%v, %d msgs, %v), want (Again, 0, nil)", status, len(batch), err)
	}
}

func TestIteratorReentrancyPanics(t *testing.T) {
	var it *Iterator
	it = New(func() (*msg.Message, errchain.Status, error) {
		it.Next(1) // re-entering the same iterator from inside its own pull
		return nil, errchain.End, nil
	}, nil, nil)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on iterator reentrancy")
		}
	}()
	it.Next(1)
}

func TestIteratorFinalizeFromAnyState(t *testing.T) {
	it := New(func() (*msg.Message, errchain.Status, error) {
		return nil, errchain.Again, nil
	}, nil, nil)

	it.Finalize()
	if it.State() != StateFinalized {
		t.Fatalf("State() = %v, want StateFinalized", it.State())
	}

	status, _, err := it.Next(1)
	if status != errchain.Error || err == nil {
		t.Fatalf("Next() on finalized iterator = (%v, %v), want (Error, non-nil)", status, err)
	}
}

func TestSeekBeginningUnsupported(t *testing.T) {
	it := New(func() (*msg.Message, errchain.Status, error) {
		return nil, errchain.End, nil
	}, nil, nil)

	if it.CanSeekBeginning() {
		t.Fatalf("CanSeekBeginning() = true, want false (no seek func provided)")
	}
	status, err := it.SeekBeginning()
	if status != errchain.UnsupportedFeature || err != nil {
		t.Fatalf("SeekBeginning() = (%v, %v), want (UnsupportedFeature, nil)", status, err)
	}
}
