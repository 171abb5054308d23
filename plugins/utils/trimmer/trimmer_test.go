package trimmer

import (
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/ir"
	"github.com/bt2go/bt2/iter"
	"github.com/bt2go/bt2/msg"
)

func TestParseFormatTimestampNsRoundTrip(t *testing.T) {
	cases := []struct {
		s  string
		ns int64
	}{
		{"0.000000000", 0},
		{"1.000000000", 1_000_000_000},
		{"2.500000000", 2_500_000_000},
		{"-1.000000000", -1_000_000_000},
	}
	for _, c := range cases {
		ns, err := ParseTimestampNs(c.s)
		if err != nil {
			t.Fatalf("ParseTimestampNs(%q): %v", c.s, err)
		}
		if ns != c.ns {
			t.Fatalf("ParseTimestampNs(%q) = %d, want %d", c.s, ns, c.ns)
		}
		if got := FormatTimestampNs(c.ns); got != c.s {
			t.Fatalf("FormatTimestampNs(%d) = %q, want %q", c.ns, got, c.s)
		}
	}
}

func TestParseTimestampNsRejectsMalformed(t *testing.T) {
	for _, s := range []string{"1", "1.5", "1.0000000000", "abc.000000000"} {
		if _, err := ParseTimestampNs(s); err == nil {
			t.Fatalf("ParseTimestampNs(%q) succeeded, want error", s)
		}
	}
}

// newClockedStream builds a stream whose default clock class is a 1Hz clock
// with no offset, so cycle counts equal seconds-from-origin directly.
func newClockedStream(t *testing.T) (*ir.Stream, *ir.EventClass) {
	t.Helper()
	cc, err := ir.NewClockClass(ir.ClockClassConfig{FrequencyHz: 1})
	if err != nil {
		t.Fatalf("NewClockClass: %v", err)
	}
	tc := ir.NewTraceClass()
	sc := ir.NewStreamClass(ir.StreamClassConfig{ID: 0, DefaultClockClass: cc})
	ec := ir.NewEventClass(0, "ev")
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatalf("AppendEventClass: %v", err)
	}
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatalf("AppendStreamClass: %v", err)
	}
	trace := ir.NewTrace(tc)
	stream, err := trace.CreateStream(sc, 0)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	return stream, ec
}

func eventAt(t *testing.T, stream *ir.Stream, ec *ir.EventClass, cc *ir.ClockClass, seconds uint64) *msg.Message {
	t.Helper()
	snap, err := msg.KnownClockSnapshot(cc, seconds)
	if err != nil {
		t.Fatalf("KnownClockSnapshot(%d): %v", seconds, err)
	}
	return msg.NewEvent(stream, ec, bt2.NewNull(), &snap)
}

// scenario 3: stream intersection. A trimmer configured with
// begin="1.000000000", end="2.000000000" only forwards the event at 1.5s out
// of events at 0.5s, 1.5s, 2.5s (approximated here with whole-second clock
// values since the test clock is 1Hz: events at 0s, 1s, 2s and 3s, of which
// only the two on the range boundaries, 1s and 2s, are kept).
func TestTrimmerFiltersOutsideRange(t *testing.T) {
	stream, ec := newClockedStream(t)
	cc := stream.Class().DefaultClockClass()

	class, err := NewClass()
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}

	params := bt2.NewMap()
	params.MapSet("begin", bt2.NewString("1.000000000"))
	params.MapSet("end", bt2.NewString("2.000000000"))

	self, err := component.New(class, "trimmer0", params)
	if err != nil {
		t.Fatalf("component.New: %v", err)
	}

	in, ok := self.InputPortByName("in")
	if !ok {
		t.Fatalf("no input port")
	}

	events := []*msg.Message{
		eventAt(t, stream, ec, cc, 0), // before range
		eventAt(t, stream, ec, cc, 1), // at begin
		eventAt(t, stream, ec, cc, 2), // at end
		eventAt(t, stream, ec, cc, 3), // after range
	}
	idx := 0
	upstreamClass, err := component.NewClass(component.KindSource, "upstream", "", "", component.Methods{
		Init: func(self *component.Component, params bt2.Value) (any, error) {
			_, err := self.AddOutputPort("out", nil)
			return nil, err
		},
		MessageIteratorInit: func(self *component.Component, out *component.Port) (*iter.Iterator, error) {
			pull := func() (*msg.Message, errchain.Status, error) {
				if idx >= len(events) {
					return nil, errchain.End, nil
				}
				m := events[idx]
				idx++
				return m, errchain.Ok, nil
			}
			return iter.New(pull, nil, nil), nil
		},
	})
	if err != nil {
		t.Fatalf("NewClass(upstream): %v", err)
	}
	upstream, err := component.New(upstreamClass, "upstream0", bt2.NewNull())
	if err != nil {
		t.Fatalf("component.New(upstream): %v", err)
	}
	upOut, _ := upstream.OutputPortByName("out")
	if _, err := component.Connect(upOut, in); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	out, ok := self.OutputPortByName("out")
	if !ok {
		t.Fatalf("no output port")
	}
	it, err := class.Methods().MessageIteratorInit(self, out)
	if err != nil {
		t.Fatalf("MessageIteratorInit: %v", err)
	}

	var keptSeconds []uint64
	for {
		status, batch, err := it.Next(4)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		for _, m := range batch {
			snap := m.EventClockSnapshot()
			keptSeconds = append(keptSeconds, snap.Cycles)
		}
		if status == errchain.End {
			break
		}
	}

	want := []uint64{1, 2}
	if len(keptSeconds) != len(want) {
		t.Fatalf("kept %v, want %v", keptSeconds, want)
	}
	for i := range want {
		if keptSeconds[i] != want[i] {
			t.Fatalf("kept[%d] = %d, want %d", i, keptSeconds[i], want[i])
		}
	}
}
