// Package trimmer implements the utils.trimmer filter: it drops Event
// messages whose default clock snapshot falls outside a configured
// [begin, end] nanoseconds-from-origin range. Neither the graph runtime nor
// the CLI inserts it automatically (there is no stream-intersection mode);
// a graph contains a trimmer only where one is added explicitly.
package trimmer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/internal/errchain"
	"github.com/bt2go/bt2/iter"
	"github.com/bt2go/bt2/msg"
)

// ClassName is the component class name registered for this filter.
const ClassName = "trimmer"

type state struct {
	beginNs int64
	endNs   int64
}

// NewClass creates the utils.trimmer filter component class. Params must
// contain "begin" and "end" string values in the timestamp format from
// spec.md §6 (optional '-', integer seconds, '.', nine decimal digits of
// nanoseconds).
func NewClass() (*component.Class, error) {
	return component.NewClass(component.KindFilter, ClassName,
		"drop events outside a [begin, end] nanoseconds-from-origin range",
		"utils.trimmer takes params {begin, end}, each a timestamp string "+
			"'[-]seconds.nanoseconds', and drops Event messages whose default "+
			"clock snapshot falls outside that closed range. Every other message "+
			"kind passes through unchanged, preserving stream framing.",
		component.Methods{
			Init:                initFunc,
			MessageIteratorInit: messageIteratorInit,
		},
	)
}

func initFunc(self *component.Component, params bt2.Value) (any, error) {
	beginV, ok := params.MapGet("begin")
	if !ok {
		return nil, fmt.Errorf("utils.trimmer: missing required param \"begin\"")
	}
	endV, ok := params.MapGet("end")
	if !ok {
		return nil, fmt.Errorf("utils.trimmer: missing required param \"end\"")
	}
	beginStr, ok := beginV.AsString()
	if !ok {
		return nil, fmt.Errorf("utils.trimmer: param \"begin\" must be a string")
	}
	endStr, ok := endV.AsString()
	if !ok {
		return nil, fmt.Errorf("utils.trimmer: param \"end\" must be a string")
	}
	beginNs, err := ParseTimestampNs(beginStr)
	if err != nil {
		return nil, fmt.Errorf("utils.trimmer: param \"begin\": %w", err)
	}
	endNs, err := ParseTimestampNs(endStr)
	if err != nil {
		return nil, fmt.Errorf("utils.trimmer: param \"end\": %w", err)
	}
	if beginNs > endNs {
		return nil, fmt.Errorf("utils.trimmer: begin (%d) is after end (%d)", beginNs, endNs)
	}

	if _, err := self.AddInputPort("in", nil); err != nil {
		return nil, err
	}
	if _, err := self.AddOutputPort("out", nil); err != nil {
		return nil, err
	}
	return &state{beginNs: beginNs, endNs: endNs}, nil
}

func messageIteratorInit(self *component.Component, outputPort *component.Port) (*iter.Iterator, error) {
	st := self.Opaque().(*state)
	in, ok := self.InputPortByName("in")
	if !ok {
		return nil, fmt.Errorf("utils.trimmer: %q has no input port", self.Name())
	}
	upstream, err := component.CreateMessageIterator(in)
	if err != nil {
		return nil, err
	}

	// pending buffers messages already pulled from upstream (via Next's
	// batching) that haven't been handed out one at a time yet.
	var pending []*msg.Message
	var pendingIdx int

	pull := func() (*msg.Message, errchain.Status, error) {
		for {
			if pendingIdx < len(pending) {
				m := pending[pendingIdx]
				pendingIdx++
				if st.keep(m) {
					return m, errchain.Ok, nil
				}
				continue
			}
			status, batch, err := upstream.Next(1)
			if status != errchain.Ok {
				return nil, status, err
			}
			pending = batch
			pendingIdx = 0
		}
	}

	return iter.New(pull, nil, nil), nil
}

// keep reports whether m should be forwarded. Only Event messages carrying
// a Known default clock snapshot are subject to the range check; every
// other kind (including Events with no/Unknown clock) passes through, since
// dropping structural framing messages would violate the monotonic stream-
// framing invariant (spec.md §4.2 contract 1).
func (st *state) keep(m *msg.Message) bool {
	if m.Kind() != msg.KindEvent {
		return true
	}
	snap := m.EventClockSnapshot()
	if snap == nil || snap.State != msg.ClockSnapshotKnown {
		return true
	}
	return snap.NsFromOrigin >= st.beginNs && snap.NsFromOrigin <= st.endNs
}

// ParseTimestampNs parses the "[-]seconds.nanoseconds" format from
// spec.md §6 into nanoseconds from origin.
func ParseTimestampNs(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	secStr, nsStr, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q: missing '.'", s)
	}
	if len(nsStr) != 9 {
		return 0, fmt.Errorf("invalid timestamp %q: fractional part must be exactly 9 digits", s)
	}
	sec, err := strconv.ParseInt(secStr, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	ns, err := strconv.ParseInt(nsStr, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	total := sec*1_000_000_000 + ns
	if neg {
		total = -total
	}
	return total, nil
}

// FormatTimestampNs renders ns in the "[-]seconds.nanoseconds" format from
// spec.md §6, the inverse of ParseTimestampNs.
func FormatTimestampNs(ns int64) string {
	neg := ns < 0
	if neg {
		ns = -ns
	}
	sec := ns / 1_000_000_000
	frac := ns % 1_000_000_000
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%09d", sign, sec, frac)
}
