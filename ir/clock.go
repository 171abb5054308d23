package ir

import (
	"fmt"
	"math/big"

	"github.com/bt2go/bt2"
)

// ClockClass describes the clock that produced the clock snapshots attached
// to messages on streams of a given StreamClass.
type ClockClass struct {
	*bt2.SharedObject

	frequencyHz   uint64
	precision     uint64
	offsetSeconds int64
	offsetCycles  uint64
	originIsUnix  bool

	uuid        *[16]byte
	name        string
	description string
}

// ClockClassConfig groups the construction-time fields of a ClockClass.
type ClockClassConfig struct {
	FrequencyHz      uint64
	Precision        uint64
	OffsetSeconds    int64
	OffsetCycles     uint64
	OriginIsUnixEpoch bool
	UUID             *[16]byte
	Name             string
	Description      string
}

// NewClockClass creates a clock class. FrequencyHz must be nonzero; a zero
// frequency would make cycle-to-time conversion meaningless (division by
// zero), so it is rejected at construction rather than deferred to the first
// conversion call.
func NewClockClass(cfg ClockClassConfig) (*ClockClass, error) {
	if cfg.FrequencyHz == 0 {
		return nil, fmt.Errorf("bt2/ir: clock class frequency must be nonzero")
	}
	cc := &ClockClass{
		frequencyHz:   cfg.FrequencyHz,
		precision:     cfg.Precision,
		offsetSeconds: cfg.OffsetSeconds,
		offsetCycles:  cfg.OffsetCycles,
		originIsUnix:  cfg.OriginIsUnixEpoch,
		uuid:          cfg.UUID,
		name:          cfg.Name,
		description:   cfg.Description,
	}
	cc.SharedObject = bt2.NewSharedObject(nil, nil)
	return cc, nil
}

func (cc *ClockClass) FrequencyHz() uint64    { return cc.frequencyHz }
func (cc *ClockClass) Precision() uint64      { return cc.precision }
func (cc *ClockClass) OffsetSeconds() int64   { return cc.offsetSeconds }
func (cc *ClockClass) OffsetCycles() uint64   { return cc.offsetCycles }
func (cc *ClockClass) OriginIsUnixEpoch() bool { return cc.originIsUnix }
func (cc *ClockClass) UUID() (uuid [16]byte, ok bool) {
	if cc.uuid == nil {
		return uuid, false
	}
	return *cc.uuid, true
}
func (cc *ClockClass) Name() string        { return cc.name }
func (cc *ClockClass) Description() string { return cc.description }

// ErrClockOverflow is returned by CyclesToNsFromOrigin when the conversion
// cannot be represented as a signed 64-bit nanosecond count.
var ErrClockOverflow = fmt.Errorf("bt2/ir: clock cycle conversion overflows int64 nanoseconds")

// CyclesToNsFromOrigin converts a raw cycle count (as observed on the wire)
// into nanoseconds elapsed since the clock's origin, accounting for the
// configured cycle and second offsets. Internally the conversion is
// performed with unbounded-precision integer arithmetic (math/big; the
// division by the frequency truncates toward zero) so that the only
// possible failure is the final conversion to int64, which returns
// ErrClockOverflow, never an intermediate overflow.
func (cc *ClockClass) CyclesToNsFromOrigin(cycles uint64) (int64, error) {
	totalCycles := new(big.Int).SetUint64(cc.offsetCycles)
	totalCycles.Add(totalCycles, new(big.Int).SetUint64(cycles))

	ns := new(big.Int).Mul(totalCycles, big.NewInt(1_000_000_000))
	ns.Quo(ns, new(big.Int).SetUint64(cc.frequencyHz))

	offsetNs := new(big.Int).Mul(big.NewInt(cc.offsetSeconds), big.NewInt(1_000_000_000))
	ns.Add(ns, offsetNs)

	if !ns.IsInt64() {
		return 0, ErrClockOverflow
	}
	return ns.Int64(), nil
}
