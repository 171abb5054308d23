package ir

import "testing"

func u8(t *testing.T) *FieldClass {
	t.Helper()
	fc, err := NewUnsignedIntFieldClass(8, DisplayBaseDecimal)
	if err != nil {
		t.Fatalf("NewUnsignedIntFieldClass: %v", err)
	}
	return fc
}

func TestValidateFieldPathsAcceptsValidDynamicArrayLength(t *testing.T) {
	len8 := u8(t)
	arr := NewDynamicArrayFieldClass(u8(t), ptrFieldPath(NewFieldPath(ScopeEventPayload, FieldPathItem{Kind: FieldPathIndex, Index: 0})))
	payload := NewStructureFieldClass(
		StructureMember{Name: "len", FC: len8},
		StructureMember{Name: "data", FC: arr},
	)

	tc, sc, ec := newValidationFixture(t, nil, payload)

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	_ = ec
}

func TestValidateFieldPathsRejectsNonPrecedingLength(t *testing.T) {
	arr := NewDynamicArrayFieldClass(u8(t), ptrFieldPath(NewFieldPath(ScopeEventPayload, FieldPathItem{Kind: FieldPathIndex, Index: 1})))
	payload := NewStructureFieldClass(
		StructureMember{Name: "data", FC: arr},
		StructureMember{Name: "len", FC: u8(t)},
	)

	tc, sc, _ := newValidationFixture(t, nil, payload)

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err == nil {
		t.Fatalf("CreateStream succeeded with length path pointing at a field after the array")
	}
}

func TestValidateFieldPathsRejectsNonIntegerLength(t *testing.T) {
	arr := NewDynamicArrayFieldClass(u8(t), ptrFieldPath(NewFieldPath(ScopeEventPayload, FieldPathItem{Kind: FieldPathIndex, Index: 0})))
	payload := NewStructureFieldClass(
		StructureMember{Name: "not_a_length", FC: NewStringFieldClass()},
		StructureMember{Name: "data", FC: arr},
	)

	tc, sc, _ := newValidationFixture(t, nil, payload)

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err == nil {
		t.Fatalf("CreateStream succeeded with length path resolving to a string field")
	}
}

func TestValidateFieldPathsAcceptsValidVariantSelector(t *testing.T) {
	sel, err := NewUnsignedEnumFieldClass(8, DisplayBaseDecimal, []UnsignedEnumMapping{
		{Label: "a", Ranges: []UnsignedEnumRange{{Lower: 0, Upper: 0}}},
		{Label: "b", Ranges: []UnsignedEnumRange{{Lower: 1, Upper: 1}}},
	})
	if err != nil {
		t.Fatalf("NewUnsignedEnumFieldClass: %v", err)
	}
	variant := NewVariantFieldClass(
		ptrFieldPath(NewFieldPath(ScopeEventPayload, FieldPathItem{Kind: FieldPathIndex, Index: 0})),
		VariantOption{Name: "a", FC: u8(t)},
		VariantOption{Name: "b", FC: u8(t)},
	)
	payload := NewStructureFieldClass(
		StructureMember{Name: "sel", FC: sel},
		StructureMember{Name: "v", FC: variant},
	)

	tc, sc, _ := newValidationFixture(t, nil, payload)

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
}

func TestValidateFieldPathsRejectsUncoveredVariantOption(t *testing.T) {
	sel, err := NewUnsignedEnumFieldClass(8, DisplayBaseDecimal, []UnsignedEnumMapping{
		{Label: "a", Ranges: []UnsignedEnumRange{{Lower: 0, Upper: 0}}},
	})
	if err != nil {
		t.Fatalf("NewUnsignedEnumFieldClass: %v", err)
	}
	variant := NewVariantFieldClass(
		ptrFieldPath(NewFieldPath(ScopeEventPayload, FieldPathItem{Kind: FieldPathIndex, Index: 0})),
		VariantOption{Name: "a", FC: u8(t)},
		VariantOption{Name: "b", FC: u8(t)}, // "b" has no matching mapping label
	)
	payload := NewStructureFieldClass(
		StructureMember{Name: "sel", FC: sel},
		StructureMember{Name: "v", FC: variant},
	)

	tc, sc, _ := newValidationFixture(t, nil, payload)

	trace := NewTrace(tc)
	if _, err := trace.CreateStream(sc, 0); err == nil {
		t.Fatalf("CreateStream succeeded with an option the selector enum doesn't cover")
	}
}

// newValidationFixture wires a single-event-class stream/trace class with
// the given payload field class (packetContext left nil unless provided),
// without creating a stream.
func newValidationFixture(t *testing.T, packetContext, payload *FieldClass) (*TraceClass, *StreamClass, *EventClass) {
	t.Helper()
	tc := NewTraceClass()
	sc := NewStreamClass(StreamClassConfig{ID: 0, Name: "sc0"})
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatalf("AppendStreamClass: %v", err)
	}
	if packetContext != nil {
		if err := sc.SetPacketContextFieldClass(packetContext); err != nil {
			t.Fatalf("SetPacketContextFieldClass: %v", err)
		}
	}

	ec := NewEventClass(0, "ec0")
	if err := ec.SetPayloadFieldClass(payload); err != nil {
		t.Fatalf("SetPayloadFieldClass: %v", err)
	}
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatalf("AppendEventClass: %v", err)
	}
	return tc, sc, ec
}

func ptrFieldPath(fp FieldPath) *FieldPath { return &fp }
