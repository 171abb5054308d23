package ir

import "fmt"

// fieldOrdinal assigns each field class reachable from a single event's
// four scope roots a pre-order position, in the order those scopes are
// decoded: packet context, event common context, event specific context,
// payload. A DynamicArray length binding or Variant selector binding must
// resolve to a field whose ordinal is strictly less than the array's own
// ordinal, i.e. a field that is actually decoded before it.
type fieldOrdinal struct {
	index map[*FieldClass]int
}

var scopeOrder = [...]Scope{ScopePacketContext, ScopeEventCommonContext, ScopeEventSpecificContext, ScopeEventPayload}

func buildFieldOrdinal(roots map[Scope]*FieldClass) *fieldOrdinal {
	fo := &fieldOrdinal{index: map[*FieldClass]int{}}
	next := 0
	for _, scope := range scopeOrder {
		next = fo.walk(roots[scope], next)
	}
	return fo
}

func (fo *fieldOrdinal) walk(fc *FieldClass, next int) int {
	if fc == nil {
		return next
	}
	fo.index[fc] = next
	next++
	switch fc.kind {
	case FieldClassStructure:
		for _, m := range fc.members {
			next = fo.walk(m.FC, next)
		}
	case FieldClassStaticArray, FieldClassDynamicArray:
		next = fo.walk(fc.elementFC, next)
	case FieldClassVariant:
		for _, o := range fc.options {
			next = fo.walk(o.FC, next)
		}
	}
	return next
}

// resolveFieldPath walks path against the field tree rooted at
// roots[path.Scope()], following each item as a structure/variant member
// index or a descent into an array's element field class.
func resolveFieldPath(roots map[Scope]*FieldClass, path *FieldPath) (*FieldClass, error) {
	cur := roots[path.Scope()]
	if cur == nil {
		return nil, fmt.Errorf("scope %s has no field class", path.Scope())
	}
	for _, item := range path.Items() {
		switch item.Kind {
		case FieldPathIndex:
			switch cur.kind {
			case FieldClassStructure:
				if item.Index >= uint64(len(cur.members)) {
					return nil, fmt.Errorf("index %d out of range in structure with %d members", item.Index, len(cur.members))
				}
				cur = cur.members[item.Index].FC
			case FieldClassVariant:
				if item.Index >= uint64(len(cur.options)) {
					return nil, fmt.Errorf("index %d out of range in variant with %d options", item.Index, len(cur.options))
				}
				cur = cur.options[item.Index].FC
			default:
				return nil, fmt.Errorf("index step on non-structure, non-variant field class %s", cur.kind)
			}
		case FieldPathCurrentArrayElement:
			if cur.kind != FieldClassStaticArray && cur.kind != FieldClassDynamicArray {
				return nil, fmt.Errorf("current-array-element step on non-array field class %s", cur.kind)
			}
			cur = cur.elementFC
		}
	}
	return cur, nil
}

// validateFieldPaths resolves every DynamicArray length path and Variant
// selector path reachable from sc's and ec's combined field trees, and
// rejects a binding that doesn't satisfy §3.4's invariants. Called for
// every event class each time TraceClass.freezeAll runs (on every
// Trace.CreateStream); the first such call is the first point at which
// all four of an event's scope roots are guaranteed final.
func validateFieldPaths(sc *StreamClass, ec *EventClass) error {
	roots := map[Scope]*FieldClass{
		ScopePacketContext:        sc.packetContextFC,
		ScopeEventCommonContext:   sc.eventCommonContextFC,
		ScopeEventSpecificContext: ec.specificContextFC,
		ScopeEventPayload:         ec.payloadFC,
	}
	ordinal := buildFieldOrdinal(roots)
	for _, scope := range scopeOrder {
		if err := validateFieldClass(roots[scope], roots, ordinal); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldClass(fc *FieldClass, roots map[Scope]*FieldClass, ordinal *fieldOrdinal) error {
	if fc == nil {
		return nil
	}
	switch fc.kind {
	case FieldClassStructure:
		for _, m := range fc.members {
			if err := validateFieldClass(m.FC, roots, ordinal); err != nil {
				return fmt.Errorf("member %q: %w", m.Name, err)
			}
		}

	case FieldClassStaticArray:
		return validateFieldClass(fc.elementFC, roots, ordinal)

	case FieldClassDynamicArray:
		if fc.lengthPath != nil {
			target, err := resolveFieldPath(roots, fc.lengthPath)
			if err != nil {
				return fmt.Errorf("dynamic array length path: %w", err)
			}
			if target.kind != FieldClassUnsignedInt {
				return fmt.Errorf("dynamic array length path must resolve to an unsigned integer field, got %s", target.kind)
			}
			arrayOrd, arrayKnown := ordinal.index[fc]
			targetOrd, targetKnown := ordinal.index[target]
			if !arrayKnown || !targetKnown || targetOrd >= arrayOrd {
				return fmt.Errorf("dynamic array length path must resolve to a field strictly preceding the array")
			}
		}
		return validateFieldClass(fc.elementFC, roots, ordinal)

	case FieldClassVariant:
		if fc.selectorPath != nil {
			target, err := resolveFieldPath(roots, fc.selectorPath)
			if err != nil {
				return fmt.Errorf("variant selector path: %w", err)
			}
			labels := map[string]bool{}
			switch target.kind {
			case FieldClassUnsignedEnum:
				for _, m := range target.unsignedEnumMappings {
					labels[m.Label] = true
				}
			case FieldClassSignedEnum:
				for _, m := range target.signedEnumMappings {
					labels[m.Label] = true
				}
			default:
				return fmt.Errorf("variant selector path must resolve to an enumeration field, got %s", target.kind)
			}
			for _, opt := range fc.options {
				if !labels[opt.Name] {
					return fmt.Errorf("variant selector enumeration has no mapping labeled %q", opt.Name)
				}
			}
		}
		for _, o := range fc.options {
			if err := validateFieldClass(o.FC, roots, ordinal); err != nil {
				return fmt.Errorf("option %q: %w", o.Name, err)
			}
		}
	}
	return nil
}
