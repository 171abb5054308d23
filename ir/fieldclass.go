package ir

import (
	"fmt"
	"sync/atomic"
)

// FieldClassKind is the closed set of FieldClass variants.
type FieldClassKind int

const (
	FieldClassUnsignedInt FieldClassKind = iota
	FieldClassSignedInt
	FieldClassUnsignedEnum
	FieldClassSignedEnum
	FieldClassReal
	FieldClassString
	FieldClassStructure
	FieldClassStaticArray
	FieldClassDynamicArray
	FieldClassVariant
)

func (k FieldClassKind) String() string {
	switch k {
	case FieldClassUnsignedInt:
		return "unsigned-integer"
	case FieldClassSignedInt:
		return "signed-integer"
	case FieldClassUnsignedEnum:
		return "unsigned-enumeration"
	case FieldClassSignedEnum:
		return "signed-enumeration"
	case FieldClassReal:
		return "real"
	case FieldClassString:
		return "string"
	case FieldClassStructure:
		return "structure"
	case FieldClassStaticArray:
		return "static-array"
	case FieldClassDynamicArray:
		return "dynamic-array"
	case FieldClassVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// IntegerDisplayBase is display metadata only; it has no bearing on the
// integer's encoded value and exists purely so downstream pretty-printers
// (e.g. a CTF-metadata dumper) can round-trip the preferred radix.
type IntegerDisplayBase int

const (
	DisplayBaseBinary      IntegerDisplayBase = 2
	DisplayBaseOctal       IntegerDisplayBase = 8
	DisplayBaseDecimal     IntegerDisplayBase = 10
	DisplayBaseHexadecimal IntegerDisplayBase = 16
)

func (b IntegerDisplayBase) valid() bool {
	switch b {
	case DisplayBaseBinary, DisplayBaseOctal, DisplayBaseDecimal, DisplayBaseHexadecimal:
		return true
	default:
		return false
	}
}

// UnsignedEnumRange is one inclusive [Lower, Upper] range mapped to a label.
type UnsignedEnumRange struct {
	Lower, Upper uint64
}

// SignedEnumRange is the signed counterpart of UnsignedEnumRange.
type SignedEnumRange struct {
	Lower, Upper int64
}

// UnsignedEnumMapping associates a label with the set of ranges it covers.
type UnsignedEnumMapping struct {
	Label  string
	Ranges []UnsignedEnumRange
}

// SignedEnumMapping is the signed counterpart of UnsignedEnumMapping.
type SignedEnumMapping struct {
	Label  string
	Ranges []SignedEnumRange
}

// StructureMember is one (name, field class) pair of a Structure, in
// declaration order.
type StructureMember struct {
	Name string
	FC   *FieldClass
}

// VariantOption is one (name, field class) pair of a Variant, in declaration
// order.
type VariantOption struct {
	Name string
	FC   *FieldClass
}

// FieldClass is the closed sum type describing the shape of a field: an
// integer, an enumeration, a real, a string, or a container of other field
// classes (structure, array, variant).
//
// A FieldClass used as a packet-context, event-common-context,
// event-specific-context or payload root is frozen, together with its whole
// subtree, when its owning trace class freezes on the first
// Trace.CreateStream; attaching it does not freeze it. Freeze here is a plain atomic
// flag rather than embedding *bt2.SharedObject: field classes aren't
// independently reference-counted, they live and die with their owning
// event/stream class, so only the freeze half of the shared-object contract
// applies.
type FieldClass struct {
	kind   FieldClassKind
	frozen atomic.Bool

	intWidth uint32
	intBase  IntegerDisplayBase

	unsignedEnumMappings []UnsignedEnumMapping
	signedEnumMappings   []SignedEnumMapping

	realIsSingle bool

	members []StructureMember

	arrayLength uint64
	elementFC   *FieldClass

	lengthPath *FieldPath

	options      []VariantOption
	selectorPath *FieldPath
}

func (fc *FieldClass) Kind() FieldClassKind { return fc.kind }

// IsFrozen reports whether Freeze has been called on fc or an ancestor.
func (fc *FieldClass) IsFrozen() bool { return fc.frozen.Load() }

// Freeze marks fc and its entire subtree as frozen. It is idempotent and
// safe to call on an already-frozen tree.
func (fc *FieldClass) Freeze() {
	if fc == nil || fc.frozen.Swap(true) {
		return
	}
	switch fc.kind {
	case FieldClassStructure:
		for _, m := range fc.members {
			m.FC.Freeze()
		}
	case FieldClassStaticArray, FieldClassDynamicArray:
		fc.elementFC.Freeze()
	case FieldClassVariant:
		for _, o := range fc.options {
			o.FC.Freeze()
		}
	}
}

func mutateGuard(fc *FieldClass) error {
	if fc.IsFrozen() {
		return fmt.Errorf("bt2/ir: field class is frozen")
	}
	return nil
}

// NewUnsignedIntFieldClass creates an unsigned integer field class of the
// given bit width (1..64) and display base.
func NewUnsignedIntFieldClass(width uint32, base IntegerDisplayBase) (*FieldClass, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("bt2/ir: unsigned integer width %d out of range (1..64)", width)
	}
	if !base.valid() {
		return nil, fmt.Errorf("bt2/ir: invalid integer display base %d", base)
	}
	return &FieldClass{kind: FieldClassUnsignedInt, intWidth: width, intBase: base}, nil
}

// NewSignedIntFieldClass creates a signed integer field class.
func NewSignedIntFieldClass(width uint32, base IntegerDisplayBase) (*FieldClass, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("bt2/ir: signed integer width %d out of range (1..64)", width)
	}
	if !base.valid() {
		return nil, fmt.Errorf("bt2/ir: invalid integer display base %d", base)
	}
	return &FieldClass{kind: FieldClassSignedInt, intWidth: width, intBase: base}, nil
}

// IntegerWidth returns the bit width of an integer (or integer-backed enum)
// field class.
func (fc *FieldClass) IntegerWidth() uint32 { return fc.intWidth }

// IntegerBase returns the display base of an integer (or integer-backed
// enum) field class.
func (fc *FieldClass) IntegerBase() IntegerDisplayBase { return fc.intBase }

// NewUnsignedEnumFieldClass creates an unsigned enumeration field class.
func NewUnsignedEnumFieldClass(width uint32, base IntegerDisplayBase, mappings []UnsignedEnumMapping) (*FieldClass, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("bt2/ir: unsigned enum width %d out of range (1..64)", width)
	}
	return &FieldClass{
		kind:                 FieldClassUnsignedEnum,
		intWidth:             width,
		intBase:              base,
		unsignedEnumMappings: append([]UnsignedEnumMapping(nil), mappings...),
	}, nil
}

// NewSignedEnumFieldClass creates a signed enumeration field class.
func NewSignedEnumFieldClass(width uint32, base IntegerDisplayBase, mappings []SignedEnumMapping) (*FieldClass, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("bt2/ir: signed enum width %d out of range (1..64)", width)
	}
	return &FieldClass{
		kind:               FieldClassSignedEnum,
		intWidth:           width,
		intBase:            base,
		signedEnumMappings: append([]SignedEnumMapping(nil), mappings...),
	}, nil
}

func (fc *FieldClass) UnsignedEnumMappings() []UnsignedEnumMapping {
	return append([]UnsignedEnumMapping(nil), fc.unsignedEnumMappings...)
}

func (fc *FieldClass) SignedEnumMappings() []SignedEnumMapping {
	return append([]SignedEnumMapping(nil), fc.signedEnumMappings...)
}

// LabelsForUnsignedValue returns every enum label whose ranges cover v.
// A value may legitimately match more than one label.
func (fc *FieldClass) LabelsForUnsignedValue(v uint64) []string {
	var labels []string
	for _, m := range fc.unsignedEnumMappings {
		for _, r := range m.Ranges {
			if v >= r.Lower && v <= r.Upper {
				labels = append(labels, m.Label)
				break
			}
		}
	}
	return labels
}

// LabelsForSignedValue returns every enum label whose ranges cover v.
func (fc *FieldClass) LabelsForSignedValue(v int64) []string {
	var labels []string
	for _, m := range fc.signedEnumMappings {
		for _, r := range m.Ranges {
			if v >= r.Lower && v <= r.Upper {
				labels = append(labels, m.Label)
				break
			}
		}
	}
	return labels
}

// NewRealFieldClass creates a floating point field class.
func NewRealFieldClass(single bool) *FieldClass {
	return &FieldClass{kind: FieldClassReal, realIsSingle: single}
}

func (fc *FieldClass) RealIsSingle() bool { return fc.realIsSingle }

// NewStringFieldClass creates a string field class.
func NewStringFieldClass() *FieldClass {
	return &FieldClass{kind: FieldClassString}
}

// NewStructureFieldClass creates a structure field class with the given
// ordered members.
func NewStructureFieldClass(members ...StructureMember) *FieldClass {
	return &FieldClass{kind: FieldClassStructure, members: append([]StructureMember(nil), members...)}
}

func (fc *FieldClass) Members() []StructureMember {
	return append([]StructureMember(nil), fc.members...)
}

// AppendMember appends a member to a structure field class. It fails if fc
// is frozen or not a structure.
func (fc *FieldClass) AppendMember(name string, member *FieldClass) error {
	if fc.kind != FieldClassStructure {
		return fmt.Errorf("bt2/ir: AppendMember on non-structure field class %s", fc.kind)
	}
	if err := mutateGuard(fc); err != nil {
		return err
	}
	fc.members = append(fc.members, StructureMember{Name: name, FC: member})
	return nil
}

// NewStaticArrayFieldClass creates a fixed-length array field class.
func NewStaticArrayFieldClass(length uint64, element *FieldClass) *FieldClass {
	return &FieldClass{kind: FieldClassStaticArray, arrayLength: length, elementFC: element}
}

func (fc *FieldClass) ArrayLength() uint64      { return fc.arrayLength }
func (fc *FieldClass) ElementFieldClass() *FieldClass { return fc.elementFC }

// NewDynamicArrayFieldClass creates a variable-length array field class.
// lengthPath, if non-nil, must resolve to an unsigned integer field
// strictly preceding the array within the same event's combined field
// tree; checked by TraceClass.freezeAll (on the owning trace's first
// Trace.CreateStream call), not here, since resolution needs all four of
// an event's scope roots assembled, which isn't guaranteed until then.
func NewDynamicArrayFieldClass(element *FieldClass, lengthPath *FieldPath) *FieldClass {
	return &FieldClass{kind: FieldClassDynamicArray, elementFC: element, lengthPath: lengthPath}
}

func (fc *FieldClass) LengthFieldPath() *FieldPath { return fc.lengthPath }

// NewVariantFieldClass creates a variant field class over the given ordered
// options. selectorPath, if non-nil, must resolve to an enum field whose
// mapping labels cover the option names; checked by TraceClass.freezeAll,
// for the same reason as NewDynamicArrayFieldClass's lengthPath.
func NewVariantFieldClass(selectorPath *FieldPath, options ...VariantOption) *FieldClass {
	return &FieldClass{kind: FieldClassVariant, options: append([]VariantOption(nil), options...), selectorPath: selectorPath}
}

func (fc *FieldClass) Options() []VariantOption {
	return append([]VariantOption(nil), fc.options...)
}

func (fc *FieldClass) SelectorFieldPath() *FieldPath { return fc.selectorPath }
