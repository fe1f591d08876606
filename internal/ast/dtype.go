package ast

// DType describes the declared type of a signal. Width is the packed bit
// width; unpacked dimensions do not contribute to it.
type DType interface {
	Node
	Width() int
	dtypeNode()
}

// BasicDType is a scalar or a packed bit range [Hi:Lo].
type BasicDType struct {
	Fl     *FileLine
	Ranged bool
	Hi     int
	Lo     int
}

func (d *BasicDType) Loc() *FileLine { return d.Fl }
func (d *BasicDType) dtypeNode()     {}

// Width returns the number of bits in the range, or 1 for plain scalars.
func (d *BasicDType) Width() int {
	if d.Ranged {
		return d.Hi - d.Lo + 1
	}
	return 1
}

// UInt32 returns the type used for synthesized counter temporaries.
func UInt32(fl *FileLine) *BasicDType {
	return &BasicDType{Fl: fl, Ranged: true, Hi: 31, Lo: 0}
}

// UnpackArrayDType is an unpacked array [Lo:Hi] of Elem; each element has
// its own storage, so the packed width is the element's width.
type UnpackArrayDType struct {
	Fl   *FileLine
	Elem DType
	Lo   int
	Hi   int
}

func (d *UnpackArrayDType) Loc() *FileLine { return d.Fl }
func (d *UnpackArrayDType) dtypeNode()     {}

// Width returns the packed width of one element.
func (d *UnpackArrayDType) Width() int { return SkipRef(d.Elem).Width() }

// Elements returns the number of elements in this dimension.
func (d *UnpackArrayDType) Elements() int { return d.Hi - d.Lo + 1 }

// PackArrayDType is a packed array [Lo:Hi] of Elem, laid out contiguously.
type PackArrayDType struct {
	Fl   *FileLine
	Elem DType
	Lo   int
	Hi   int
}

func (d *PackArrayDType) Loc() *FileLine { return d.Fl }
func (d *PackArrayDType) dtypeNode()     {}

// Width returns element width times the element count.
func (d *PackArrayDType) Width() int { return SkipRef(d.Elem).Width() * d.Elements() }

// Elements returns the number of elements in this dimension.
func (d *PackArrayDType) Elements() int { return d.Hi - d.Lo + 1 }

// Member is one named field of a struct or union type. For packed structs
// LSB is the field's least-significant-bit offset within the whole vector.
type Member struct {
	Fl    *FileLine
	Name  string
	DType DType
	LSB   int
}

func (m *Member) Loc() *FileLine { return m.Fl }

// StructDType is a struct type; packed structs concatenate their members
// into one vector, declaration order running MSB down to LSB.
type StructDType struct {
	Fl      *FileLine
	Packed  bool
	Members []*Member
}

// NewStructDType builds a struct type and, for packed structs, assigns
// member LSB offsets (the last declared member sits at bit zero).
func NewStructDType(fl *FileLine, packed bool, members ...*Member) *StructDType {
	d := &StructDType{Fl: fl, Packed: packed, Members: members}
	if packed {
		lsb := 0
		for i := len(members) - 1; i >= 0; i-- {
			members[i].LSB = lsb
			lsb += SkipRef(members[i].DType).Width()
		}
	}
	return d
}

func (d *StructDType) Loc() *FileLine { return d.Fl }
func (d *StructDType) dtypeNode()     {}

// Width returns the summed width of all members.
func (d *StructDType) Width() int {
	total := 0
	for _, m := range d.Members {
		total += SkipRef(m.DType).Width()
	}
	return total
}

// UnionDType is a union type; all members alias the same storage.
type UnionDType struct {
	Fl      *FileLine
	Packed  bool
	Members []*Member
}

func (d *UnionDType) Loc() *FileLine { return d.Fl }
func (d *UnionDType) dtypeNode()     {}

// Width returns the widest member's width.
func (d *UnionDType) Width() int {
	widest := 0
	for _, m := range d.Members {
		if w := SkipRef(m.DType).Width(); w > widest {
			widest = w
		}
	}
	return widest
}

// RefDType is a reference to a named type (typedef).
type RefDType struct {
	Fl   *FileLine
	Name string
	To   DType
}

func (d *RefDType) Loc() *FileLine { return d.Fl }
func (d *RefDType) dtypeNode()     {}

// Width resolves through the reference.
func (d *RefDType) Width() int { return SkipRef(d).Width() }

// SkipRef resolves typedef references to the underlying type.
func SkipRef(d DType) DType {
	for {
		ref, ok := d.(*RefDType)
		if !ok {
			return d
		}
		d = ref.To
	}
}

// UnpackedElements returns the product of all unpacked-array extents wrapped
// around the packed core of d, or 1 when d has no unpacked dimensions.
func UnpackedElements(d DType) int {
	n := 1
	for {
		u, ok := SkipRef(d).(*UnpackArrayDType)
		if !ok {
			return n
		}
		n *= u.Elements()
		d = u.Elem
	}
}
