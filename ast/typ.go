package ast

// Typ is a resolved type. Two Typ values denote the same type iff Equal
// reports true; pointer and function pointer types are built on demand and
// never shared.
type Typ interface {
	isTyp()
	Size() int
	String() string
}

type Void struct{}

type Char struct{}

type Bool struct{}

type Integer struct {
	Bytes  int
	Signed bool
}

// UntypedInteger is the type of an integer literal that has not been
// unified with a sized integer yet. Unsigned marks literals above the
// int64 range, their value holds the uint64 bits.
type UntypedInteger struct {
	Unsigned bool
}

type FloatingPoint struct {
	Bytes int
}

type Pointer struct {
	To Typ
}

type FunctionPointer struct {
	Returns   Typ
	Arguments []Typ
}

type Member struct {
	Name   string
	Type   Typ
	Offset int
}

type StructType struct {
	Name    string
	Members []Member
	Methods []string
}

type EnumMember struct {
	Name  string
	Value int64
}

type EnumType struct {
	Name       string
	Underlying Integer
	Members    []EnumMember
}

type SizedArray struct {
	Element Typ
	Count   int
}

func (Void) Size() int            { return 0 }
func (Char) Size() int            { return 1 }
func (Bool) Size() int            { return 1 }
func (i Integer) Size() int       { return i.Bytes }
func (UntypedInteger) Size() int  { return 8 }
func (f FloatingPoint) Size() int { return f.Bytes }
func (Pointer) Size() int         { return 8 }
func (FunctionPointer) Size() int { return 8 }
func (e *EnumType) Size() int     { return e.Underlying.Bytes }
func (a SizedArray) Size() int    { return a.Element.Size() * a.Count }

func (s *StructType) Size() (n int) {
	for _, m := range s.Members {
		n += m.Type.Size()
	}
	return
}

// Layout assigns contiguous member offsets in declaration order.
func (s *StructType) Layout() {
	offset := 0
	for i := range s.Members {
		s.Members[i].Offset = offset
		offset += s.Members[i].Type.Size()
	}
}

func (s *StructType) Member(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (e *EnumType) Member(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

func Equal(a, b Typ) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Void, Char, Bool:
		return a == b
	case UntypedInteger:
		_, ok := b.(UntypedInteger)
		return ok
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case FloatingPoint:
		y, ok := b.(FloatingPoint)
		return ok && x == y
	case Pointer:
		y, ok := b.(Pointer)
		return ok && Equal(x.To, y.To)
	case FunctionPointer:
		y, ok := b.(FunctionPointer)
		if !ok || !Equal(x.Returns, y.Returns) || len(x.Arguments) != len(y.Arguments) {
			return false
		}
		for i := range x.Arguments {
			if !Equal(x.Arguments[i], y.Arguments[i]) {
				return false
			}
		}
		return true
	case *StructType:
		y, ok := b.(*StructType)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.Name != y.Name || len(x.Members) != len(y.Members) {
			return false
		}
		for i := range x.Members {
			if x.Members[i].Name != y.Members[i].Name {
				return false
			}
		}
		return true
	case *EnumType:
		y, ok := b.(*EnumType)
		return ok && (x == y || (x.Name == y.Name && x.Underlying == y.Underlying && len(x.Members) == len(y.Members)))
	case SizedArray:
		y, ok := b.(SizedArray)
		return ok && x.Count == y.Count && Equal(x.Element, y.Element)
	}

	panic("unhandled type")
}

func IsInteger(t Typ) bool {
	_, ok := t.(Integer)
	return ok
}

func IsUntyped(t Typ) bool {
	_, ok := t.(UntypedInteger)
	return ok
}

func IsPointer(t Typ) bool {
	_, ok := t.(Pointer)
	return ok
}

func IsVoid(t Typ) bool {
	_, ok := t.(Void)
	return t == nil || ok
}

// Fits reports whether the integer value v is representable in t.
// LiteralFits is Fits for an untyped literal, which may carry uint64 bits.
func LiteralFits(lit *Literal[int64], t Integer) bool {
	if u, ok := lit.Typ.(UntypedInteger); ok && u.Unsigned {
		return t == Uint64
	}
	return Fits(lit.Value, t)
}

func Fits(v int64, t Integer) bool {
	bits := uint(t.Bytes * 8)
	if t.Signed {
		if bits == 64 {
			return true
		}
		return v >= -(1<<(bits-1)) && v < 1<<(bits-1)
	}
	if v < 0 {
		return false
	}
	if bits == 64 {
		return true
	}
	return uint64(v) < 1<<bits
}

var (
	Int8   = Integer{1, true}
	Int16  = Integer{2, true}
	Int32  = Integer{4, true}
	Int64  = Integer{8, true}
	Uint8  = Integer{1, false}
	Uint16 = Integer{2, false}
	Uint32 = Integer{4, false}
	Uint64 = Integer{8, false}
)
