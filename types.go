package glang

import "strings"

// BaseType enumerates the primitive types of glang
type BaseType int

const (
	TypeI8 BaseType = iota
	TypeI16
	TypeI32
	TypeI64
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeVoid
	TypeChar
	TypeF32
	TypeF64
	TypeBool
)

var baseTypeNames = map[BaseType]string{
	TypeI8:   "i8",
	TypeI16:  "i16",
	TypeI32:  "i32",
	TypeI64:  "i64",
	TypeU8:   "u8",
	TypeU16:  "u16",
	TypeU32:  "u32",
	TypeU64:  "u64",
	TypeVoid: "void",
	TypeChar: "char",
	TypeF32:  "f32",
	TypeF64:  "f64",
	TypeBool: "bool",
}

func (b BaseType) String() string {
	return baseTypeNames[b]
}

// BaseTypeFromName maps a type name in the source to a BaseType
func BaseTypeFromName(name string) (BaseType, bool) {
	for base, n := range baseTypeNames {
		if n == name {
			return base, true
		}
	}
	return 0, false
}

// IsUnsigned reports whether the base is one of the unsigned widths.
// CHAR counts as unsigned: it is an 8-bit byte.
func (b BaseType) IsUnsigned() bool {
	switch b {
	case TypeU8, TypeU16, TypeU32, TypeU64, TypeChar:
		return true
	}
	return false
}

// IsInteger reports whether the base participates in integer
// arithmetic after promotion
func (b BaseType) IsInteger() bool {
	switch b {
	case TypeI8, TypeI16, TypeI32, TypeI64, TypeU8, TypeU16, TypeU32, TypeU64, TypeChar:
		return true
	}
	return false
}

func (b BaseType) IsFloat() bool {
	return b == TypeF32 || b == TypeF64
}

// TypeIdentifier is a glang type: a primitive base plus the number of
// pointer indirections declared in front of it.  `char**` is
// {TypeChar, 2}.  Equality is by both fields.
type TypeIdentifier struct {
	Base     BaseType
	PtrDepth int
}

func NewTypeIdentifier(base BaseType, ptrDepth int) TypeIdentifier {
	return TypeIdentifier{Base: base, PtrDepth: ptrDepth}
}

func (t TypeIdentifier) String() string {
	return t.Base.String() + strings.Repeat("*", t.PtrDepth)
}

func (t TypeIdentifier) Equal(o TypeIdentifier) bool {
	return t.Base == o.Base && t.PtrDepth == o.PtrDepth
}

// promoted collapses every integer width and CHAR to I64 for operand
// compatibility checking.  Pointers and non-integer bases are left
// untouched.
func (t TypeIdentifier) promoted() TypeIdentifier {
	if t.PtrDepth == 0 && t.Base.IsInteger() {
		return TypeIdentifier{Base: TypeI64}
	}
	return t
}

// compatibleWith reports whether two types may meet across an operator
// or an assignment: equal after integer promotion, with exactly
// matching pointer depth
func (t TypeIdentifier) compatibleWith(o TypeIdentifier) bool {
	return t.promoted().Equal(o.promoted())
}

var typeVoid = TypeIdentifier{Base: TypeVoid}
var typeBool = TypeIdentifier{Base: TypeBool}
var typeI64 = TypeIdentifier{Base: TypeI64}
