package vec

import (
	"fmt"
	"strings"
)

// Kind enumerates the engine's column type kinds. The set is closed: adding a
// kind means adding a decode entry, a default value and a cast rule.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindDate       // days since epoch, UInt16 storage
	KindDateTime   // seconds since epoch, UInt32 storage
	KindDate32     // days since epoch, Int32 storage
	KindDateTime64 // fixed-point seconds, Int64 storage, scale decimal digits
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindArray
	KindMap
	KindTuple
	KindLowCardinality
	KindNullable
)

var kindNames = map[Kind]string{
	KindInt8:     "Int8",
	KindInt16:    "Int16",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindUInt8:    "UInt8",
	KindUInt16:   "UInt16",
	KindUInt32:   "UInt32",
	KindUInt64:   "UInt64",
	KindFloat32:  "Float32",
	KindFloat64:  "Float64",
	KindString:   "String",
	KindDate:     "Date",
	KindDateTime: "DateTime",
	KindDate32:   "Date32",
}

// Maximum decimal precision representable per storage width.
const (
	MaxDecimal32Precision  = 9
	MaxDecimal64Precision  = 18
	MaxDecimal128Precision = 38
	MaxDecimal256Precision = 76
)

// Field is a named type, one entry of a schema or of a tuple type.
type Field struct {
	Name string
	Type Type
}

// Schema is an ordered list of named column types. Used both as the target
// schema of a conversion and as the description of a decoded header.
type Schema []Field

// FieldIndex returns the index of the named field, or -1.
func (s Schema) FieldIndex(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Type describes an engine column type as a closed tagged union over Kind.
// Parameterized kinds carry their parameters inline; nested kinds reference
// child types. Values are immutable after construction.
type Type struct {
	Kind      Kind
	Precision int     // Decimal* only
	Scale     int     // Decimal* and DateTime64
	Elem      *Type   // Array element, LowCardinality values, Nullable inner
	Key       *Type   // Map key
	Value     *Type   // Map value
	Fields    []Field // Tuple members, in declaration order
}

func Int8() Type     { return Type{Kind: KindInt8} }
func Int16() Type    { return Type{Kind: KindInt16} }
func Int32() Type    { return Type{Kind: KindInt32} }
func Int64() Type    { return Type{Kind: KindInt64} }
func UInt8() Type    { return Type{Kind: KindUInt8} }
func UInt16() Type   { return Type{Kind: KindUInt16} }
func UInt32() Type   { return Type{Kind: KindUInt32} }
func UInt64() Type   { return Type{Kind: KindUInt64} }
func Float32() Type  { return Type{Kind: KindFloat32} }
func Float64() Type  { return Type{Kind: KindFloat64} }
func String() Type   { return Type{Kind: KindString} }
func Date() Type     { return Type{Kind: KindDate} }
func DateTime() Type { return Type{Kind: KindDateTime} }
func Date32() Type   { return Type{Kind: KindDate32} }

// Bool returns the engine's boolean representation, one byte per value.
func Bool() Type { return UInt8() }

func DateTime64(scale int) Type {
	return Type{Kind: KindDateTime64, Scale: scale}
}

// Decimal returns the decimal type with the narrowest storage width able to
// hold the given precision.
func Decimal(precision, scale int) Type {
	switch {
	case precision <= MaxDecimal32Precision:
		return Type{Kind: KindDecimal32, Precision: precision, Scale: scale}
	case precision <= MaxDecimal64Precision:
		return Type{Kind: KindDecimal64, Precision: precision, Scale: scale}
	case precision <= MaxDecimal128Precision:
		return Type{Kind: KindDecimal128, Precision: precision, Scale: scale}
	default:
		return Type{Kind: KindDecimal256, Precision: precision, Scale: scale}
	}
}

func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func MapOf(key, value Type) Type {
	return Type{Kind: KindMap, Key: &key, Value: &value}
}

func TupleOf(fields []Field) Type {
	return Type{Kind: KindTuple, Fields: fields}
}

func LowCardinalityOf(values Type) Type {
	return Type{Kind: KindLowCardinality, Elem: &values}
}

// NullableOf wraps t. Wrapping an already nullable type is idempotent.
func NullableOf(t Type) Type {
	if t.Kind == KindNullable {
		return t
	}
	return Type{Kind: KindNullable, Elem: &t}
}

// IsNullable reports whether t is a Nullable wrapper.
func (t Type) IsNullable() bool { return t.Kind == KindNullable }

// Unwrap returns the inner type of a Nullable, or t itself.
func (t Type) Unwrap() Type {
	if t.Kind == KindNullable {
		return *t.Elem
	}
	return t
}

// IsNumeric reports whether t is stored as a plain fixed-width machine
// number (integers, floats and the temporal kinds that alias them).
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindFloat32, KindFloat64,
		KindDate, KindDateTime, KindDate32, KindDateTime64:
		return true
	}
	return false
}

// IsDecimal reports whether t is one of the decimal kinds.
func (t Type) IsDecimal() bool {
	switch t.Kind {
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return true
	}
	return false
}

// Equal reports deep equality of two types, including all parameters and
// nested children. Tuple field names participate in equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindDateTime64:
		return t.Scale == o.Scale
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return t.Precision == o.Precision && t.Scale == o.Scale
	case KindArray, KindLowCardinality, KindNullable:
		return t.Elem.Equal(*o.Elem)
	case KindMap:
		return t.Key.Equal(*o.Key) && t.Value.Equal(*o.Value)
	case KindTuple:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindDateTime64:
		return fmt.Sprintf("DateTime64(%d)", t.Scale)
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.Elem)
	case KindMap:
		return fmt.Sprintf("Map(%s, %s)", t.Key, t.Value)
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + " " + f.Type.String()
		}
		return "Tuple(" + strings.Join(parts, ", ") + ")"
	case KindLowCardinality:
		return fmt.Sprintf("LowCardinality(%s)", t.Elem)
	case KindNullable:
		return fmt.Sprintf("Nullable(%s)", t.Elem)
	default:
		if name, ok := kindNames[t.Kind]; ok {
			return name
		}
		return fmt.Sprintf("InvalidType(%d)", t.Kind)
	}
}
