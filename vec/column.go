package vec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
)

// Column is one materialized engine column: a dense value buffer for
// primitive kinds, or a composite of child columns plus offsets/validity for
// nested kinds. Columns are exclusively owned by whoever constructed them and
// are never mutated after construction.
type Column interface {
	Type() Type
	Len() int
}

// NumericValue constrains the Go storage types backing Numeric columns.
type NumericValue interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Numeric is a dense vector of fixed-width machine numbers. It backs all
// integer, float, temporal and 32/64-bit decimal kinds; the Type carries the
// logical interpretation.
type Numeric[T NumericValue] struct {
	typ  Type
	data []T
}

func NewNumeric[T NumericValue](typ Type, data []T) *Numeric[T] {
	return &Numeric[T]{typ: typ, data: data}
}

func (c *Numeric[T]) Type() Type    { return c.typ }
func (c *Numeric[T]) Len() int      { return len(c.data) }
func (c *Numeric[T]) Values() []T   { return c.data }
func (c *Numeric[T]) Value(i int) T { return c.data[i] }

// numericColumn is how casting reads any Numeric instantiation without
// knowing T.
type numericColumn interface {
	Column
	int64At(i int) int64
	uint64At(i int) uint64
	float64At(i int) float64
}

func (c *Numeric[T]) int64At(i int) int64     { return int64(c.data[i]) }
func (c *Numeric[T]) uint64At(i int) uint64   { return uint64(c.data[i]) }
func (c *Numeric[T]) float64At(i int) float64 { return float64(c.data[i]) }

// StringColumn stores variable-length values as a contiguous chars buffer
// with a NUL terminator after every value, plus one offset per value pointing
// one past that value's terminator. The final offset equals len(chars); a
// value's length is implied by the neighboring offsets.
type StringColumn struct {
	chars   []byte
	offsets []uint64
}

func NewString(chars []byte, offsets []uint64) *StringColumn {
	return &StringColumn{chars: chars, offsets: offsets}
}

func (c *StringColumn) Type() Type        { return String() }
func (c *StringColumn) Len() int          { return len(c.offsets) }
func (c *StringColumn) Chars() []byte     { return c.chars }
func (c *StringColumn) Offsets() []uint64 { return c.offsets }

// Value returns row i without its trailing terminator.
func (c *StringColumn) Value(i int) string {
	var start uint64
	if i > 0 {
		start = c.offsets[i-1]
	}
	return string(c.chars[start : c.offsets[i]-1])
}

// Decimal128Column stores 128-bit decimals using the exchange library's
// two's-complement representation directly; precision and scale live on the
// type.
type Decimal128Column struct {
	typ  Type
	data []decimal128.Num
}

func NewDecimal128(typ Type, data []decimal128.Num) *Decimal128Column {
	return &Decimal128Column{typ: typ, data: data}
}

func (c *Decimal128Column) Type() Type                 { return c.typ }
func (c *Decimal128Column) Len() int                   { return len(c.data) }
func (c *Decimal128Column) Values() []decimal128.Num   { return c.data }
func (c *Decimal128Column) Value(i int) decimal128.Num { return c.data[i] }

// Decimal256Column is the 256-bit sibling of Decimal128Column.
type Decimal256Column struct {
	typ  Type
	data []decimal256.Num
}

func NewDecimal256(typ Type, data []decimal256.Num) *Decimal256Column {
	return &Decimal256Column{typ: typ, data: data}
}

func (c *Decimal256Column) Type() Type                 { return c.typ }
func (c *Decimal256Column) Len() int                   { return len(c.data) }
func (c *Decimal256Column) Values() []decimal256.Num   { return c.data }
func (c *Decimal256Column) Value(i int) decimal256.Num { return c.data[i] }

// ArrayColumn is a list column: a child column of all elements flattened in
// row order, plus one cumulative end offset per row. Row i spans child
// positions [offsets[i-1], offsets[i]).
type ArrayColumn struct {
	offsets []uint64
	child   Column
}

func NewArray(offsets []uint64, child Column) *ArrayColumn {
	return &ArrayColumn{offsets: offsets, child: child}
}

func (c *ArrayColumn) Type() Type        { return ArrayOf(c.child.Type()) }
func (c *ArrayColumn) Len() int          { return len(c.offsets) }
func (c *ArrayColumn) Offsets() []uint64 { return c.offsets }
func (c *ArrayColumn) Child() Column     { return c.child }

// MapColumn stores keys and values as two flattened child columns sharing
// one offsets buffer, ArrayColumn-style.
type MapColumn struct {
	keys    Column
	values  Column
	offsets []uint64
}

func NewMap(keys, values Column, offsets []uint64) *MapColumn {
	return &MapColumn{keys: keys, values: values, offsets: offsets}
}

func (c *MapColumn) Type() Type        { return MapOf(c.keys.Type(), c.values.Type()) }
func (c *MapColumn) Len() int          { return len(c.offsets) }
func (c *MapColumn) Keys() Column      { return c.keys }
func (c *MapColumn) Values() Column    { return c.values }
func (c *MapColumn) Offsets() []uint64 { return c.offsets }

// TupleColumn is a struct column: named child columns in declaration order,
// all with the same row count.
type TupleColumn struct {
	names []string
	cols  []Column
}

func NewTuple(names []string, cols []Column) *TupleColumn {
	return &TupleColumn{names: names, cols: cols}
}

func (c *TupleColumn) Type() Type {
	fields := make([]Field, len(c.cols))
	for i := range c.cols {
		fields[i] = Field{Name: c.names[i], Type: c.cols[i].Type()}
	}
	return TupleOf(fields)
}

func (c *TupleColumn) Len() int {
	if len(c.cols) == 0 {
		return 0
	}
	return c.cols[0].Len()
}

func (c *TupleColumn) NumFields() int       { return len(c.cols) }
func (c *TupleColumn) FieldAt(i int) Column { return c.cols[i] }
func (c *TupleColumn) Names() []string      { return c.names }

// Field returns the named child column.
func (c *TupleColumn) Field(name string) (Column, bool) {
	for i, n := range c.names {
		if n == name {
			return c.cols[i], true
		}
	}
	return nil, false
}

// LowCardinalityColumn is a dictionary-encoded column: a values column
// holding the distinct set and an unsigned integer index column with one
// entry per row. The values column may be shared between many
// LowCardinalityColumn instances and must not be mutated.
type LowCardinalityColumn struct {
	values  Column
	indices Column
}

func NewLowCardinality(values, indices Column) *LowCardinalityColumn {
	return &LowCardinalityColumn{values: values, indices: indices}
}

func (c *LowCardinalityColumn) Type() Type         { return LowCardinalityOf(c.values.Type()) }
func (c *LowCardinalityColumn) Len() int           { return c.indices.Len() }
func (c *LowCardinalityColumn) Dictionary() Column { return c.values }
func (c *LowCardinalityColumn) Indices() Column    { return c.indices }

// Index returns the dictionary position of row i.
func (c *LowCardinalityColumn) Index(i int) uint64 {
	return c.indices.(numericColumn).uint64At(i)
}

// NullableColumn overlays a null bytemap on an inner column. The bytemap has
// exactly one entry per row; 1 marks NULL. The inner column holds a default
// value at null positions.
type NullableColumn struct {
	inner Column
	nulls []uint8
}

func NewNullable(inner Column, nulls []uint8) *NullableColumn {
	return &NullableColumn{inner: inner, nulls: nulls}
}

func (c *NullableColumn) Type() Type        { return NullableOf(c.inner.Type()) }
func (c *NullableColumn) Len() int          { return len(c.nulls) }
func (c *NullableColumn) Inner() Column     { return c.inner }
func (c *NullableColumn) Nulls() []uint8    { return c.nulls }
func (c *NullableColumn) IsNull(i int) bool { return c.nulls[i] != 0 }

// NullCount returns the number of NULL rows.
func (c *NullableColumn) NullCount() int {
	n := 0
	for _, v := range c.nulls {
		if v != 0 {
			n++
		}
	}
	return n
}

// NewDefault builds a column of n default values of the given type: zero for
// numerics and decimals, empty for strings and nested containers, NULL for
// nullable types. This is the backfill column for requested-but-missing
// columns.
func NewDefault(t Type, n int) Column {
	switch t.Kind {
	case KindInt8:
		return NewNumeric(t, make([]int8, n))
	case KindInt16:
		return NewNumeric(t, make([]int16, n))
	case KindInt32, KindDate32, KindDecimal32:
		return NewNumeric(t, make([]int32, n))
	case KindInt64, KindDateTime64, KindDecimal64:
		return NewNumeric(t, make([]int64, n))
	case KindUInt8:
		return NewNumeric(t, make([]uint8, n))
	case KindUInt16, KindDate:
		return NewNumeric(t, make([]uint16, n))
	case KindUInt32, KindDateTime:
		return NewNumeric(t, make([]uint32, n))
	case KindUInt64:
		return NewNumeric(t, make([]uint64, n))
	case KindFloat32:
		return NewNumeric(t, make([]float32, n))
	case KindFloat64:
		return NewNumeric(t, make([]float64, n))
	case KindString:
		chars := make([]byte, n) // one NUL terminator per empty value
		offsets := make([]uint64, n)
		for i := range offsets {
			offsets[i] = uint64(i + 1)
		}
		return NewString(chars, offsets)
	case KindDecimal128:
		return NewDecimal128(t, make([]decimal128.Num, n))
	case KindDecimal256:
		return NewDecimal256(t, make([]decimal256.Num, n))
	case KindArray:
		return NewArray(make([]uint64, n), NewDefault(*t.Elem, 0))
	case KindMap:
		return NewMap(NewDefault(*t.Key, 0), NewDefault(*t.Value, 0), make([]uint64, n))
	case KindTuple:
		names := make([]string, len(t.Fields))
		cols := make([]Column, len(t.Fields))
		for i, f := range t.Fields {
			names[i] = f.Name
			cols[i] = NewDefault(f.Type, n)
		}
		return NewTuple(names, cols)
	case KindLowCardinality:
		indices := NewNumeric(UInt8(), make([]uint8, n))
		return NewLowCardinality(NewDefault(*t.Elem, 1), indices)
	case KindNullable:
		nulls := make([]uint8, n)
		for i := range nulls {
			nulls[i] = 1
		}
		return NewNullable(NewDefault(*t.Elem, n), nulls)
	default:
		panic(fmt.Sprintf("vec: no default for type %s", t))
	}
}
