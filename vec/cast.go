package vec

import (
	"fmt"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
)

// Cast coerces a column into the exact target type: identity when the types
// already match, numeric widening/narrowing, Nullable wrapping/unwrapping,
// decimal rescaling, dictionary expansion, and elementwise casts of nested
// children. Pairs with no rule return an error; values are never silently
// clamped beyond ordinary integer truncation semantics.
func Cast(col Column, to Type) (Column, error) {
	from := col.Type()
	if from.Equal(to) {
		return col, nil
	}

	switch {
	case to.Kind == KindNullable:
		if n, ok := col.(*NullableColumn); ok {
			inner, err := Cast(n.Inner(), *to.Elem)
			if err != nil {
				return nil, err
			}
			return NewNullable(inner, n.Nulls()), nil
		}
		inner, err := Cast(col, *to.Elem)
		if err != nil {
			return nil, err
		}
		return NewNullable(inner, make([]uint8, col.Len())), nil

	case from.Kind == KindNullable:
		n := col.(*NullableColumn)
		if n.NullCount() > 0 {
			return nil, fmt.Errorf("cannot cast %s to %s: column contains NULL values", from, to)
		}
		return Cast(n.Inner(), to)

	case from.Kind == KindLowCardinality && to.Kind != KindLowCardinality:
		lc := col.(*LowCardinalityColumn)
		expanded, err := expandLowCardinality(lc)
		if err != nil {
			return nil, err
		}
		return Cast(expanded, to)

	case to.Kind == KindLowCardinality && from.Kind != KindLowCardinality:
		values, err := Cast(col, *to.Elem)
		if err != nil {
			return nil, err
		}
		indices := make([]uint64, col.Len())
		for i := range indices {
			indices[i] = uint64(i)
		}
		return NewLowCardinality(values, NewNumeric(UInt64(), indices)), nil

	case from.Kind == KindLowCardinality && to.Kind == KindLowCardinality:
		lc := col.(*LowCardinalityColumn)
		values, err := Cast(lc.Dictionary(), *to.Elem)
		if err != nil {
			return nil, err
		}
		return NewLowCardinality(values, lc.Indices()), nil

	case from.IsNumeric() && to.IsNumeric():
		return castNumeric(col.(numericColumn), to), nil

	case from.IsDecimal() && to.IsDecimal():
		return castDecimal(col, to)

	case from.Kind == KindArray && to.Kind == KindArray:
		a := col.(*ArrayColumn)
		child, err := Cast(a.Child(), *to.Elem)
		if err != nil {
			return nil, err
		}
		return NewArray(a.Offsets(), child), nil

	case from.Kind == KindMap && to.Kind == KindMap:
		m := col.(*MapColumn)
		keys, err := Cast(m.Keys(), *to.Key)
		if err != nil {
			return nil, err
		}
		values, err := Cast(m.Values(), *to.Value)
		if err != nil {
			return nil, err
		}
		return NewMap(keys, values, m.Offsets()), nil

	case from.Kind == KindTuple && to.Kind == KindTuple:
		t := col.(*TupleColumn)
		if len(to.Fields) != t.NumFields() {
			return nil, fmt.Errorf("cannot cast %s to %s: field count mismatch", from, to)
		}
		names := make([]string, len(to.Fields))
		cols := make([]Column, len(to.Fields))
		for i, f := range to.Fields {
			c, err := Cast(t.FieldAt(i), f.Type)
			if err != nil {
				return nil, err
			}
			names[i] = f.Name
			cols[i] = c
		}
		return NewTuple(names, cols), nil

	default:
		return nil, fmt.Errorf("no cast rule from %s to %s", from, to)
	}
}

func castNumeric(col numericColumn, to Type) Column {
	n := col.Len()
	switch to.Kind {
	case KindInt8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(col.int64At(i))
		}
		return NewNumeric(to, out)
	case KindInt16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(col.int64At(i))
		}
		return NewNumeric(to, out)
	case KindInt32, KindDate32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(col.int64At(i))
		}
		return NewNumeric(to, out)
	case KindInt64, KindDateTime64:
		out := make([]int64, n)
		for i := range out {
			out[i] = col.int64At(i)
		}
		return NewNumeric(to, out)
	case KindUInt8:
		out := make([]uint8, n)
		for i := range out {
			out[i] = uint8(col.uint64At(i))
		}
		return NewNumeric(to, out)
	case KindUInt16, KindDate:
		out := make([]uint16, n)
		for i := range out {
			out[i] = uint16(col.uint64At(i))
		}
		return NewNumeric(to, out)
	case KindUInt32, KindDateTime:
		out := make([]uint32, n)
		for i := range out {
			out[i] = uint32(col.uint64At(i))
		}
		return NewNumeric(to, out)
	case KindUInt64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = col.uint64At(i)
		}
		return NewNumeric(to, out)
	case KindFloat32:
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(col.float64At(i))
		}
		return NewNumeric(to, out)
	default: // KindFloat64
		out := make([]float64, n)
		for i := range out {
			out[i] = col.float64At(i)
		}
		return NewNumeric(to, out)
	}
}

// castDecimal rescales and restores decimals through big.Int arithmetic.
// Downscaling truncates toward zero. This is not a hot path; the bridge only
// reaches it when the exchange and target decimal parameters disagree.
func castDecimal(col Column, to Type) (Column, error) {
	from := col.Type()
	n := col.Len()

	value := func(i int) *big.Int {
		switch c := col.(type) {
		case *Decimal128Column:
			return c.Value(i).BigInt()
		case *Decimal256Column:
			return c.Value(i).BigInt()
		default:
			return big.NewInt(col.(numericColumn).int64At(i))
		}
	}

	delta := to.Scale - from.Scale
	var factor *big.Int
	if delta != 0 {
		factor = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(delta))), nil)
	}
	rescale := func(v *big.Int) *big.Int {
		switch {
		case delta > 0:
			return v.Mul(v, factor)
		case delta < 0:
			return v.Quo(v, factor)
		default:
			return v
		}
	}

	switch to.Kind {
	case KindDecimal32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(rescale(value(i)).Int64())
		}
		return NewNumeric(to, out), nil
	case KindDecimal64:
		out := make([]int64, n)
		for i := range out {
			out[i] = rescale(value(i)).Int64()
		}
		return NewNumeric(to, out), nil
	case KindDecimal128:
		out := make([]decimal128.Num, n)
		for i := range out {
			out[i] = decimal128.FromBigInt(rescale(value(i)))
		}
		return NewDecimal128(to, out), nil
	case KindDecimal256:
		out := make([]decimal256.Num, n)
		for i := range out {
			out[i] = decimal256.FromBigInt(rescale(value(i)))
		}
		return NewDecimal256(to, out), nil
	default:
		return nil, fmt.Errorf("no cast rule from %s to %s", from, to)
	}
}

// expandLowCardinality materializes a dictionary column into a plain column
// by gathering dictionary values per row index.
func expandLowCardinality(lc *LowCardinalityColumn) (Column, error) {
	indices := make([]int, lc.Len())
	for i := range indices {
		indices[i] = int(lc.Index(i))
	}
	return gather(lc.Dictionary(), indices)
}

// gather builds a new column containing values[indices[i]] for every i.
func gather(values Column, indices []int) (Column, error) {
	switch c := values.(type) {
	case *Numeric[int8]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[int16]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[int32]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[int64]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[uint8]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[uint16]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[uint32]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[uint64]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[float32]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Numeric[float64]:
		return NewNumeric(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Decimal128Column:
		return NewDecimal128(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *Decimal256Column:
		return NewDecimal256(c.Type(), gatherSlice(c.Values(), indices)), nil
	case *StringColumn:
		chars := make([]byte, 0, len(indices)*8)
		offsets := make([]uint64, 0, len(indices))
		for _, idx := range indices {
			chars = append(chars, c.Value(idx)...)
			chars = append(chars, 0)
			offsets = append(offsets, uint64(len(chars)))
		}
		return NewString(chars, offsets), nil
	case *NullableColumn:
		inner, err := gather(c.Inner(), indices)
		if err != nil {
			return nil, err
		}
		nulls := make([]uint8, len(indices))
		for i, idx := range indices {
			nulls[i] = c.Nulls()[idx]
		}
		return NewNullable(inner, nulls), nil
	default:
		return nil, fmt.Errorf("cannot expand dictionary with %s values", values.Type())
	}
}

func gatherSlice[T any](values []T, indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
