package vec

import (
	"fmt"
)

// Block is one batch of engine columns sharing a row count, the unit the
// execution pipeline consumes.
type Block struct {
	Schema  Schema
	Columns []Column
	Rows    int
}

func NewBlock(schema Schema, cols []Column, rows int) *Block {
	return &Block{Schema: schema, Columns: cols, Rows: rows}
}

// Size returns the approximate in-memory payload size of the block in bytes.
func (b *Block) Size() int64 {
	var total int64
	for _, c := range b.Columns {
		total += columnSize(c)
	}
	return total
}

func columnSize(c Column) int64 {
	switch c := c.(type) {
	case *Numeric[int8]:
		return int64(len(c.Values()))
	case *Numeric[uint8]:
		return int64(len(c.Values()))
	case *Numeric[int16]:
		return int64(len(c.Values())) * 2
	case *Numeric[uint16]:
		return int64(len(c.Values())) * 2
	case *Numeric[int32]:
		return int64(len(c.Values())) * 4
	case *Numeric[uint32]:
		return int64(len(c.Values())) * 4
	case *Numeric[float32]:
		return int64(len(c.Values())) * 4
	case *Numeric[int64]:
		return int64(len(c.Values())) * 8
	case *Numeric[uint64]:
		return int64(len(c.Values())) * 8
	case *Numeric[float64]:
		return int64(len(c.Values())) * 8
	case *Decimal128Column:
		return int64(c.Len()) * 16
	case *Decimal256Column:
		return int64(c.Len()) * 32
	case *StringColumn:
		return int64(len(c.Chars())) + int64(len(c.Offsets()))*8
	case *ArrayColumn:
		return int64(len(c.Offsets()))*8 + columnSize(c.Child())
	case *MapColumn:
		return int64(len(c.Offsets()))*8 + columnSize(c.Keys()) + columnSize(c.Values())
	case *TupleColumn:
		var total int64
		for i := 0; i < c.NumFields(); i++ {
			total += columnSize(c.FieldAt(i))
		}
		return total
	case *LowCardinalityColumn:
		return columnSize(c.Dictionary()) + columnSize(c.Indices())
	case *NullableColumn:
		return columnSize(c.Inner()) + int64(len(c.Nulls()))
	default:
		return 0
	}
}

// Concat concatenates blocks row-wise. All blocks must have the same schema.
// The inputs are only read; the result owns freshly allocated buffers.
func Concat(blocks []*Block) (*Block, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("concat of zero blocks")
	}
	if len(blocks) == 1 {
		return blocks[0], nil
	}

	first := blocks[0]
	rows := 0
	for _, b := range blocks {
		if len(b.Columns) != len(first.Columns) {
			return nil, fmt.Errorf("concat: column count mismatch: %d vs %d", len(b.Columns), len(first.Columns))
		}
		rows += b.Rows
	}

	cols := make([]Column, len(first.Columns))
	for i := range first.Columns {
		parts := make([]Column, len(blocks))
		for j, b := range blocks {
			parts[j] = b.Columns[i]
		}
		c, err := concatColumns(parts)
		if err != nil {
			name := ""
			if i < len(first.Schema) {
				name = first.Schema[i].Name
			}
			return nil, fmt.Errorf("concat column %q: %w", name, err)
		}
		cols[i] = c
	}

	return NewBlock(first.Schema, cols, rows), nil
}

func concatColumns(parts []Column) (Column, error) {
	for _, p := range parts[1:] {
		if !p.Type().Equal(parts[0].Type()) {
			return nil, fmt.Errorf("type mismatch: %s vs %s", p.Type(), parts[0].Type())
		}
	}

	switch c := parts[0].(type) {
	case *Numeric[int8]:
		return concatNumeric[int8](parts), nil
	case *Numeric[int16]:
		return concatNumeric[int16](parts), nil
	case *Numeric[int32]:
		return concatNumeric[int32](parts), nil
	case *Numeric[int64]:
		return concatNumeric[int64](parts), nil
	case *Numeric[uint8]:
		return concatNumeric[uint8](parts), nil
	case *Numeric[uint16]:
		return concatNumeric[uint16](parts), nil
	case *Numeric[uint32]:
		return concatNumeric[uint32](parts), nil
	case *Numeric[uint64]:
		return concatNumeric[uint64](parts), nil
	case *Numeric[float32]:
		return concatNumeric[float32](parts), nil
	case *Numeric[float64]:
		return concatNumeric[float64](parts), nil
	case *Decimal128Column:
		data := c.Values()[:len(c.Values()):len(c.Values())]
		for _, p := range parts[1:] {
			data = append(data, p.(*Decimal128Column).Values()...)
		}
		return NewDecimal128(c.Type(), data), nil
	case *Decimal256Column:
		data := c.Values()[:len(c.Values()):len(c.Values())]
		for _, p := range parts[1:] {
			data = append(data, p.(*Decimal256Column).Values()...)
		}
		return NewDecimal256(c.Type(), data), nil
	case *StringColumn:
		var chars []byte
		var offsets []uint64
		for _, p := range parts {
			s := p.(*StringColumn)
			base := uint64(len(chars))
			chars = append(chars, s.Chars()...)
			for _, off := range s.Offsets() {
				offsets = append(offsets, base+off)
			}
		}
		return NewString(chars, offsets), nil
	case *ArrayColumn:
		children := make([]Column, len(parts))
		var offsets []uint64
		var carry uint64
		for i, p := range parts {
			a := p.(*ArrayColumn)
			children[i] = a.Child()
			for _, off := range a.Offsets() {
				offsets = append(offsets, carry+off)
			}
			carry += uint64(a.Child().Len())
		}
		child, err := concatColumns(children)
		if err != nil {
			return nil, err
		}
		return NewArray(offsets, child), nil
	case *MapColumn:
		keys := make([]Column, len(parts))
		values := make([]Column, len(parts))
		var offsets []uint64
		var carry uint64
		for i, p := range parts {
			m := p.(*MapColumn)
			keys[i] = m.Keys()
			values[i] = m.Values()
			for _, off := range m.Offsets() {
				offsets = append(offsets, carry+off)
			}
			carry += uint64(m.Keys().Len())
		}
		k, err := concatColumns(keys)
		if err != nil {
			return nil, err
		}
		v, err := concatColumns(values)
		if err != nil {
			return nil, err
		}
		return NewMap(k, v, offsets), nil
	case *TupleColumn:
		cols := make([]Column, c.NumFields())
		for f := 0; f < c.NumFields(); f++ {
			fields := make([]Column, len(parts))
			for i, p := range parts {
				fields[i] = p.(*TupleColumn).FieldAt(f)
			}
			fc, err := concatColumns(fields)
			if err != nil {
				return nil, err
			}
			cols[f] = fc
		}
		return NewTuple(c.Names(), cols), nil
	case *LowCardinalityColumn:
		shared := true
		for _, p := range parts[1:] {
			if p.(*LowCardinalityColumn).Dictionary() != c.Dictionary() {
				shared = false
				break
			}
		}
		if shared {
			indices := make([]Column, len(parts))
			for i, p := range parts {
				indices[i] = p.(*LowCardinalityColumn).Indices()
			}
			idx, err := concatColumns(indices)
			if err != nil {
				return nil, err
			}
			return NewLowCardinality(c.Dictionary(), idx), nil
		}
		// Dictionaries differ between batches: fall back to expanding each
		// part to a plain column.
		expanded := make([]Column, len(parts))
		for i, p := range parts {
			e, err := expandLowCardinality(p.(*LowCardinalityColumn))
			if err != nil {
				return nil, err
			}
			expanded[i] = e
		}
		return concatColumns(expanded)
	case *NullableColumn:
		inners := make([]Column, len(parts))
		var nulls []uint8
		for i, p := range parts {
			n := p.(*NullableColumn)
			inners[i] = n.Inner()
			nulls = append(nulls, n.Nulls()...)
		}
		inner, err := concatColumns(inners)
		if err != nil {
			return nil, err
		}
		return NewNullable(inner, nulls), nil
	default:
		return nil, fmt.Errorf("cannot concat %s columns", parts[0].Type())
	}
}

func concatNumeric[T NumericValue](parts []Column) Column {
	first := parts[0].(*Numeric[T])
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	data := make([]T, 0, total)
	for _, p := range parts {
		data = append(data, p.(*Numeric[T]).Values()...)
	}
	return NewNumeric(first.Type(), data)
}
