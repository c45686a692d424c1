package vec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockSize(t *testing.T) {
	b := NewBlock(
		Schema{{Name: "id", Type: Int64()}, {Name: "name", Type: String()}},
		[]Column{
			NewNumeric(Int64(), []int64{1, 2}),
			NewString([]byte("a\x00b\x00"), []uint64{2, 4}),
		},
		2,
	)
	// 2*8 bytes of ints, 4 chars, 2*8 bytes of offsets.
	require.Equal(t, int64(16+4+16), b.Size())
}

func TestConcatNumeric(t *testing.T) {
	a := NewBlock(Schema{{Name: "v", Type: Int64()}}, []Column{NewNumeric(Int64(), []int64{1, 2})}, 2)
	b := NewBlock(Schema{{Name: "v", Type: Int64()}}, []Column{NewNumeric(Int64(), []int64{3})}, 1)

	out, err := Concat([]*Block{a, b})
	require.NoError(t, err)
	require.Equal(t, 3, out.Rows)
	require.Equal(t, []int64{1, 2, 3}, out.Columns[0].(*Numeric[int64]).Values())
	// Inputs are untouched.
	require.Equal(t, []int64{1, 2}, a.Columns[0].(*Numeric[int64]).Values())
}

func TestConcatSingleBlockPassthrough(t *testing.T) {
	a := NewBlock(Schema{{Name: "v", Type: Int64()}}, []Column{NewNumeric(Int64(), []int64{1})}, 1)
	out, err := Concat([]*Block{a})
	require.NoError(t, err)
	require.Same(t, a, out)
}

func TestConcatString(t *testing.T) {
	schema := Schema{{Name: "s", Type: String()}}
	a := NewBlock(schema, []Column{NewString([]byte("ab\x00"), []uint64{3})}, 1)
	b := NewBlock(schema, []Column{NewString([]byte("c\x00d\x00"), []uint64{2, 4})}, 2)

	out, err := Concat([]*Block{a, b})
	require.NoError(t, err)
	s := out.Columns[0].(*StringColumn)
	require.Equal(t, 3, s.Len())
	require.Equal(t, "ab", s.Value(0))
	require.Equal(t, "c", s.Value(1))
	require.Equal(t, "d", s.Value(2))
	require.Equal(t, uint64(len(s.Chars())), s.Offsets()[s.Len()-1])
}

func TestConcatArrayRebasesOffsets(t *testing.T) {
	schema := Schema{{Name: "a", Type: ArrayOf(Int64())}}
	a := NewBlock(schema, []Column{
		NewArray([]uint64{2, 3}, NewNumeric(Int64(), []int64{1, 2, 3})),
	}, 2)
	b := NewBlock(schema, []Column{
		NewArray([]uint64{1}, NewNumeric(Int64(), []int64{4})),
	}, 1)

	out, err := Concat([]*Block{a, b})
	require.NoError(t, err)
	arr := out.Columns[0].(*ArrayColumn)
	require.Equal(t, []uint64{2, 3, 4}, arr.Offsets())
	require.Equal(t, []int64{1, 2, 3, 4}, arr.Child().(*Numeric[int64]).Values())
}

func TestConcatLowCardinality(t *testing.T) {
	dict := NewString([]byte("a\x00b\x00"), []uint64{2, 4})

	t.Run("shared dictionary keeps encoding", func(t *testing.T) {
		schema := Schema{{Name: "s", Type: LowCardinalityOf(String())}}
		a := NewBlock(schema, []Column{NewLowCardinality(dict, NewNumeric(UInt8(), []uint8{0, 1}))}, 2)
		b := NewBlock(schema, []Column{NewLowCardinality(dict, NewNumeric(UInt8(), []uint8{1}))}, 1)

		out, err := Concat([]*Block{a, b})
		require.NoError(t, err)
		lc := out.Columns[0].(*LowCardinalityColumn)
		require.Same(t, dict, lc.Dictionary())
		require.Equal(t, []uint8{0, 1, 1}, lc.Indices().(*Numeric[uint8]).Values())
	})

	t.Run("different dictionaries expand", func(t *testing.T) {
		other := NewString([]byte("z\x00"), []uint64{2})
		schema := Schema{{Name: "s", Type: LowCardinalityOf(String())}}
		a := NewBlock(schema, []Column{NewLowCardinality(dict, NewNumeric(UInt8(), []uint8{1}))}, 1)
		b := NewBlock(schema, []Column{NewLowCardinality(other, NewNumeric(UInt8(), []uint8{0}))}, 1)

		out, err := Concat([]*Block{a, b})
		require.NoError(t, err)
		s := out.Columns[0].(*StringColumn)
		require.Equal(t, "b", s.Value(0))
		require.Equal(t, "z", s.Value(1))
	})
}

func TestConcatNullable(t *testing.T) {
	schema := Schema{{Name: "v", Type: NullableOf(Int64())}}
	a := NewBlock(schema, []Column{
		NewNullable(NewNumeric(Int64(), []int64{1, 0}), []uint8{0, 1}),
	}, 2)
	b := NewBlock(schema, []Column{
		NewNullable(NewNumeric(Int64(), []int64{3}), []uint8{0}),
	}, 1)

	out, err := Concat([]*Block{a, b})
	require.NoError(t, err)
	n := out.Columns[0].(*NullableColumn)
	require.Equal(t, []uint8{0, 1, 0}, n.Nulls())
	require.Equal(t, []int64{1, 0, 3}, n.Inner().(*Numeric[int64]).Values())
}

func TestConcatMismatch(t *testing.T) {
	t.Run("no blocks", func(t *testing.T) {
		_, err := Concat(nil)
		require.Error(t, err)
	})

	t.Run("column type mismatch", func(t *testing.T) {
		a := NewBlock(Schema{{Name: "v", Type: Int64()}}, []Column{NewNumeric(Int64(), []int64{1})}, 1)
		b := NewBlock(Schema{{Name: "v", Type: Int32()}}, []Column{NewNumeric(Int32(), []int32{1})}, 1)
		_, err := Concat([]*Block{a, b})
		require.ErrorContains(t, err, "type mismatch")
	})
}
