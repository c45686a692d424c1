package arrowvec

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/borealdb/boreal/vec"
)

func TestDecodeListAcrossChunks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
	defer b.Release()
	vb := b.ValueBuilder().(*array.Int64Builder)

	b.Append(true)
	vb.AppendValues([]int64{1, 2}, nil)
	b.Append(true)
	vb.Append(3)
	first := b.NewArray()
	defer first.Release()

	b.Append(true)
	vb.AppendValues([]int64{4, 5, 6}, nil)
	second := b.NewArray()
	defer second.Release()

	col, err := newDecoder(true).readColumn(
		arrow.Field{Name: "l", Type: arrow.ListOfNonNullable(arrow.PrimitiveTypes.Int64)},
		[]arrow.Array{first, second},
	)
	require.NoError(t, err)
	a := col.(*vec.ArrayColumn)
	// Offsets from the second chunk are shifted by the element count of the
	// first.
	require.Equal(t, []uint64{2, 3, 6}, a.Offsets())
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, a.Child().(*vec.Numeric[int64]).Values())
}

func TestDecodeStruct(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	st := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "y", Type: arrow.BinaryTypes.String},
	)
	b := array.NewStructBuilder(mem, st)
	defer b.Release()
	xb := b.FieldBuilder(0).(*array.Int64Builder)
	yb := b.FieldBuilder(1).(*array.StringBuilder)

	b.Append(true)
	xb.Append(1)
	yb.Append("a")
	b.Append(true)
	xb.Append(2)
	yb.Append("b")
	arr := b.NewArray()
	defer arr.Release()

	col, err := newDecoder(true).readColumn(
		arrow.Field{Name: "t", Type: st},
		[]arrow.Array{arr},
	)
	require.NoError(t, err)
	tup := col.(*vec.TupleColumn)
	require.Equal(t, []string{"x", "y"}, tup.Names())
	require.Equal(t, []int64{1, 2}, tup.FieldAt(0).(*vec.Numeric[int64]).Values())
	require.Equal(t, "b", tup.FieldAt(1).(*vec.StringColumn).Value(1))
}

func TestDecodeStructChildMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	xb := array.NewInt64Builder(mem)
	defer xb.Release()
	xb.AppendValues([]int64{1, 2, 3}, nil)
	x := xb.NewArray()
	defer x.Release()

	yb := array.NewInt64Builder(mem)
	defer yb.Release()
	yb.AppendValues([]int64{1, 2}, nil)
	y := yb.NewArray()
	defer y.Release()

	st := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Int64},
	)
	// Assembled by hand: builders refuse to produce ragged children.
	data := array.NewData(st, 3, []*memory.Buffer{nil}, []arrow.ArrayData{x.Data(), y.Data()}, 0, 0)
	defer data.Release()
	arr := array.NewStructData(data)
	defer arr.Release()

	_, err := newDecoder(true).readColumn(
		arrow.Field{Name: "t", Type: st},
		[]arrow.Array{arr},
	)
	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	require.Equal(t, "t", structErr.Column)
	require.Contains(t, err.Error(), "row count does not match")
}

func TestDecodeMap(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mt := arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64)
	mt.SetItemNullable(false)
	b := array.NewMapBuilder(mem, arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64, false)
	defer b.Release()
	kb := b.KeyBuilder().(*array.StringBuilder)
	ib := b.ItemBuilder().(*array.Int64Builder)

	b.Append(true)
	kb.Append("a")
	ib.Append(1)
	kb.Append("b")
	ib.Append(2)
	b.Append(true)
	kb.Append("c")
	ib.Append(3)
	arr := b.NewArray()
	defer arr.Release()

	col, err := newDecoder(true).readColumn(
		arrow.Field{Name: "m", Type: mt},
		[]arrow.Array{arr},
	)
	require.NoError(t, err)
	m := col.(*vec.MapColumn)
	require.Equal(t, []uint64{2, 3}, m.Offsets())
	require.Equal(t, "a", m.Keys().(*vec.StringColumn).Value(0))
	require.Equal(t, []int64{1, 2, 3}, m.Values().(*vec.Numeric[int64]).Values())
}

func TestDecodeDictionary(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint32, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
	defer b.Release()
	require.NoError(t, b.AppendString("a"))
	require.NoError(t, b.AppendString("b"))
	require.NoError(t, b.AppendString("a"))
	arr := b.NewArray()
	defer arr.Release()

	decodes := 0
	dec := newDecoder(true)
	dec.onDictionaryDecode = func() { decodes++ }
	f := arrow.Field{Name: "s", Type: dt}

	col, err := dec.readColumn(f, []arrow.Array{arr})
	require.NoError(t, err)
	lc := col.(*vec.LowCardinalityColumn)
	require.Equal(t, 3, lc.Len())
	require.Equal(t, "a", lc.Dictionary().(*vec.StringColumn).Value(int(lc.Index(0))))
	require.Equal(t, "b", lc.Dictionary().(*vec.StringColumn).Value(int(lc.Index(1))))
	require.Equal(t, lc.Index(0), lc.Index(2))
	require.Equal(t, 1, decodes)

	// A second decode of the same column reuses the cached values.
	again, err := dec.readColumn(f, []arrow.Array{arr})
	require.NoError(t, err)
	require.Same(t, lc.Dictionary(), again.(*vec.LowCardinalityColumn).Dictionary())
	require.Equal(t, 1, decodes)
}

func TestDecodeDictionarySignedIndices(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
	defer b.Release()
	require.NoError(t, b.AppendString("x"))
	require.NoError(t, b.AppendString("y"))
	arr := b.NewArray()
	defer arr.Release()

	col, err := newDecoder(true).readColumn(
		arrow.Field{Name: "s", Type: dt},
		[]arrow.Array{arr},
	)
	require.NoError(t, err)
	lc := col.(*vec.LowCardinalityColumn)
	require.Equal(t, vec.UInt32(), lc.Indices().Type())
	require.Equal(t, uint64(1), lc.Index(1))
}

func TestExtractNested(t *testing.T) {
	inner := vec.NewTuple(
		[]string{"x", "y"},
		[]vec.Column{
			vec.NewNumeric(vec.Int64(), []int64{1, 2, 3}),
			vec.NewString([]byte("a\x00b\x00c\x00"), []uint64{2, 4, 6}),
		},
	)

	t.Run("tuple field", func(t *testing.T) {
		col, ok := extractNested(inner, "x")
		require.True(t, ok)
		require.Equal(t, []int64{1, 2, 3}, col.(*vec.Numeric[int64]).Values())
	})

	t.Run("array of tuples keeps offsets", func(t *testing.T) {
		arr := vec.NewArray([]uint64{2, 3}, inner)
		col, ok := extractNested(arr, "y")
		require.True(t, ok)
		got := col.(*vec.ArrayColumn)
		require.Equal(t, []uint64{2, 3}, got.Offsets())
		require.Equal(t, "c", got.Child().(*vec.StringColumn).Value(2))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, ok := extractNested(inner, "z")
		require.False(t, ok)
	})

	t.Run("multi level", func(t *testing.T) {
		outer := vec.NewTuple([]string{"inner"}, []vec.Column{inner})
		col, ok := extractNested(outer, "inner.x")
		require.True(t, ok)
		require.Equal(t, []int64{1, 2, 3}, col.(*vec.Numeric[int64]).Values())
	})
}
