package vec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalStorageWidth(t *testing.T) {
	require.Equal(t, KindDecimal32, Decimal(9, 2).Kind)
	require.Equal(t, KindDecimal64, Decimal(10, 2).Kind)
	require.Equal(t, KindDecimal64, Decimal(18, 4).Kind)
	require.Equal(t, KindDecimal128, Decimal(19, 4).Kind)
	require.Equal(t, KindDecimal128, Decimal(38, 10).Kind)
	require.Equal(t, KindDecimal256, Decimal(39, 10).Kind)
}

func TestNullableOfIdempotent(t *testing.T) {
	n := NullableOf(Int64())
	require.Equal(t, n, NullableOf(n))
	require.True(t, n.IsNullable())
	require.Equal(t, Int64(), n.Unwrap())
	require.Equal(t, Int64(), Int64().Unwrap())
}

func TestTypeEqual(t *testing.T) {
	require.True(t, Int64().Equal(Int64()))
	require.False(t, Int64().Equal(UInt64()))
	require.True(t, Decimal(9, 2).Equal(Decimal(9, 2)))
	require.False(t, Decimal(9, 2).Equal(Decimal(9, 3)))
	require.False(t, DateTime64(3).Equal(DateTime64(6)))
	require.True(t, ArrayOf(String()).Equal(ArrayOf(String())))
	require.False(t, ArrayOf(String()).Equal(ArrayOf(Int64())))
	require.True(t, MapOf(String(), Int64()).Equal(MapOf(String(), Int64())))

	tup := TupleOf([]Field{{Name: "a", Type: Int64()}, {Name: "b", Type: String()}})
	require.True(t, tup.Equal(TupleOf([]Field{{Name: "a", Type: Int64()}, {Name: "b", Type: String()}})))
	// Field names participate in tuple equality.
	require.False(t, tup.Equal(TupleOf([]Field{{Name: "x", Type: Int64()}, {Name: "b", Type: String()}})))
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "Int64", Int64().String())
	require.Equal(t, "UInt8", Bool().String())
	require.Equal(t, "Decimal(18, 4)", Decimal(18, 4).String())
	require.Equal(t, "DateTime64(9)", DateTime64(9).String())
	require.Equal(t, "Array(Nullable(String))", ArrayOf(NullableOf(String())).String())
	require.Equal(t, "Map(String, Int64)", MapOf(String(), Int64()).String())
	require.Equal(t, "Tuple(a Int64, b String)",
		TupleOf([]Field{{Name: "a", Type: Int64()}, {Name: "b", Type: String()}}).String())
	require.Equal(t, "LowCardinality(String)", LowCardinalityOf(String()).String())
}

func TestSchemaFieldIndex(t *testing.T) {
	s := Schema{
		{Name: "a", Type: Int64()},
		{Name: "b", Type: String()},
	}
	require.Equal(t, 0, s.FieldIndex("a"))
	require.Equal(t, 1, s.FieldIndex("b"))
	require.Equal(t, -1, s.FieldIndex("c"))
}

func TestNewDefault(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		col := NewDefault(Int64(), 3)
		require.Equal(t, 3, col.Len())
		require.Equal(t, []int64{0, 0, 0}, col.(*Numeric[int64]).Values())
	})

	t.Run("string", func(t *testing.T) {
		col := NewDefault(String(), 3).(*StringColumn)
		require.Equal(t, 3, col.Len())
		// One terminator byte per empty value, offsets pointing past it.
		require.Equal(t, []byte{0, 0, 0}, col.Chars())
		require.Equal(t, []uint64{1, 2, 3}, col.Offsets())
		require.Equal(t, "", col.Value(1))
	})

	t.Run("array", func(t *testing.T) {
		col := NewDefault(ArrayOf(Int64()), 2).(*ArrayColumn)
		require.Equal(t, 2, col.Len())
		require.Equal(t, []uint64{0, 0}, col.Offsets())
		require.Equal(t, 0, col.Child().Len())
	})

	t.Run("nullable is all null", func(t *testing.T) {
		col := NewDefault(NullableOf(Int32()), 4).(*NullableColumn)
		require.Equal(t, 4, col.Len())
		require.Equal(t, 4, col.NullCount())
	})

	t.Run("low cardinality", func(t *testing.T) {
		col := NewDefault(LowCardinalityOf(String()), 3).(*LowCardinalityColumn)
		require.Equal(t, 3, col.Len())
		require.Equal(t, 1, col.Dictionary().Len())
		require.Equal(t, uint64(0), col.Index(2))
	})
}
