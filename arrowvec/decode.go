package arrowvec

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/borealdb/boreal/vec"
)

// maxDateDay is the last day number the engine's date LUT covers
// (2299-12-31). Date32 values beyond it are a range error, never truncated.
const maxDateDay = 120529

// The numeric bulk-copy fast path requires the arrow value buffer layout and
// the engine storage layout to be bit-identical. Verified once here, not per
// batch.
func init() {
	type pair struct {
		arrowSize int
		goSize    uintptr
		name      string
	}
	for _, p := range []pair{
		{arrow.Int8SizeBytes, unsafe.Sizeof(int8(0)), "int8"},
		{arrow.Int16SizeBytes, unsafe.Sizeof(int16(0)), "int16"},
		{arrow.Int32SizeBytes, unsafe.Sizeof(int32(0)), "int32"},
		{arrow.Int64SizeBytes, unsafe.Sizeof(int64(0)), "int64"},
		{arrow.Uint8SizeBytes, unsafe.Sizeof(uint8(0)), "uint8"},
		{arrow.Uint16SizeBytes, unsafe.Sizeof(uint16(0)), "uint16"},
		{arrow.Uint32SizeBytes, unsafe.Sizeof(uint32(0)), "uint32"},
		{arrow.Uint64SizeBytes, unsafe.Sizeof(uint64(0)), "uint64"},
		{arrow.Float32SizeBytes, unsafe.Sizeof(float32(0)), "float32"},
		{arrow.Float64SizeBytes, unsafe.Sizeof(float64(0)), "float64"},
		{arrow.Decimal128SizeBytes, unsafe.Sizeof(decimal128.Num{}), "decimal128"},
		{arrow.Decimal256SizeBytes, unsafe.Sizeof(decimal256.Num{}), "decimal256"},
	} {
		if p.arrowSize != int(p.goSize) {
			panic("arrowvec: arrow/engine layout mismatch for " + p.name)
		}
	}
}

// decoder holds the per-bridge state threaded through recursive column
// decoding: the dictionary cache and the decode flags. It is not safe for
// concurrent use.
type decoder struct {
	// dicts caches fully decoded dictionary values per column name. Once
	// populated for a name the entry is only reused, never overwritten:
	// dictionary values are assumed stable across chunks of one instance.
	dicts map[string]vec.Column

	// onDictionaryDecode is called once per full dictionary decode.
	onDictionaryDecode func()

	// intsAsDates re-types UInt16 as Date and UInt32 as DateTime, matching
	// the engine's own encoding of those types in the exchange format.
	intsAsDates bool
}

func newDecoder(intsAsDates bool) *decoder {
	return &decoder{
		dicts:       map[string]vec.Column{},
		intsAsDates: intsAsDates,
	}
}

// readColumn decodes one exchange column into an engine column. Nullability
// is handled first and uniformly: the field is decoded as non-nullable, then
// wrapped with a null bytemap, for every type including nested ones.
func (d *decoder) readColumn(f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	if f.Nullable {
		inner := f
		inner.Nullable = false
		col, err := d.readColumn(inner, chunks)
		if err != nil {
			return nil, err
		}
		return vec.NewNullable(col, nullBytemap(chunks)), nil
	}

	switch f.Type.ID() {
	case arrow.LIST:
		return d.readList(f, chunks)
	case arrow.MAP:
		return d.readMap(f, chunks)
	case arrow.STRUCT:
		return d.readStruct(f, chunks)
	case arrow.DICTIONARY:
		return d.readDictionary(f, chunks)
	}

	if decode, ok := primitiveDecoders[f.Type.ID()]; ok {
		return decode(d, f, chunks)
	}
	return nil, &TypeError{Column: f.Name, ArrowType: f.Type}
}

type decodeFunc func(d *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error)

// primitiveDecoders dispatches flat types once per column. Adding a type is
// a one-entry change.
var primitiveDecoders map[arrow.Type]decodeFunc

func init() {
	primitiveDecoders = map[arrow.Type]decodeFunc{
		arrow.INT8: numericDecoder(vec.Int8(), func(a arrow.Array) []int8 {
			return a.(*array.Int8).Int8Values()
		}),
		arrow.INT16: numericDecoder(vec.Int16(), func(a arrow.Array) []int16 {
			return a.(*array.Int16).Int16Values()
		}),
		arrow.INT32: numericDecoder(vec.Int32(), func(a arrow.Array) []int32 {
			return a.(*array.Int32).Int32Values()
		}),
		arrow.INT64: numericDecoder(vec.Int64(), func(a arrow.Array) []int64 {
			return a.(*array.Int64).Int64Values()
		}),
		arrow.UINT8: numericDecoder(vec.UInt8(), func(a arrow.Array) []uint8 {
			return a.(*array.Uint8).Uint8Values()
		}),
		arrow.UINT64: numericDecoder(vec.UInt64(), func(a arrow.Array) []uint64 {
			return a.(*array.Uint64).Uint64Values()
		}),
		arrow.FLOAT32: numericDecoder(vec.Float32(), func(a arrow.Array) []float32 {
			return a.(*array.Float32).Float32Values()
		}),
		arrow.FLOAT64: numericDecoder(vec.Float64(), func(a arrow.Array) []float64 {
			return a.(*array.Float64).Float64Values()
		}),

		// The engine writes Date as UInt16 and DateTime as UInt32 when it
		// produces exchange data itself, so data decoding re-types them to
		// allow round-tripping; header computation keeps the plain integer
		// types.
		arrow.UINT16:  decodeUint16,
		arrow.UINT32:  decodeUint32,
		arrow.FLOAT16: decodeHalfFloat,

		arrow.BOOL:       decodeBoolean,
		arrow.STRING:     decodeBinaryLike,
		arrow.BINARY:     decodeBinaryLike,
		arrow.DATE32:     decodeDate32,
		arrow.DATE64:     decodeDate64,
		arrow.TIMESTAMP:  decodeTimestamp,
		arrow.DECIMAL32:  decodeDecimal32,
		arrow.DECIMAL64:  decodeDecimal64,
		arrow.DECIMAL128: decodeDecimal128,
		arrow.DECIMAL256: decodeDecimal256,
	}
}

// numericDecoder copies the chunk value buffers wholesale into engine
// storage. values must return the chunk's typed view of its arrow value
// buffer so the append is a bulk memory copy, the dominant performance lever
// of the bridge.
func numericDecoder[T vec.NumericValue](typ vec.Type, values func(arrow.Array) []T) decodeFunc {
	return func(_ *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
		data := make([]T, 0, totalLen(chunks))
		for _, chunk := range chunks {
			if chunk.Len() == 0 {
				continue
			}
			data = append(data, values(chunk)...)
		}
		return vec.NewNumeric(typ, data), nil
	}
}

func decodeUint16(d *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	typ := vec.UInt16()
	if d.intsAsDates {
		typ = vec.Date()
	}
	data := make([]uint16, 0, totalLen(chunks))
	for _, chunk := range chunks {
		data = append(data, chunk.(*array.Uint16).Uint16Values()...)
	}
	return vec.NewNumeric(typ, data), nil
}

func decodeUint32(d *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	typ := vec.UInt32()
	if d.intsAsDates {
		typ = vec.DateTime()
	}
	data := make([]uint32, 0, totalLen(chunks))
	for _, chunk := range chunks {
		data = append(data, chunk.(*array.Uint32).Uint32Values()...)
	}
	return vec.NewNumeric(typ, data), nil
}

// Half-float storage differs between the two sides, so there is no bulk copy
// here; values are widened elementwise.
func decodeHalfFloat(_ *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	data := make([]float32, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for _, v := range chunk.(*array.Float16).Values() {
			data = append(data, v.Float32())
		}
	}
	return vec.NewNumeric(vec.Float32(), data), nil
}

// Booleans are bit-packed on the exchange side and one byte per value on the
// engine side; unpacked elementwise.
func decodeBoolean(_ *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	data := make([]uint8, 0, totalLen(chunks))
	for _, chunk := range chunks {
		a := chunk.(*array.Boolean)
		for i := 0; i < a.Len(); i++ {
			if a.Value(i) {
				data = append(data, 1)
			} else {
				data = append(data, 0)
			}
		}
	}
	return vec.NewNumeric(vec.Bool(), data), nil
}

// decodeBinaryLike materializes strings in the engine encoding: value bytes
// plus a NUL terminator per value, lengths implied by offsets. The total
// chars size is computed across all chunks before allocating so the buffers
// never grow incrementally. Null values still contribute a terminator-only
// entry.
func decodeBinaryLike(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	rows := totalLen(chunks)
	total := rows // one terminator per value
	for _, chunk := range chunks {
		switch a := chunk.(type) {
		case *array.String:
			for i := 0; i < a.Len(); i++ {
				if !a.IsNull(i) {
					total += len(a.Value(i))
				}
			}
		case *array.Binary:
			for i := 0; i < a.Len(); i++ {
				if !a.IsNull(i) {
					total += a.ValueLen(i)
				}
			}
		default:
			return nil, &TypeError{Column: f.Name, ArrowType: chunk.DataType()}
		}
	}

	chars := make([]byte, 0, total)
	offsets := make([]uint64, 0, rows)
	for _, chunk := range chunks {
		switch a := chunk.(type) {
		case *array.String:
			for i := 0; i < a.Len(); i++ {
				if !a.IsNull(i) {
					chars = append(chars, a.Value(i)...)
				}
				chars = append(chars, 0)
				offsets = append(offsets, uint64(len(chars)))
			}
		case *array.Binary:
			for i := 0; i < a.Len(); i++ {
				if !a.IsNull(i) {
					chars = append(chars, a.Value(i)...)
				}
				chars = append(chars, 0)
				offsets = append(offsets, uint64(len(chars)))
			}
		}
	}
	return vec.NewString(chars, offsets), nil
}

func decodeDate32(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	data := make([]int32, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for _, v := range chunk.(*array.Date32).Date32Values() {
			if int32(v) > maxDateDay {
				return nil, &RangeError{Column: f.Name, Value: int64(v), Limit: maxDateDay}
			}
			data = append(data, int32(v))
		}
	}
	return vec.NewNumeric(vec.Date32(), data), nil
}

// Date64 is defined by the exchange format as milliseconds since the UNIX
// epoch; the engine stores DateTime as seconds, so the division truncates
// toward zero.
func decodeDate64(_ *decoder, _ arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	data := make([]uint32, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for _, v := range chunk.(*array.Date64).Date64Values() {
			data = append(data, uint32(int64(v)/1000))
		}
	}
	return vec.NewNumeric(vec.DateTime(), data), nil
}

// Timestamps keep their raw integer values; the target type's scale encodes
// the unit, so no rescaling happens here.
func decodeTimestamp(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	tt := f.Type.(*arrow.TimestampType)
	typ := vec.DateTime64(timestampScale(tt.Unit))
	data := make([]int64, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for _, v := range chunk.(*array.Timestamp).TimestampValues() {
			data = append(data, int64(v))
		}
	}
	return vec.NewNumeric(typ, data), nil
}

func timestampScale(u arrow.TimeUnit) int {
	switch u {
	case arrow.Second:
		return 0
	case arrow.Millisecond:
		return 3
	case arrow.Microsecond:
		return 6
	default:
		return 9
	}
}

func decodeDecimal32(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	dt := f.Type.(*arrow.Decimal32Type)
	typ := vec.Decimal(int(dt.Precision), int(dt.Scale))
	data := make([]int32, 0, totalLen(chunks))
	for _, chunk := range chunks {
		a := chunk.(*array.Decimal32)
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				data = append(data, 0)
			} else {
				data = append(data, int32(a.Value(i)))
			}
		}
	}
	return vec.NewNumeric(typ, data), nil
}

func decodeDecimal64(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	dt := f.Type.(*arrow.Decimal64Type)
	typ := vec.Decimal(int(dt.Precision), int(dt.Scale))
	data := make([]int64, 0, totalLen(chunks))
	for _, chunk := range chunks {
		a := chunk.(*array.Decimal64)
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				data = append(data, 0)
			} else {
				data = append(data, int64(a.Value(i)))
			}
		}
	}
	return vec.NewNumeric(typ, data), nil
}

// Decimal precision selects the narrowest engine storage that holds it. A
// null value materializes as zero in storage; the validity wrapper carries
// the actual nullness.
func decodeDecimal128(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	dt := f.Type.(*arrow.Decimal128Type)
	typ := vec.Decimal(int(dt.Precision), int(dt.Scale))

	switch typ.Kind {
	case vec.KindDecimal32:
		data := make([]int32, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal128)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, int32(a.Value(i).LowBits()))
				}
			}
		}
		return vec.NewNumeric(typ, data), nil
	case vec.KindDecimal64:
		data := make([]int64, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal128)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, int64(a.Value(i).LowBits()))
				}
			}
		}
		return vec.NewNumeric(typ, data), nil
	default:
		data := make([]decimal128.Num, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal128)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, decimal128.Num{})
				} else {
					data = append(data, decimal128.Num(a.Value(i)))
				}
			}
		}
		return vec.NewDecimal128(typ, data), nil
	}
}

func decodeDecimal256(_ *decoder, f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	dt := f.Type.(*arrow.Decimal256Type)
	typ := vec.Decimal(int(dt.Precision), int(dt.Scale))

	switch typ.Kind {
	case vec.KindDecimal32:
		data := make([]int32, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal256)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, int32(a.Value(i).BigInt().Int64()))
				}
			}
		}
		return vec.NewNumeric(typ, data), nil
	case vec.KindDecimal64:
		data := make([]int64, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal256)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, a.Value(i).BigInt().Int64())
				}
			}
		}
		return vec.NewNumeric(typ, data), nil
	case vec.KindDecimal128:
		data := make([]decimal128.Num, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal256)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, decimal128.Num{})
				} else {
					data = append(data, decimal128.FromBigInt(a.Value(i).BigInt()))
				}
			}
		}
		return vec.NewDecimal128(typ, data), nil
	default:
		data := make([]decimal256.Num, 0, totalLen(chunks))
		for _, chunk := range chunks {
			a := chunk.(*array.Decimal256)
			for i := 0; i < a.Len(); i++ {
				if a.IsNull(i) {
					data = append(data, decimal256.Num{})
				} else {
					data = append(data, decimal256.Num(a.Value(i)))
				}
			}
		}
		return vec.NewDecimal256(typ, data), nil
	}
}

// nullBytemap translates arrow validity bitmaps into the engine's one byte
// per row null map, 1 marking NULL.
func nullBytemap(chunks []arrow.Array) []uint8 {
	m := make([]uint8, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				m = append(m, 1)
			} else {
				m = append(m, 0)
			}
		}
	}
	return m
}

func totalLen(chunks []arrow.Array) int {
	n := 0
	for _, chunk := range chunks {
		n += chunk.Len()
	}
	return n
}
