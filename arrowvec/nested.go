package arrowvec

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/borealdb/boreal/vec"
)

// listChunk is the common surface of *array.List and *array.Map used for
// offset and child extraction.
type listChunk interface {
	arrow.Array
	ListValues() arrow.Array
	Offsets() []int32
}

// listOffsets builds one monotonically increasing engine offsets column out
// of the per-chunk exchange offsets, shifting chunk i's offsets by the
// cumulative element count of chunks 0..i-1.
func listOffsets(chunks []arrow.Array) []uint64 {
	offsets := make([]uint64, 0, totalLen(chunks))
	var carry uint64
	for _, chunk := range chunks {
		lc := chunk.(listChunk)
		raw := lc.Offsets()
		if len(raw) == 0 {
			continue
		}
		base := uint64(raw[0])
		for _, off := range raw[1 : lc.Len()+1] {
			offsets = append(offsets, carry+uint64(off)-base)
		}
		carry += uint64(raw[lc.Len()]) - base
	}
	return offsets
}

// flattenedChild gathers every chunk's child value array so the nested field
// can be decoded over one logical array.
func flattenedChild(chunks []arrow.Array) []arrow.Array {
	children := make([]arrow.Array, 0, len(chunks))
	for _, chunk := range chunks {
		children = append(children, chunk.(listChunk).ListValues())
	}
	return children
}

func (d *decoder) readList(f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	lt := f.Type.(*arrow.ListType)
	elemField := lt.ElemField()
	elemField.Name = f.Name

	child, err := d.readColumn(elemField, flattenedChild(chunks))
	if err != nil {
		return nil, err
	}
	return vec.NewArray(listOffsets(chunks), child), nil
}

// readMap uses the list mechanics with the child fixed to the entries
// struct; the decoded key and value columns are pulled out of the struct and
// recombined with the offsets.
func (d *decoder) readMap(f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	mt := f.Type.(*arrow.MapType)
	entriesField := arrow.Field{Name: f.Name, Type: mt.ValueType()}

	child, err := d.readColumn(entriesField, flattenedChild(chunks))
	if err != nil {
		return nil, err
	}
	entries, ok := child.(*vec.TupleColumn)
	if !ok || entries.NumFields() != 2 {
		return nil, &StructuralError{Column: f.Name, Reason: "map entries did not decode to a key/value pair"}
	}
	return vec.NewMap(entries.FieldAt(0), entries.FieldAt(1), listOffsets(chunks)), nil
}

// readStruct gathers each declared child field across all chunks of the
// parent, decodes it recursively, and assembles the results in field
// declaration order. Every child must come out with the parent's row count.
func (d *decoder) readStruct(f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	st := f.Type.(*arrow.StructType)
	rows := totalLen(chunks)

	childChunks := make([][]arrow.Array, st.NumFields())
	for _, chunk := range chunks {
		sc := chunk.(*array.Struct)
		for i := range childChunks {
			childChunks[i] = append(childChunks[i], sc.Field(i))
		}
	}

	names := make([]string, st.NumFields())
	cols := make([]vec.Column, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		child := st.Field(i)
		col, err := d.readColumn(child, childChunks[i])
		if err != nil {
			return nil, err
		}
		if col.Len() != rows {
			return nil, &StructuralError{
				Column: f.Name,
				Reason: "struct child " + child.Name + " row count does not match its parent",
			}
		}
		names[i] = child.Name
		cols[i] = col
	}
	return vec.NewTuple(names, cols), nil
}

// readDictionary resolves the decoded dictionary values through the
// per-bridge cache so the (typically large) value payload is decoded once
// per column name, while the index arrays are decoded per chunk every time:
// indices differ between chunks even when the values are stable.
func (d *decoder) readDictionary(f arrow.Field, chunks []arrow.Array) (vec.Column, error) {
	values, ok := d.dicts[f.Name]
	if !ok {
		dictChunks := make([]arrow.Array, 0, len(chunks))
		for _, chunk := range chunks {
			dictChunks = append(dictChunks, chunk.(*array.Dictionary).Dictionary())
		}
		dt := f.Type.(*arrow.DictionaryType)
		valueField := arrow.Field{Name: "dict", Type: dt.ValueType}

		col, err := d.readColumn(valueField, dictChunks)
		if err != nil {
			return nil, err
		}
		d.dicts[f.Name] = col
		if d.onDictionaryDecode != nil {
			d.onDictionaryDecode()
		}
		values = col
	}

	indexChunks := make([]arrow.Array, 0, len(chunks))
	for _, chunk := range chunks {
		indexChunks = append(indexChunks, chunk.(*array.Dictionary).Indices())
	}
	indices, err := decodeIndices(f.Name, indexChunks)
	if err != nil {
		return nil, err
	}
	return vec.NewLowCardinality(values, indices), nil
}

// decodeIndices decodes a dictionary index array into the smallest unsigned
// engine integer of the same width: indices are never negative in valid
// input, whatever the exchange side's signedness.
func decodeIndices(name string, chunks []arrow.Array) (vec.Column, error) {
	if len(chunks) == 0 {
		return vec.NewNumeric(vec.UInt8(), []uint8{}), nil
	}
	switch chunks[0].DataType().ID() {
	case arrow.UINT8:
		return copyIndices(chunks, vec.UInt8(), func(a arrow.Array) []uint8 {
			return a.(*array.Uint8).Uint8Values()
		}), nil
	case arrow.INT8:
		return convertIndices(chunks, vec.UInt8(), func(a arrow.Array, i int) uint8 {
			return uint8(a.(*array.Int8).Value(i))
		}), nil
	case arrow.UINT16:
		return copyIndices(chunks, vec.UInt16(), func(a arrow.Array) []uint16 {
			return a.(*array.Uint16).Uint16Values()
		}), nil
	case arrow.INT16:
		return convertIndices(chunks, vec.UInt16(), func(a arrow.Array, i int) uint16 {
			return uint16(a.(*array.Int16).Value(i))
		}), nil
	case arrow.UINT32:
		return copyIndices(chunks, vec.UInt32(), func(a arrow.Array) []uint32 {
			return a.(*array.Uint32).Uint32Values()
		}), nil
	case arrow.INT32:
		return convertIndices(chunks, vec.UInt32(), func(a arrow.Array, i int) uint32 {
			return uint32(a.(*array.Int32).Value(i))
		}), nil
	case arrow.UINT64:
		return copyIndices(chunks, vec.UInt64(), func(a arrow.Array) []uint64 {
			return a.(*array.Uint64).Uint64Values()
		}), nil
	case arrow.INT64:
		return convertIndices(chunks, vec.UInt64(), func(a arrow.Array, i int) uint64 {
			return uint64(a.(*array.Int64).Value(i))
		}), nil
	default:
		return nil, &TypeError{Column: name, ArrowType: chunks[0].DataType()}
	}
}

func copyIndices[T vec.NumericValue](chunks []arrow.Array, typ vec.Type, values func(arrow.Array) []T) vec.Column {
	data := make([]T, 0, totalLen(chunks))
	for _, chunk := range chunks {
		if chunk.Len() == 0 {
			continue
		}
		data = append(data, values(chunk)...)
	}
	return vec.NewNumeric(typ, data)
}

func convertIndices[T vec.NumericValue](chunks []arrow.Array, typ vec.Type, value func(arrow.Array, int) T) vec.Column {
	data := make([]T, 0, totalLen(chunks))
	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			data = append(data, value(chunk, i))
		}
	}
	return vec.NewNumeric(typ, data)
}
