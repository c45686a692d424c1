package arrowvec

import (
	"strings"

	"github.com/borealdb/boreal/vec"
)

// nestedSeparator splits a requested column name into the nested table name
// and the path of tuple fields inside it.
const nestedSeparator = "."

// nestedTableName returns the component before the first separator, the name
// of the top-level input column holding the nested table.
func nestedTableName(name string) (string, bool) {
	table, _, ok := strings.Cut(name, nestedSeparator)
	return table, ok
}

// extractNested resolves a dotted field path against a decoded nested table
// column. Tuples resolve one path component per level; an array of tuples
// resolves against its element and keeps the array offsets, so extracting
// "t.x" from an Array(Tuple(x, y)) yields Array(typeof x) with identical
// shape. Nullable wrappers are carried through unchanged.
func extractNested(col vec.Column, path string) (vec.Column, bool) {
	first, rest, deeper := strings.Cut(path, nestedSeparator)

	switch c := col.(type) {
	case *vec.NullableColumn:
		inner, ok := extractNested(c.Inner(), path)
		if !ok {
			return nil, false
		}
		return vec.NewNullable(inner, c.Nulls()), true
	case *vec.ArrayColumn:
		child, ok := extractNested(c.Child(), path)
		if !ok {
			return nil, false
		}
		return vec.NewArray(c.Offsets(), child), true
	case *vec.TupleColumn:
		field, ok := c.Field(first)
		if !ok {
			return nil, false
		}
		if !deeper {
			return field, true
		}
		return extractNested(field, rest)
	default:
		return nil, false
	}
}

// extractNestedType is the type-level twin of extractNested, used to answer
// schema questions without decoding any data.
func extractNestedType(t vec.Type, path string) (vec.Type, bool) {
	first, rest, deeper := strings.Cut(path, nestedSeparator)

	switch t.Kind {
	case vec.KindNullable:
		inner, ok := extractNestedType(*t.Elem, path)
		if !ok {
			return vec.Type{}, false
		}
		return vec.NullableOf(inner), true
	case vec.KindArray:
		elem, ok := extractNestedType(*t.Elem, path)
		if !ok {
			return vec.Type{}, false
		}
		return vec.ArrayOf(elem), true
	case vec.KindTuple:
		for _, f := range t.Fields {
			if f.Name != first {
				continue
			}
			if !deeper {
				return f.Type, true
			}
			return extractNestedType(f.Type, rest)
		}
		return vec.Type{}, false
	default:
		return vec.Type{}, false
	}
}
