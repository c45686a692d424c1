package arrowvec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Every error below aborts the whole batch conversion: columnar alignment
// across output columns is incompatible with skipping a failed column, so
// there is no recover-and-continue mode.

// TypeError reports an arrow type the bridge cannot decode.
type TypeError struct {
	Column    string
	ArrowType arrow.DataType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unsupported arrow type %s of input column %q", e.ArrowType, e.Column)
}

// RangeError reports a decoded value that exceeds the target representation.
type RangeError struct {
	Column string
	Value  int64
	Limit  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("input value %d of column %q is greater than the max allowed value %d", e.Value, e.Column, e.Limit)
}

// StructuralError reports malformed column structure: duplicate source
// columns, row-count mismatches between struct children, or a map child that
// does not resolve to a key/value pair.
type StructuralError struct {
	Column string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Column == "" {
		return e.Reason
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// MissingColumnError reports a requested column absent from the input. Only
// raised when missing columns are not allowed; otherwise the column is
// backfilled.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q is not present in input data", e.Column)
}

// CastError wraps a cast failure with the conversion context.
type CastError struct {
	Column string
	From   string
	To     string
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("converting column %q from type %s to type %s: %v", e.Column, e.From, e.To, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }
