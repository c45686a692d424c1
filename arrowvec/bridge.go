// Package arrowvec converts arrow-encoded exchange data into the engine's
// native columnar blocks. A Bridge is built once per stream against the
// schema the engine expects and fed arrow tables one at a time; it reconciles
// the requested columns against what each table actually carries, decodes,
// casts and backfills as needed, and reports anything irreconcilable as a
// typed error.
package arrowvec

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/borealdb/boreal/vec"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithNestedTables resolves requested dotted column names against struct
// columns of the input: a request for "t.x" is served from field x of a
// top-level column t when no column literally named "t.x" exists.
func WithNestedTables() Option {
	return func(b *Bridge) { b.nestedTables = true }
}

// WithAllowMissingColumns backfills requested columns absent from the input
// with default values instead of failing the conversion.
func WithAllowMissingColumns() Option {
	return func(b *Bridge) { b.allowMissing = true }
}

// Bridge converts arrow tables into engine blocks matching a fixed target
// schema. It keeps per-stream decode state (the dictionary cache), so one
// Bridge serves one logical stream and is not safe for concurrent use.
type Bridge struct {
	header       vec.Schema
	nestedTables bool
	allowMissing bool

	logger  log.Logger
	metrics *metrics
	dec     *decoder
}

func New(header vec.Schema, logger log.Logger, reg prometheus.Registerer, options ...Option) *Bridge {
	b := &Bridge{
		header:  header,
		logger:  logger,
		metrics: newMetrics(reg),
		dec:     newDecoder(true),
	}
	for _, option := range options {
		option(b)
	}
	b.dec.onDictionaryDecode = b.metrics.dictionaryDecodes.Inc
	return b
}

// Convert decodes one arrow table into a block with exactly the Bridge's
// target schema, in target column order. Input column order is irrelevant;
// extra input columns are ignored. Any failure aborts the whole table.
func (b *Bridge) Convert(tbl arrow.Table) (*vec.Block, error) {
	start := time.Now()

	schema := tbl.Schema()
	if schema.NumFields() == 0 {
		return nil, &StructuralError{Reason: "input table has no columns"}
	}
	byName := make(map[string]int, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		name := schema.Field(i).Name
		if _, ok := byName[name]; ok {
			return nil, &StructuralError{Column: name, Reason: "duplicated in input data"}
		}
		byName[name] = i
	}

	rows := int(tbl.NumRows())
	// Nested table columns are decoded at most once per call even when many
	// requested columns point into the same one.
	nested := map[string]vec.Column{}

	cols := make([]vec.Column, len(b.header))
	for i, want := range b.header {
		col, err := b.resolveColumn(tbl, byName, nested, want, rows)
		if err != nil {
			return nil, err
		}
		if !col.Type().Equal(want.Type) {
			cast, err := vec.Cast(col, want.Type)
			if err != nil {
				return nil, &CastError{
					Column: want.Name,
					From:   col.Type().String(),
					To:     want.Type.String(),
					Err:    err,
				}
			}
			col = cast
		}
		if col.Len() != rows {
			return nil, &StructuralError{
				Column: want.Name,
				Reason: fmt.Sprintf("decoded %d rows, table has %d", col.Len(), rows),
			}
		}
		cols[i] = col
	}

	b.metrics.batchesConverted.Inc()
	b.metrics.rowsConverted.Add(float64(rows))
	b.metrics.convertDuration.Observe(time.Since(start).Seconds())
	level.Debug(b.logger).Log(
		"msg", "converted batch",
		"rows", rows,
		"columns", len(cols),
		"duration", time.Since(start),
	)
	return vec.NewBlock(b.header, cols, rows), nil
}

func (b *Bridge) resolveColumn(
	tbl arrow.Table,
	byName map[string]int,
	nested map[string]vec.Column,
	want vec.Field,
	rows int,
) (vec.Column, error) {
	if idx, ok := byName[want.Name]; ok {
		return b.dec.readColumn(tbl.Schema().Field(idx), tbl.Column(idx).Data().Chunks())
	}

	if b.nestedTables {
		if table, ok := nestedTableName(want.Name); ok {
			if idx, found := byName[table]; found {
				col, ok := nested[table]
				if !ok {
					decoded, err := b.dec.readColumn(tbl.Schema().Field(idx), tbl.Column(idx).Data().Chunks())
					if err != nil {
						return nil, err
					}
					nested[table] = decoded
					col = decoded
				}
				if sub, ok := extractNested(col, want.Name[len(table)+len(nestedSeparator):]); ok {
					return sub, nil
				}
			}
		}
	}

	if !b.allowMissing {
		return nil, &MissingColumnError{Column: want.Name}
	}
	b.metrics.columnsBackfilled.Inc()
	level.Debug(b.logger).Log("msg", "backfilling missing column", "column", want.Name, "type", want.Type)
	return vec.NewDefault(want.Type, rows), nil
}

// MissingColumns reports the target column indices an input with the given
// schema could not serve, directly or through nested table resolution. It
// decodes no data; callers use it to decide between failing early and
// accepting backfill.
func (b *Bridge) MissingColumns(schema *arrow.Schema) ([]int, error) {
	available, err := SchemaHeader(schema)
	if err != nil {
		return nil, err
	}

	var missing []int
	for i, want := range b.header {
		if available.FieldIndex(want.Name) >= 0 {
			continue
		}
		if b.nestedTables {
			if table, ok := nestedTableName(want.Name); ok {
				if idx := available.FieldIndex(table); idx >= 0 {
					if _, ok := extractNestedType(available[idx].Type, want.Name[len(table)+len(nestedSeparator):]); ok {
						continue
					}
				}
			}
		}
		missing = append(missing, i)
	}
	return missing, nil
}

// SchemaHeader computes the engine schema an arrow schema decodes to, by
// decoding a zero-row column of every field. Unlike data conversion it keeps
// UInt16 and UInt32 as plain integers: with no values to inspect there is no
// evidence they encode dates.
func SchemaHeader(schema *arrow.Schema) (vec.Schema, error) {
	dec := newDecoder(false)
	header := make(vec.Schema, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)

		bld := array.NewBuilder(memory.DefaultAllocator, f.Type)
		arr := bld.NewArray()
		col, err := dec.readColumn(f, []arrow.Array{arr})
		arr.Release()
		bld.Release()
		if err != nil {
			return nil, err
		}
		header[i] = vec.Field{Name: f.Name, Type: col.Type()}
	}
	return header, nil
}
