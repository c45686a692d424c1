// Package shuffle reads a stream of arrow IPC record batches, converts each
// one to an engine block, and coalesces small blocks into larger ones so
// downstream operators see fewer, fuller batches.
package shuffle

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/klauspost/compress/zstd"

	"github.com/borealdb/boreal/arrowvec"
	"github.com/borealdb/boreal/vec"
)

// Option configures a Reader.
type Option func(*Reader)

// WithCompression wraps the input in a zstd decompressor before IPC framing.
func WithCompression() Option {
	return func(r *Reader) { r.compressed = true }
}

// WithMaxReadRows sets the row threshold at which an accumulated block is
// emitted. Zero or negative disables row-based coalescing.
func WithMaxReadRows(rows int64) Option {
	return func(r *Reader) { r.maxRows = rows }
}

// WithMaxReadBytes sets the payload size threshold at which an accumulated
// block is emitted. Zero or negative disables size-based coalescing.
func WithMaxReadBytes(bytes int64) Option {
	return func(r *Reader) { r.maxBytes = bytes }
}

// Reader converts an arrow IPC stream into engine blocks. When coalescing
// thresholds are set, consecutive converted blocks are concatenated until one
// threshold is crossed; without thresholds every input batch maps to one
// output block. Not safe for concurrent use.
type Reader struct {
	bridge *arrowvec.Bridge

	compressed bool
	maxRows    int64
	maxBytes   int64

	ipc  *ipc.Reader
	zstd *zstd.Decoder

	// pending carries blocks accumulated toward the next emission.
	pending     []*vec.Block
	pendingRows int64
	pendingSize int64
	done        bool
}

func NewReader(r io.Reader, bridge *arrowvec.Bridge, options ...Option) (*Reader, error) {
	sr := &Reader{bridge: bridge}
	for _, option := range options {
		option(sr)
	}

	if sr.compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		sr.zstd = dec
		r = dec
	}

	ir, err := ipc.NewReader(r)
	if err != nil {
		if sr.zstd != nil {
			sr.zstd.Close()
		}
		return nil, err
	}
	sr.ipc = ir
	return sr, nil
}

// Read returns the next coalesced block, or io.EOF once the stream is
// exhausted and all pending data has been emitted.
func (r *Reader) Read() (*vec.Block, error) {
	coalesce := r.maxRows > 0 || r.maxBytes > 0

	for !r.done && r.ipc.Next() {
		rec := r.ipc.Record()
		tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
		block, err := r.bridge.Convert(tbl)
		tbl.Release()
		if err != nil {
			return nil, err
		}

		if !coalesce {
			return block, nil
		}
		r.pending = append(r.pending, block)
		r.pendingRows += int64(block.Rows)
		r.pendingSize += block.Size()
		if (r.maxRows > 0 && r.pendingRows >= r.maxRows) ||
			(r.maxBytes > 0 && r.pendingSize >= r.maxBytes) {
			return r.flush()
		}
	}

	if !r.done {
		r.done = true
		if err := r.ipc.Err(); err != nil {
			return nil, err
		}
	}
	if len(r.pending) > 0 {
		return r.flush()
	}
	return nil, io.EOF
}

func (r *Reader) flush() (*vec.Block, error) {
	block, err := vec.Concat(r.pending)
	if err != nil {
		return nil, err
	}
	r.pending = r.pending[:0]
	r.pendingRows = 0
	r.pendingSize = 0
	return block, nil
}

func (r *Reader) Close() error {
	r.ipc.Release()
	if r.zstd != nil {
		r.zstd.Close()
	}
	return nil
}
