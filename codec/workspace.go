// Package codec implements the MATHLDBT v1 wire encoder and decoder: the
// per-column adaptive encoding selection (plain, dictionary, delta-varint),
// frame assembly and parsing, and the allocating and in-place decode paths.
package codec

import (
	"github.com/mathilde-trade/mathldbt/internal/options"
	"github.com/mathilde-trade/mathldbt/internal/pool"
)

// EncodeWorkspace holds the scratch buffers and feature flags reused
// across repeated Encode calls, amortizing allocation for hot encode
// loops. Its only externally observable state is the two feature flags;
// everything else is an implementation detail that must never change the
// bytes produced for the same input and flags.
type EncodeWorkspace struct {
	enableDictUtf8       bool
	enableDeltaVarintI64 bool

	dictValues  [][]byte
	dictMap     map[uint64][]uint32 // xxhash(value) -> candidate indices into dictValues
	dictIndices []uint32

	dictIndicesBytes *pool.ByteBuffer
	dictOffsets      []uint32
	dictBlob         *pool.ByteBuffer

	viewVarCoalesce *pool.ByteBuffer
	deltaBuf        *pool.ByteBuffer
}

// EncodeOption configures an EncodeWorkspace at construction time.
type EncodeOption = options.Option[*EncodeWorkspace]

// WithDictUtf8 enables or disables dictionary encoding for Utf8/JsonbText
// columns. Disabled by default: NewEncodeWorkspace with no options never
// emits EncDictUtf8, matching a plain encoder.
func WithDictUtf8(enabled bool) EncodeOption {
	return options.NoError[*EncodeWorkspace](func(w *EncodeWorkspace) {
		w.enableDictUtf8 = enabled
	})
}

// WithDeltaVarintI64 enables or disables delta-varint encoding for I64 and
// TimestampTzMicros columns whose validity bitmap marks every row valid.
func WithDeltaVarintI64(enabled bool) EncodeOption {
	return options.NoError[*EncodeWorkspace](func(w *EncodeWorkspace) {
		w.enableDeltaVarintI64 = enabled
	})
}

// NewEncodeWorkspace builds an EncodeWorkspace with both adaptive
// encodings disabled unless opts says otherwise.
func NewEncodeWorkspace(opts ...EncodeOption) (*EncodeWorkspace, error) {
	w := &EncodeWorkspace{
		dictMap:          make(map[uint64][]uint32),
		dictIndicesBytes: pool.NewByteBuffer(pool.BlobBufferDefaultSize),
		dictBlob:         pool.NewByteBuffer(pool.BlobBufferDefaultSize),
		viewVarCoalesce:  pool.NewByteBuffer(pool.BlobBufferDefaultSize),
		deltaBuf:         pool.NewByteBuffer(pool.BlobBufferDefaultSize),
	}
	if err := options.Apply[*EncodeWorkspace](w, opts...); err != nil {
		return nil, err
	}
	return w, nil
}

// NewEncodeWorkspaceOpt is a convenience constructor matching the "fast
// path, fully adaptive" configuration: both dictionary and delta-varint
// encoding enabled.
func NewEncodeWorkspaceOpt() (*EncodeWorkspace, error) {
	return NewEncodeWorkspace(WithDictUtf8(true), WithDeltaVarintI64(true))
}

// Clone returns an independent copy of w: the feature flags and a fresh set
// of scratch buffers sized after w's current capacity, safe for concurrent use
// alongside the original from a separate goroutine.
func (w *EncodeWorkspace) Clone() *EncodeWorkspace {
	clone := &EncodeWorkspace{
		enableDictUtf8:       w.enableDictUtf8,
		enableDeltaVarintI64: w.enableDeltaVarintI64,
		dictMap:              make(map[uint64][]uint32, len(w.dictMap)),
		dictIndicesBytes:     pool.NewByteBuffer(w.dictIndicesBytes.Cap()),
		dictBlob:             pool.NewByteBuffer(w.dictBlob.Cap()),
		viewVarCoalesce:      pool.NewByteBuffer(w.viewVarCoalesce.Cap()),
		deltaBuf:             pool.NewByteBuffer(w.deltaBuf.Cap()),
	}
	for k, v := range w.dictMap {
		clone.dictMap[k] = append([]uint32(nil), v...)
	}
	clone.dictValues = append([][]byte(nil), w.dictValues...)
	clone.dictIndices = append([]uint32(nil), w.dictIndices...)
	clone.dictOffsets = append([]uint32(nil), w.dictOffsets...)
	return clone
}

// DecodeWorkspace holds the scratch buffer reused across repeated Decode
// calls for expanding dictionary-encoded columns.
type DecodeWorkspace struct {
	dictOffsets []uint32
}

// NewDecodeWorkspace builds an empty DecodeWorkspace.
func NewDecodeWorkspace() *DecodeWorkspace {
	return &DecodeWorkspace{}
}

// Clone returns an independent copy of w, safe for concurrent use alongside
// the original from a separate goroutine.
func (w *DecodeWorkspace) Clone() *DecodeWorkspace {
	return &DecodeWorkspace{
		dictOffsets: append([]uint32(nil), w.dictOffsets...),
	}
}
