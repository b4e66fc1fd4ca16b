// Package view provides a borrowed, possibly-chunked mirror of the owned
// mathldbt.Batch, used by the encoder's zero-copy fast path.
//
// Go has no borrow checker: the caller is responsible for keeping every
// slice referenced by a BatchView alive and unmodified for the duration of
// a single Encode call. Nothing in this package copies data; that is the
// entire point of the fast path.
package view

import (
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/format"
)

// VarKind distinguishes the two shapes variable-length column data can
// take in a view.
type VarKind uint8

const (
	// Contiguous means Data is one unbroken byte slice, addressed directly
	// by Offsets — the common case, and the only shape a ColumnData ever
	// produces.
	Contiguous VarKind = iota
	// Chunks means the row data lives in Inline followed by an ordered
	// sequence of Chunks slices, as when rows were appended into a ring
	// buffer that has wrapped. Offsets still address the logical
	// concatenation of Inline and Chunks, not any single slice.
	Chunks
)

// VarData is the variable-length payload for one Utf8/Bytes/JsonbText
// column view.
type VarData struct {
	Kind    VarKind
	Data    []byte   // valid when Kind == Contiguous
	Inline  []byte   // valid when Kind == Chunks
	Chunks  [][]byte // valid when Kind == Chunks
}

// Len returns the total byte length of the logical concatenation,
// overflow-checked since it sums arbitrarily many chunks.
func (v VarData) Len() (int, error) {
	if v.Kind == Contiguous {
		return len(v.Data), nil
	}
	total := len(v.Inline)
	for _, c := range v.Chunks {
		next := total + len(c)
		if next < total {
			return 0, errs.ErrSizeOverflow
		}
		total = next
	}
	return total, nil
}

// ColumnView is the borrowed mirror of mathldbt.ColumnData. Exactly one of
// the value fields is populated, selected by Type, matching ColumnData's
// layout convention.
type ColumnView struct {
	Type format.ColumnType

	Validity []byte

	BoolValues      []byte
	I16Values       []int16
	I32Values       []int32
	I64Values       []int64
	F32Bits         []uint32
	F64Bits         []uint64
	UuidValues      [][16]byte
	TimestampMicros []int64

	Offsets []uint32
	Var     VarData
}

// BatchView is the borrowed mirror of mathldbt.Batch.
type BatchView struct {
	Fields   []Field
	RowCount int
	Columns  []ColumnView
}

// Field mirrors mathldbt.Field without importing the root package, keeping
// view dependency-free of the owned model.
type Field struct {
	Name *string
	Type format.ColumnType
}

func ceilDiv8(n int) (int, error) {
	if n < 0 || n > (1<<62) {
		return 0, errs.ErrSizeOverflow
	}
	return (n + 7) / 8, nil
}

func (c *ColumnView) fixedLen() (int, bool) {
	switch c.Type {
	case format.Bool:
		return len(c.BoolValues), true
	case format.I16:
		return len(c.I16Values), true
	case format.I32:
		return len(c.I32Values), true
	case format.I64:
		return len(c.I64Values), true
	case format.F32:
		return len(c.F32Bits), true
	case format.F64:
		return len(c.F64Bits), true
	case format.Uuid:
		return len(c.UuidValues), true
	case format.TimestampTzMicros:
		return len(c.TimestampMicros), true
	default:
		return 0, false
	}
}

// Validate checks v's invariants: schema/column length match, and every
// column's validity/values/offsets length against RowCount.
func (v *BatchView) Validate() error {
	if len(v.Fields) == 0 {
		return errs.ErrSchemaEmpty
	}
	if len(v.Fields) != len(v.Columns) {
		return errs.ErrSchemaColumnsLenMismatch
	}
	expectedValidity, err := ceilDiv8(v.RowCount)
	if err != nil {
		return err
	}
	for i := range v.Fields {
		col := &v.Columns[i]
		if v.Fields[i].Type != col.Type {
			return errs.ErrColumnTypeMismatch
		}
		if len(col.Validity) != expectedValidity {
			return errs.ErrValidityLengthMismatch
		}
		if n, ok := col.fixedLen(); ok {
			if n != v.RowCount {
				return errs.ErrValuesLengthMismatch
			}
			continue
		}
		if len(col.Offsets) != v.RowCount+1 {
			return errs.ErrOffsetsLengthMismatch
		}
		if len(col.Offsets) > 0 && col.Offsets[0] != 0 {
			return errs.ErrOffsetsFirstNotZero
		}
		var prev uint32
		for _, o := range col.Offsets {
			if o < prev {
				return errs.ErrOffsetsNotNonDecreasing
			}
			prev = o
		}
		dataLen, err := col.Var.Len()
		if err != nil {
			return err
		}
		if int(prev) != dataLen {
			return errs.ErrFinalOffsetMismatch
		}
	}
	return nil
}
