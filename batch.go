package mathldbt

import "github.com/mathilde-trade/mathldbt/errs"

// ColumnData holds one column's owned values. Exactly one of the value
// fields is populated, selected by Type:
//
//	Bool                 -> BoolValues (one byte per row, 0 or 1)
//	I16                  -> I16Values
//	I32                  -> I32Values
//	I64                  -> I64Values
//	F32                  -> F32Bits (raw IEEE-754 bit patterns, not host floats)
//	F64                  -> F64Bits (raw IEEE-754 bit patterns, not host floats)
//	Uuid                 -> UuidValues (16 bytes per row)
//	TimestampTzMicros    -> TimestampMicros
//	Utf8, Bytes, JsonbText -> Offsets + Data
//
// F32/F64 are carried as raw bit patterns rather than host float64/float32
// so that NaN payloads round-trip bit-for-bit instead of being normalized
// by the host FPU.
type ColumnData struct {
	Type ColumnType

	Validity ValidityBitmap

	BoolValues      []byte
	I16Values       []int16
	I32Values       []int32
	I64Values       []int64
	F32Bits         []uint32
	F64Bits         []uint64
	UuidValues      [][16]byte
	TimestampMicros []int64

	// Offsets and Data back Utf8, Bytes, and JsonbText columns. Offsets has
	// rowCount+1 entries; row i occupies Data[Offsets[i]:Offsets[i+1]].
	Offsets []uint32
	Data    []byte
}

// NewAllInvalidColumn builds a column of the given type with rowCount rows,
// all marked invalid and holding zero values (empty strings/bytes for
// variable-length types).
func NewAllInvalidColumn(ty ColumnType, rowCount int) (ColumnData, error) {
	validity, err := NewAllInvalidBitmap(rowCount)
	if err != nil {
		return ColumnData{}, err
	}
	col := ColumnData{Type: ty, Validity: validity}
	switch {
	case ty.IsVariableLength():
		col.Offsets = make([]uint32, rowCount+1)
	case ty == Bool:
		col.BoolValues = make([]byte, rowCount)
	case ty == I16:
		col.I16Values = make([]int16, rowCount)
	case ty == I32:
		col.I32Values = make([]int32, rowCount)
	case ty == I64:
		col.I64Values = make([]int64, rowCount)
	case ty == F32:
		col.F32Bits = make([]uint32, rowCount)
	case ty == F64:
		col.F64Bits = make([]uint64, rowCount)
	case ty == Uuid:
		col.UuidValues = make([][16]byte, rowCount)
	case ty == TimestampTzMicros:
		col.TimestampMicros = make([]int64, rowCount)
	default:
		return ColumnData{}, errs.ErrInvalidFixedType
	}
	return col, nil
}

func (c *ColumnData) fixedLen() (int, bool) {
	switch c.Type {
	case Bool:
		return len(c.BoolValues), true
	case I16:
		return len(c.I16Values), true
	case I32:
		return len(c.I32Values), true
	case I64:
		return len(c.I64Values), true
	case F32:
		return len(c.F32Bits), true
	case F64:
		return len(c.F64Bits), true
	case Uuid:
		return len(c.UuidValues), true
	case TimestampTzMicros:
		return len(c.TimestampMicros), true
	default:
		return 0, false
	}
}

// ValidateForRowCount checks c's invariants against an expected row count:
// validity length, values/offsets length, and (for variable-length
// columns) offsets[0]==0, non-decreasing offsets, and a final offset that
// matches len(Data).
func (c *ColumnData) ValidateForRowCount(rowCount int) error {
	expectedValidity, err := ceilDiv8(rowCount)
	if err != nil {
		return err
	}
	if len(c.Validity.Bytes) != expectedValidity {
		return errs.ErrValidityLengthMismatch
	}

	if n, ok := c.fixedLen(); ok {
		if n != rowCount {
			return errs.ErrValuesLengthMismatch
		}
		return nil
	}

	if len(c.Data) > int(^uint32(0)) {
		return errs.ErrDataTooLarge
	}
	if rowCount > int(^uint32(0))-1 {
		return errs.ErrRowCountTooLarge
	}
	if len(c.Offsets) != rowCount+1 {
		return errs.ErrOffsetsLengthMismatch
	}
	if len(c.Offsets) > 0 && c.Offsets[0] != 0 {
		return errs.ErrOffsetsFirstNotZero
	}
	var prev uint32
	for _, o := range c.Offsets {
		if o < prev {
			return errs.ErrOffsetsNotNonDecreasing
		}
		prev = o
	}
	if int(prev) != len(c.Data) {
		return errs.ErrFinalOffsetMismatch
	}
	return nil
}

// Batch is a complete owned columnar record batch: a schema, a row count,
// and one ColumnData per field, positionally.
type Batch struct {
	Schema   Schema
	RowCount int
	Columns  []ColumnData
}

// NewBatch builds a Batch, requiring len(columns) == schema.Len().
func NewBatch(schema Schema, rowCount int, columns []ColumnData) (Batch, error) {
	b := Batch{Schema: schema, RowCount: rowCount, Columns: columns}
	if err := b.Validate(); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// Validate checks every column against RowCount and against its field's
// declared type.
func (b *Batch) Validate() error {
	fields := b.Schema.Fields()
	if len(fields) == 0 {
		return errs.ErrSchemaEmpty
	}
	if len(fields) != len(b.Columns) {
		return errs.ErrSchemaColumnsLenMismatch
	}
	for i := range fields {
		if fields[i].Type != b.Columns[i].Type {
			return errs.ErrColumnTypeMismatch
		}
		if err := b.Columns[i].ValidateForRowCount(b.RowCount); err != nil {
			return err
		}
	}
	return nil
}
