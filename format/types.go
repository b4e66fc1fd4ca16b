// Package format enumerates the closed set of column types carried by a
// MATHLDBT v1 frame. The numeric ids are part of the wire contract and must
// never be renumbered.
package format

// ColumnType identifies the logical type of a column. Ids are stable across
// the wire and are never reused for a different meaning.
type ColumnType uint8

const (
	Bool              ColumnType = 1
	I16               ColumnType = 2
	I32               ColumnType = 3
	I64               ColumnType = 4
	F32               ColumnType = 5
	F64               ColumnType = 6
	Uuid              ColumnType = 7
	TimestampTzMicros ColumnType = 8
	Utf8              ColumnType = 9
	Bytes             ColumnType = 10
	JsonbText         ColumnType = 11
)

// String renders a ColumnType for diagnostics and error messages.
func (t ColumnType) String() string {
	switch t {
	case Bool:
		return "Bool"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case F32:
		return "F32"
	case F64:
		return "F64"
	case Uuid:
		return "Uuid"
	case TimestampTzMicros:
		return "TimestampTzMicros"
	case Utf8:
		return "Utf8"
	case Bytes:
		return "Bytes"
	case JsonbText:
		return "JsonbText"
	default:
		return "Unknown"
	}
}

// IsVariableLength reports whether the column's payload is (offsets, data)
// rather than a fixed-width values array.
func (t ColumnType) IsVariableLength() bool {
	return t == Utf8 || t == Bytes || t == JsonbText
}

// FixedElemSize returns the little-endian element width in bytes for a
// fixed-width column type. It panics for variable-length types — callers
// must branch on IsVariableLength first.
func (t ColumnType) FixedElemSize() int {
	switch t {
	case Bool:
		return 1
	case I16:
		return 2
	case I32:
		return 4
	case I64:
		return 8
	case F32:
		return 4
	case F64:
		return 8
	case Uuid:
		return 16
	case TimestampTzMicros:
		return 8
	default:
		panic("format: FixedElemSize called on variable-length type " + t.String())
	}
}

// FromID maps a wire type id back to a ColumnType. ok is false for any id
// outside the closed enum.
func FromID(id uint16) (ColumnType, bool) {
	switch id {
	case 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11:
		return ColumnType(id), true
	default:
		return 0, false
	}
}

// ID returns the wire type id for t.
func (t ColumnType) ID() uint16 {
	return uint16(t)
}
