// Package mathldbt implements the MATHLDBT v1 columnar batch format: an
// owned in-memory data model, a borrowed zero-copy view for the encoder
// fast path, and the wire codec that serializes a batch to and from bytes.
//
// The package is organized as:
//
//   - this package (schema.go, validity.go, batch.go): the owned data model
//   - [github.com/mathilde-trade/mathldbt/view]: the borrowed mirror used
//     by the encoder's fast path
//   - [github.com/mathilde-trade/mathldbt/wire]: magic bytes, varint and
//     zigzag helpers shared by the codec
//   - [github.com/mathilde-trade/mathldbt/codec]: the encoder and decoder
//   - [github.com/mathilde-trade/mathldbt/compress]: the outer
//     none/zstd/gzip transform
package mathldbt

import (
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/format"
)

// ColumnType is re-exported from format so callers building a Schema never
// need to import the format package directly.
type ColumnType = format.ColumnType

// The closed set of column types a MATHLDBT frame can carry.
const (
	Bool              = format.Bool
	I16               = format.I16
	I32               = format.I32
	I64               = format.I64
	F32               = format.F32
	F64               = format.F64
	Uuid              = format.Uuid
	TimestampTzMicros = format.TimestampTzMicros
	Utf8              = format.Utf8
	Bytes             = format.Bytes
	JsonbText         = format.JsonbText
)

// Field describes one column: its logical type and an optional name. A nil
// Name encodes as a zero-length name on the wire and round-trips back to
// nil, not "".
type Field struct {
	Name *string
	Type ColumnType
}

// NewField is a small convenience constructor for a named field.
func NewField(name string, ty ColumnType) Field {
	return Field{Name: &name, Type: ty}
}

// Schema is the ordered list of fields a Batch's columns must match,
// positionally, by type.
type Schema struct {
	fields []Field
}

// NewSchema builds a Schema from at least one field. Per spec.md's
// invariant, a schema with zero fields is rejected outright — there is no
// such thing as an empty MATHLDBT frame.
func NewSchema(fields ...Field) (Schema, error) {
	if len(fields) == 0 {
		return Schema{}, errs.ErrSchemaEmpty
	}
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return Schema{fields: cp}, nil
}

// Fields returns the schema's fields in order. Callers must not mutate the
// returned slice.
func (s Schema) Fields() []Field {
	return s.fields
}

// Len reports the number of fields in the schema.
func (s Schema) Len() int {
	return len(s.fields)
}
