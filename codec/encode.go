package codec

import (
	"github.com/mathilde-trade/mathldbt"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/format"
	"github.com/mathilde-trade/mathldbt/view"
	"github.com/mathilde-trade/mathldbt/wire"
)

// Encode serializes batch into a new MATHLDBT v1 frame using a fresh,
// default-configured workspace. For repeated encoding, build an
// EncodeWorkspace once with [NewEncodeWorkspace] and call [EncodeInto].
func Encode(batch *mathldbt.Batch) ([]byte, error) {
	ws, err := NewEncodeWorkspace()
	if err != nil {
		return nil, err
	}
	return EncodeInto(batch, nil, ws)
}

// EncodeInto writes batch's MATHLDBT v1 encoding into out's backing array
// (out may be nil), discarding any bytes out already held, and returns the
// result. It is the allocation-amortized form of Encode: callers that
// encode many batches should reuse both out's backing array and ws across
// calls.
func EncodeInto(batch *mathldbt.Batch, out []byte, ws *EncodeWorkspace) ([]byte, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	out = out[:0]

	out = append(out, wire.Magic[:]...)
	out = wire.PutU16(out, wire.Version)
	out = wire.PutU16(out, 0) // flags

	if batch.RowCount < 0 || batch.RowCount > int(^uint32(0)) {
		return nil, errs.ErrRowCountTooLarge
	}
	out = wire.PutU32(out, uint32(batch.RowCount))

	fields := batch.Schema.Fields()
	if len(fields) == 0 {
		return nil, errs.ErrNoColumns
	}
	if len(fields) > int(^uint16(0)) {
		return nil, errs.New("col_count too large")
	}
	out = wire.PutU16(out, uint16(len(fields)))
	out = wire.PutU16(out, 0) // schema_id_len (v1: none)

	expectedValidity, err := mathldbt.LenForRowCount(batch.RowCount)
	if err != nil {
		return nil, err
	}

	for i := range fields {
		field := fields[i]
		col := &batch.Columns[i]

		out = wire.PutU16(out, field.Type.ID())

		var nameBytes []byte
		if field.Name != nil {
			nameBytes = []byte(*field.Name)
		}

		validity := col.Validity.Bytes
		if len(validity) != expectedValidity {
			return nil, errs.ErrValidityLengthMismatch
		}

		var dictIdxBytes, dictBlob []byte
		var hasDict bool
		var deltaPayload []byte
		var hasDelta bool

		encodingID := wire.EncPlain
		switch {
		case field.Type.IsVariableLength() && ws.enableDictUtf8 &&
			(field.Type == format.Utf8 || field.Type == format.JsonbText):
			idxB, blob, ok, derr := buildDictUTF8Payload(ws, validity, batch.RowCount, col.Offsets, col.Data)
			if derr != nil {
				return nil, derr
			}
			if ok {
				dictIdxBytes, dictBlob, hasDict = idxB, blob, true
				encodingID = wire.EncDictUtf8
			}
		case field.Type == format.I64 && ws.enableDeltaVarintI64 && mathldbt.AllValid(validity, batch.RowCount):
			if payload, ok := buildDeltaVarintI64Payload(ws, col.I64Values); ok {
				deltaPayload, hasDelta = payload, true
				encodingID = wire.EncDeltaVarintI64
			}
		case field.Type == format.TimestampTzMicros && ws.enableDeltaVarintI64 && mathldbt.AllValid(validity, batch.RowCount):
			if payload, ok := buildDeltaVarintI64Payload(ws, col.TimestampMicros); ok {
				deltaPayload, hasDelta = payload, true
				encodingID = wire.EncDeltaVarintI64
			}
		}

		out = wire.PutU16(out, encodingID)
		out = wire.PutU16(out, 0) // col_flags
		out, err = wire.PutU16LenBytes(out, nameBytes)
		if err != nil {
			return nil, err
		}
		out, err = wire.PutU32LenBytes(out, validity)
		if err != nil {
			return nil, err
		}

		switch field.Type {
		case format.Bool:
			if len(col.BoolValues) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if out, err = wire.PutU32LenBytes(out, col.BoolValues); err != nil {
				return nil, err
			}
			out = wire.PutU32(out, 0)
		case format.I16:
			if len(col.I16Values) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(batch.RowCount*2))
			for _, v := range col.I16Values {
				out = append(out, byte(v), byte(v>>8))
			}
			out = wire.PutU32(out, 0)
		case format.I32:
			if len(col.I32Values) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(batch.RowCount*4))
			for _, v := range col.I32Values {
				out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
			}
			out = wire.PutU32(out, 0)
		case format.I64:
			if len(col.I64Values) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if hasDelta && encodingID == wire.EncDeltaVarintI64 {
				if out, err = wire.PutU32LenBytes(out, deltaPayload); err != nil {
					return nil, err
				}
				out = wire.PutU32(out, 0)
			} else {
				out = wire.PutU32(out, uint32(batch.RowCount*8))
				for _, v := range col.I64Values {
					out = wire.PutU64(out, uint64(v))
				}
				out = wire.PutU32(out, 0)
			}
		case format.F32:
			if len(col.F32Bits) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(batch.RowCount*4))
			for _, v := range col.F32Bits {
				out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
			}
			out = wire.PutU32(out, 0)
		case format.F64:
			if len(col.F64Bits) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(batch.RowCount*8))
			for _, v := range col.F64Bits {
				out = wire.PutU64(out, v)
			}
			out = wire.PutU32(out, 0)
		case format.Uuid:
			if len(col.UuidValues) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(batch.RowCount*16))
			for _, v := range col.UuidValues {
				out = append(out, v[:]...)
			}
			out = wire.PutU32(out, 0)
		case format.TimestampTzMicros:
			if len(col.TimestampMicros) != batch.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if hasDelta && encodingID == wire.EncDeltaVarintI64 {
				if out, err = wire.PutU32LenBytes(out, deltaPayload); err != nil {
					return nil, err
				}
				out = wire.PutU32(out, 0)
			} else {
				out = wire.PutU32(out, uint32(batch.RowCount*8))
				for _, v := range col.TimestampMicros {
					out = wire.PutU64(out, uint64(v))
				}
				out = wire.PutU32(out, 0)
			}
		case format.Utf8, format.Bytes, format.JsonbText:
			switch encodingID {
			case wire.EncPlain:
				if len(col.Offsets) != batch.RowCount+1 {
					return nil, errs.ErrOffsetsLengthMismatch
				}
				out = wire.PutU32(out, uint32(len(col.Offsets)*4))
				for _, o := range col.Offsets {
					out = wire.PutU32(out, o)
				}
				if out, err = wire.PutU32LenBytes(out, col.Data); err != nil {
					return nil, err
				}
			case wire.EncDictUtf8:
				if !hasDict {
					return nil, errs.New("missing dict payload")
				}
				if out, err = wire.PutU32LenBytes(out, dictIdxBytes); err != nil {
					return nil, err
				}
				if out, err = wire.PutU32LenBytes(out, dictBlob); err != nil {
					return nil, err
				}
			default:
				return nil, errs.ErrInvalidVarlenEncoding
			}
		default:
			return nil, errs.ErrInvalidFixedType
		}
	}

	return out, nil
}

// EncodeFastPath serializes a borrowed view.BatchView without coalescing
// or copying fixed-width columns. Variable-length columns backed by
// view.Chunks are coalesced into ws's scratch buffer only when dictionary
// encoding is attempted for them; plain encoding writes chunks straight
// through.
func EncodeFastPath(v *view.BatchView, ws *EncodeWorkspace) ([]byte, error) {
	return EncodeFastPathInto(v, nil, ws)
}

// EncodeFastPathInto is the allocation-amortized form of EncodeFastPath.
func EncodeFastPathInto(v *view.BatchView, out []byte, ws *EncodeWorkspace) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out = out[:0]

	out = append(out, wire.Magic[:]...)
	out = wire.PutU16(out, wire.Version)
	out = wire.PutU16(out, 0)

	if v.RowCount < 0 || v.RowCount > int(^uint32(0)) {
		return nil, errs.ErrRowCountTooLarge
	}
	out = wire.PutU32(out, uint32(v.RowCount))

	if len(v.Fields) == 0 {
		return nil, errs.ErrNoColumns
	}
	if len(v.Fields) > int(^uint16(0)) {
		return nil, errs.New("col_count too large")
	}
	out = wire.PutU16(out, uint16(len(v.Fields)))
	out = wire.PutU16(out, 0)

	expectedValidity, err := mathldbt.LenForRowCount(v.RowCount)
	if err != nil {
		return nil, err
	}

	for i := range v.Fields {
		field := v.Fields[i]
		col := &v.Columns[i]

		out = wire.PutU16(out, field.Type.ID())

		var nameBytes []byte
		if field.Name != nil {
			nameBytes = []byte(*field.Name)
		}

		validity := col.Validity
		if len(validity) != expectedValidity {
			return nil, errs.ErrValidityLengthMismatch
		}

		var dictIdxBytes, dictBlob []byte
		var hasDict bool
		var deltaPayload []byte
		var hasDelta bool

		encodingID := wire.EncPlain
		switch {
		case field.Type.IsVariableLength() && ws.enableDictUtf8 &&
			(field.Type == format.Utf8 || field.Type == format.JsonbText):
			var coalesced []byte
			if col.Var.Kind == view.Contiguous {
				coalesced = col.Var.Data
			} else {
				ws.viewVarCoalesce.Reset()
				ws.viewVarCoalesce.MustWrite(col.Var.Inline)
				for _, c := range col.Var.Chunks {
					ws.viewVarCoalesce.MustWrite(c)
				}
				coalesced = ws.viewVarCoalesce.Bytes()
			}
			idxB, blob, ok, derr := buildDictUTF8Payload(ws, validity, v.RowCount, col.Offsets, coalesced)
			if derr != nil {
				return nil, derr
			}
			if ok {
				dictIdxBytes, dictBlob, hasDict = idxB, blob, true
				encodingID = wire.EncDictUtf8
			}
		case field.Type == format.I64 && ws.enableDeltaVarintI64 && mathldbt.AllValid(validity, v.RowCount):
			if payload, ok := buildDeltaVarintI64Payload(ws, col.I64Values); ok {
				deltaPayload, hasDelta = payload, true
				encodingID = wire.EncDeltaVarintI64
			}
		case field.Type == format.TimestampTzMicros && ws.enableDeltaVarintI64 && mathldbt.AllValid(validity, v.RowCount):
			if payload, ok := buildDeltaVarintI64Payload(ws, col.TimestampMicros); ok {
				deltaPayload, hasDelta = payload, true
				encodingID = wire.EncDeltaVarintI64
			}
		}

		out = wire.PutU16(out, encodingID)
		out = wire.PutU16(out, 0)
		out, err = wire.PutU16LenBytes(out, nameBytes)
		if err != nil {
			return nil, err
		}
		out, err = wire.PutU32LenBytes(out, validity)
		if err != nil {
			return nil, err
		}

		switch field.Type {
		case format.Bool:
			if len(col.BoolValues) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if out, err = wire.PutU32LenBytes(out, col.BoolValues); err != nil {
				return nil, err
			}
			out = wire.PutU32(out, 0)
		case format.I16:
			if len(col.I16Values) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(v.RowCount*2))
			if isNativeLittleEndian {
				out = append(out, int16SliceBytes(col.I16Values)...)
			} else {
				for _, val := range col.I16Values {
					out = append(out, byte(val), byte(val>>8))
				}
			}
			out = wire.PutU32(out, 0)
		case format.I32:
			if len(col.I32Values) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(v.RowCount*4))
			if isNativeLittleEndian {
				out = append(out, int32SliceBytes(col.I32Values)...)
			} else {
				for _, val := range col.I32Values {
					out = append(out, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
				}
			}
			out = wire.PutU32(out, 0)
		case format.I64:
			if len(col.I64Values) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if hasDelta && encodingID == wire.EncDeltaVarintI64 {
				if out, err = wire.PutU32LenBytes(out, deltaPayload); err != nil {
					return nil, err
				}
				out = wire.PutU32(out, 0)
			} else {
				out = wire.PutU32(out, uint32(v.RowCount*8))
				if isNativeLittleEndian {
					out = append(out, int64SliceBytes(col.I64Values)...)
				} else {
					for _, val := range col.I64Values {
						out = wire.PutU64(out, uint64(val))
					}
				}
				out = wire.PutU32(out, 0)
			}
		case format.F32:
			if len(col.F32Bits) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(v.RowCount*4))
			if isNativeLittleEndian {
				out = append(out, uint32SliceBytes(col.F32Bits)...)
			} else {
				for _, val := range col.F32Bits {
					out = append(out, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
				}
			}
			out = wire.PutU32(out, 0)
		case format.F64:
			if len(col.F64Bits) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(v.RowCount*8))
			if isNativeLittleEndian {
				out = append(out, uint64SliceBytes(col.F64Bits)...)
			} else {
				for _, val := range col.F64Bits {
					out = wire.PutU64(out, val)
				}
			}
			out = wire.PutU32(out, 0)
		case format.Uuid:
			if len(col.UuidValues) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			out = wire.PutU32(out, uint32(v.RowCount*16))
			for _, val := range col.UuidValues {
				out = append(out, val[:]...)
			}
			out = wire.PutU32(out, 0)
		case format.TimestampTzMicros:
			if len(col.TimestampMicros) != v.RowCount {
				return nil, errs.ErrValuesLengthMismatch
			}
			if hasDelta && encodingID == wire.EncDeltaVarintI64 {
				if out, err = wire.PutU32LenBytes(out, deltaPayload); err != nil {
					return nil, err
				}
				out = wire.PutU32(out, 0)
			} else {
				out = wire.PutU32(out, uint32(v.RowCount*8))
				if isNativeLittleEndian {
					out = append(out, int64SliceBytes(col.TimestampMicros)...)
				} else {
					for _, val := range col.TimestampMicros {
						out = wire.PutU64(out, uint64(val))
					}
				}
				out = wire.PutU32(out, 0)
			}
		case format.Utf8, format.Bytes, format.JsonbText:
			switch encodingID {
			case wire.EncPlain:
				if len(col.Offsets) != v.RowCount+1 {
					return nil, errs.ErrOffsetsLengthMismatch
				}
				out = wire.PutU32(out, uint32(len(col.Offsets)*4))
				for _, o := range col.Offsets {
					out = wire.PutU32(out, o)
				}
				dataLen, lerr := col.Var.Len()
				if lerr != nil {
					return nil, lerr
				}
				out = wire.PutU32(out, uint32(dataLen))
				if col.Var.Kind == view.Contiguous {
					out = append(out, col.Var.Data...)
				} else {
					out = append(out, col.Var.Inline...)
					for _, c := range col.Var.Chunks {
						out = append(out, c...)
					}
				}
			case wire.EncDictUtf8:
				if !hasDict {
					return nil, errs.New("missing dict payload")
				}
				if out, err = wire.PutU32LenBytes(out, dictIdxBytes); err != nil {
					return nil, err
				}
				if out, err = wire.PutU32LenBytes(out, dictBlob); err != nil {
					return nil, err
				}
			default:
				return nil, errs.ErrInvalidVarlenEncoding
			}
		default:
			return nil, errs.ErrInvalidFixedType
		}
	}

	return out, nil
}
