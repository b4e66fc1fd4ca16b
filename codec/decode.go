package codec

import (
	"unicode/utf8"

	"github.com/mathilde-trade/mathldbt"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/format"
	"github.com/mathilde-trade/mathldbt/wire"
)

// Decode parses a MATHLDBT v1 frame into a freshly allocated Batch using a
// fresh, default-configured workspace. For repeated decoding, build a
// DecodeWorkspace once and call [DecodeWithWorkspace]. Bytes following the
// last column are not checked.
func Decode(data []byte) (*mathldbt.Batch, error) {
	return DecodeWithWorkspace(data, NewDecodeWorkspace())
}

type columnHeader struct {
	ty         format.ColumnType
	encodingID uint16
	name       *string
	validity   []byte
	payload1   []byte
	payload2   []byte
}

func parseFrameHeader(r *wire.Reader) (rowCount int, colCount int, err error) {
	magic, err := r.Take(8)
	if err != nil {
		return 0, 0, err
	}
	if string(magic) != string(wire.Magic[:]) {
		return 0, 0, errs.ErrInvalidMagic
	}
	version, err := r.U16()
	if err != nil {
		return 0, 0, err
	}
	if version != wire.Version {
		return 0, 0, errs.Versionf(version)
	}
	if _, err := r.U16(); err != nil { // flags, accepted and ignored
		return 0, 0, err
	}
	rc, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	cc, err := r.U16()
	if err != nil {
		return 0, 0, err
	}
	if cc == 0 {
		return 0, 0, errs.ErrNoColumns
	}
	schemaIDLen, err := r.U16()
	if err != nil {
		return 0, 0, err
	}
	if schemaIDLen > 0 {
		if _, err := r.Take(int(schemaIDLen)); err != nil {
			return 0, 0, err
		}
	}
	return int(rc), int(cc), nil
}

func parseColumnHeader(r *wire.Reader) (*columnHeader, error) {
	tid, err := r.U16()
	if err != nil {
		return nil, err
	}
	ty, ok := format.FromID(tid)
	if !ok {
		return nil, errs.Newf("unknown column type id: %d", tid)
	}
	encodingID, err := r.U16()
	if err != nil {
		return nil, err
	}
	if _, err := r.U16(); err != nil { // col_flags, accepted and ignored
		return nil, err
	}
	nameLen, err := r.U16()
	if err != nil {
		return nil, err
	}
	nameBytes, err := r.Take(int(nameLen))
	if err != nil {
		return nil, err
	}
	var name *string
	if nameLen != 0 {
		if !utf8.Valid(nameBytes) {
			return nil, errs.ErrInvalidColumnNameUTF8
		}
		s := string(nameBytes)
		name = &s
	}
	validityLen, err := r.U32()
	if err != nil {
		return nil, err
	}
	validity, err := r.Take(int(validityLen))
	if err != nil {
		return nil, err
	}
	payload1Len, err := r.U32()
	if err != nil {
		return nil, err
	}
	payload1, err := r.Take(int(payload1Len))
	if err != nil {
		return nil, err
	}
	payload2Len, err := r.U32()
	if err != nil {
		return nil, err
	}
	payload2, err := r.Take(int(payload2Len))
	if err != nil {
		return nil, err
	}
	return &columnHeader{
		ty:         ty,
		encodingID: encodingID,
		name:       name,
		validity:   validity,
		payload1:   payload1,
		payload2:   payload2,
	}, nil
}

func decodeFixedLE16(payload1 []byte, rowCount int) []int16 {
	values := make([]int16, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 2
		values[i] = int16(uint16(payload1[j]) | uint16(payload1[j+1])<<8)
	}
	return values
}

func decodeFixedBE16(payload1 []byte, rowCount int) []int16 {
	values := make([]int16, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 2
		values[i] = int16(uint16(payload1[j])<<8 | uint16(payload1[j+1]))
	}
	return values
}

func decodeFixedLE32(payload1 []byte, rowCount int) []int32 {
	values := make([]int32, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 4
		values[i] = int32(uint32(payload1[j]) | uint32(payload1[j+1])<<8 | uint32(payload1[j+2])<<16 | uint32(payload1[j+3])<<24)
	}
	return values
}

func decodeFixedBE32(payload1 []byte, rowCount int) []int32 {
	values := make([]int32, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 4
		values[i] = int32(uint32(payload1[j])<<24 | uint32(payload1[j+1])<<16 | uint32(payload1[j+2])<<8 | uint32(payload1[j+3]))
	}
	return values
}

func decodeFixedU32(payload1 []byte, rowCount int, bigEndian bool) []uint32 {
	values := make([]uint32, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 4
		if bigEndian {
			values[i] = uint32(payload1[j])<<24 | uint32(payload1[j+1])<<16 | uint32(payload1[j+2])<<8 | uint32(payload1[j+3])
		} else {
			values[i] = uint32(payload1[j]) | uint32(payload1[j+1])<<8 | uint32(payload1[j+2])<<16 | uint32(payload1[j+3])<<24
		}
	}
	return values
}

func decodeFixedI64(payload1 []byte, rowCount int, bigEndian bool) []int64 {
	values := make([]int64, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 8
		u := decodeU64At(payload1, j, bigEndian)
		values[i] = int64(u)
	}
	return values
}

func decodeFixedU64(payload1 []byte, rowCount int, bigEndian bool) []uint64 {
	values := make([]uint64, rowCount)
	for i := 0; i < rowCount; i++ {
		j := i * 8
		values[i] = decodeU64At(payload1, j, bigEndian)
	}
	return values
}

func decodeU64At(b []byte, j int, bigEndian bool) uint64 {
	if bigEndian {
		return uint64(b[j])<<56 | uint64(b[j+1])<<48 | uint64(b[j+2])<<40 | uint64(b[j+3])<<32 |
			uint64(b[j+4])<<24 | uint64(b[j+5])<<16 | uint64(b[j+6])<<8 | uint64(b[j+7])
	}
	return uint64(b[j]) | uint64(b[j+1])<<8 | uint64(b[j+2])<<16 | uint64(b[j+3])<<24 |
		uint64(b[j+4])<<32 | uint64(b[j+5])<<40 | uint64(b[j+6])<<48 | uint64(b[j+7])<<56
}

// fixedEncodingFromID maps a wire encoding id to "is big endian", rejecting
// anything other than {0 (plain LE), 1 (big-endian fixed, decode-only)}.
func fixedEncodingFromID(id uint16) (bigEndian bool, err error) {
	switch id {
	case wire.EncPlain:
		return false, nil
	case wire.FixedBigEndian:
		return true, nil
	default:
		return false, errs.ErrInvalidFixedEncoding
	}
}

func decodeVarOffsets(payload1 []byte, rowCount int) ([]uint32, error) {
	expected := (rowCount + 1) * 4
	if len(payload1) != expected {
		return nil, errs.ErrOffsetsLengthMismatch
	}
	offsets := make([]uint32, rowCount+1)
	var prev uint32
	for i := 0; i <= rowCount; i++ {
		j := i * 4
		o := uint32(payload1[j]) | uint32(payload1[j+1])<<8 | uint32(payload1[j+2])<<16 | uint32(payload1[j+3])<<24
		if i == 0 && o != 0 {
			return nil, errs.ErrOffsetsFirstNotZero
		}
		if o < prev {
			return nil, errs.ErrOffsetsNotNonDecreasing
		}
		prev = o
		offsets[i] = o
	}
	return offsets, nil
}

// decodeColumn materializes one parsed column header into a ColumnData,
// given the frame's row_count and expected validity length (already
// checked by the caller).
func decodeColumn(h *columnHeader, rowCount int, ws *DecodeWorkspace) (mathldbt.ColumnData, error) {
	col := mathldbt.ColumnData{Type: h.ty, Validity: mathldbt.ValidityBitmap{Bytes: append([]byte(nil), h.validity...)}}

	if h.ty.IsVariableLength() {
		switch h.encodingID {
		case wire.EncPlain:
			offsets, err := decodeVarOffsets(h.payload1, rowCount)
			if err != nil {
				return col, err
			}
			finalOff := uint32(0)
			if len(offsets) > 0 {
				finalOff = offsets[len(offsets)-1]
			}
			if int(finalOff) != len(h.payload2) {
				return col, errs.ErrFinalOffsetMismatch
			}
			col.Offsets = offsets
			col.Data = append([]byte(nil), h.payload2...)
		case wire.EncDictUtf8:
			if h.ty == format.Bytes {
				return col, errs.ErrDictUtf8NotForBytes
			}
			offsets, data, err := decodeDictUTF8ToVarColumn(ws, rowCount, h.validity, h.payload1, h.payload2)
			if err != nil {
				return col, err
			}
			col.Offsets = offsets
			col.Data = data
		default:
			return col, errs.ErrInvalidVarlenEncoding
		}
		return col, nil
	}

	if h.encodingID == wire.EncDeltaVarintI64 && h.ty != format.I64 && h.ty != format.TimestampTzMicros {
		return col, errs.ErrInvalidFixedEncoding
	}
	if len(h.payload2) != 0 {
		return col, errs.ErrFixedPayload2NotEmpty
	}

	switch h.ty {
	case format.Bool:
		if _, err := fixedEncodingFromID(h.encodingID); err != nil {
			return col, err
		}
		if len(h.payload1) != rowCount {
			return col, errs.ErrValuesLengthMismatch
		}
		col.BoolValues = append([]byte(nil), h.payload1...)
	case format.I16:
		if len(h.payload1) != rowCount*2 {
			return col, errs.ErrValuesLengthMismatch
		}
		bigEndian, err := fixedEncodingFromID(h.encodingID)
		if err != nil {
			return col, err
		}
		if bigEndian {
			col.I16Values = decodeFixedBE16(h.payload1, rowCount)
		} else {
			col.I16Values = decodeFixedLE16(h.payload1, rowCount)
		}
	case format.I32:
		if len(h.payload1) != rowCount*4 {
			return col, errs.ErrValuesLengthMismatch
		}
		bigEndian, err := fixedEncodingFromID(h.encodingID)
		if err != nil {
			return col, err
		}
		if bigEndian {
			col.I32Values = decodeFixedBE32(h.payload1, rowCount)
		} else {
			col.I32Values = decodeFixedLE32(h.payload1, rowCount)
		}
	case format.I64:
		if h.encodingID == wire.EncDeltaVarintI64 {
			values := make([]int64, rowCount)
			if err := decodeDeltaVarintI64(h.payload1, rowCount, values); err != nil {
				return col, err
			}
			col.I64Values = values
		} else {
			if len(h.payload1) != rowCount*8 {
				return col, errs.ErrValuesLengthMismatch
			}
			bigEndian, err := fixedEncodingFromID(h.encodingID)
			if err != nil {
				return col, err
			}
			col.I64Values = decodeFixedI64(h.payload1, rowCount, bigEndian)
		}
	case format.F32:
		if len(h.payload1) != rowCount*4 {
			return col, errs.ErrValuesLengthMismatch
		}
		bigEndian, err := fixedEncodingFromID(h.encodingID)
		if err != nil {
			return col, err
		}
		col.F32Bits = decodeFixedU32(h.payload1, rowCount, bigEndian)
	case format.F64:
		if len(h.payload1) != rowCount*8 {
			return col, errs.ErrValuesLengthMismatch
		}
		bigEndian, err := fixedEncodingFromID(h.encodingID)
		if err != nil {
			return col, err
		}
		col.F64Bits = decodeFixedU64(h.payload1, rowCount, bigEndian)
	case format.Uuid:
		if len(h.payload1) != rowCount*16 {
			return col, errs.ErrValuesLengthMismatch
		}
		if _, err := fixedEncodingFromID(h.encodingID); err != nil {
			return col, err
		}
		values := make([][16]byte, rowCount)
		for i := 0; i < rowCount; i++ {
			copy(values[i][:], h.payload1[i*16:i*16+16])
		}
		col.UuidValues = values
	case format.TimestampTzMicros:
		if h.encodingID == wire.EncDeltaVarintI64 {
			values := make([]int64, rowCount)
			if err := decodeDeltaVarintI64(h.payload1, rowCount, values); err != nil {
				return col, err
			}
			col.TimestampMicros = values
		} else {
			if len(h.payload1) != rowCount*8 {
				return col, errs.ErrValuesLengthMismatch
			}
			bigEndian, err := fixedEncodingFromID(h.encodingID)
			if err != nil {
				return col, err
			}
			col.TimestampMicros = decodeFixedI64(h.payload1, rowCount, bigEndian)
		}
	default:
		return col, errs.ErrInvalidFixedType
	}

	return col, nil
}

// DecodeWithWorkspace parses a MATHLDBT v1 frame into a freshly allocated
// Batch, reusing ws's dictionary-expansion scratch buffer across calls.
func DecodeWithWorkspace(data []byte, ws *DecodeWorkspace) (*mathldbt.Batch, error) {
	r := wire.NewReader(data)
	rowCount, colCount, err := parseFrameHeader(r)
	if err != nil {
		return nil, err
	}

	expectedValidity, err := mathldbt.LenForRowCount(rowCount)
	if err != nil {
		return nil, err
	}

	fields := make([]mathldbt.Field, 0, colCount)
	columns := make([]mathldbt.ColumnData, 0, colCount)

	for i := 0; i < colCount; i++ {
		h, err := parseColumnHeader(r)
		if err != nil {
			return nil, err
		}
		if len(h.validity) != expectedValidity {
			return nil, errs.ErrValidityLengthMismatch
		}
		col, err := decodeColumn(h, rowCount, ws)
		if err != nil {
			return nil, err
		}
		fields = append(fields, mathldbt.Field{Name: h.name, Type: h.ty})
		columns = append(columns, col)
	}

	schema, err := mathldbt.NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	return &mathldbt.Batch{Schema: schema, RowCount: rowCount, Columns: columns}, nil
}

// DecodeInto parses a MATHLDBT v1 frame directly into out's existing
// columns, requiring out's schema to match the frame's schema exactly
// (type and name, per field, in order). It avoids allocating a new Batch
// or Schema; each column is decoded into freshly allocated slices that
// replace out.Columns[i].
func DecodeInto(data []byte, out *mathldbt.Batch) error {
	return DecodeIntoWithWorkspace(data, out, NewDecodeWorkspace())
}

// DecodeIntoWithWorkspace is the workspace-reusing form of DecodeInto.
func DecodeIntoWithWorkspace(data []byte, out *mathldbt.Batch, ws *DecodeWorkspace) error {
	r := wire.NewReader(data)
	rowCount, colCount, err := parseFrameHeader(r)
	if err != nil {
		return err
	}

	outFields := out.Schema.Fields()
	if colCount != len(outFields) || colCount != len(out.Columns) {
		return errs.ErrDecodeIntoSchemaMismatch
	}

	expectedValidity, err := mathldbt.LenForRowCount(rowCount)
	if err != nil {
		return err
	}

	for i := 0; i < colCount; i++ {
		h, err := parseColumnHeader(r)
		if err != nil {
			return err
		}
		outField := outFields[i]
		if outField.Type != h.ty {
			return errs.ErrDecodeIntoSchemaMismatch
		}
		if (outField.Name == nil) != (h.name == nil) {
			return errs.ErrDecodeIntoSchemaMismatch
		}
		if outField.Name != nil && h.name != nil && *outField.Name != *h.name {
			return errs.ErrDecodeIntoSchemaMismatch
		}
		if len(h.validity) != expectedValidity {
			return errs.ErrValidityLengthMismatch
		}
		col, err := decodeColumn(h, rowCount, ws)
		if err != nil {
			return err
		}
		if col.Type != out.Columns[i].Type {
			return errs.ErrDecodeIntoSchemaMismatch
		}
		out.Columns[i] = col
	}

	out.RowCount = rowCount
	return nil
}
