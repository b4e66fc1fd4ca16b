package codec

import (
	"testing"

	"github.com/mathilde-trade/mathldbt"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/format"
	"github.com/mathilde-trade/mathldbt/view"
	"github.com/mathilde-trade/mathldbt/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitmap(t *testing.T, rowCount int) mathldbt.ValidityBitmap {
	t.Helper()
	bm, err := mathldbt.NewAllValidBitmap(rowCount)
	require.NoError(t, err)
	return bm
}

func tickerBatch(t *testing.T) *mathldbt.Batch {
	t.Helper()
	schema, err := mathldbt.NewSchema(
		mathldbt.NewField("ts", mathldbt.TimestampTzMicros),
		mathldbt.NewField("symbol", mathldbt.Utf8),
		mathldbt.NewField("price", mathldbt.F64),
	)
	require.NoError(t, err)

	symbols := []string{"BTCUSDT", "ETHUSDT"}
	var offsets []uint32
	var data []byte
	var off uint32
	offsets = append(offsets, 0)
	for i := 0; i < 32; i++ {
		s := symbols[i%2]
		data = append(data, s...)
		off += uint32(len(s))
		offsets = append(offsets, off)
	}

	ts := make([]int64, 32)
	price := make([]uint64, 32)
	for i := range ts {
		ts[i] = 1_700_000_000_000_000 + int64(i)*1000
		price[i] = uint64(i) // raw bit pattern stand-in
	}

	columns := []mathldbt.ColumnData{
		{Type: mathldbt.TimestampTzMicros, Validity: bitmap(t, 32), TimestampMicros: ts},
		{Type: mathldbt.Utf8, Validity: bitmap(t, 32), Offsets: offsets, Data: data},
		{Type: mathldbt.F64, Validity: bitmap(t, 32), F64Bits: price},
	}
	batch, err := mathldbt.NewBatch(schema, 32, columns)
	require.NoError(t, err)
	return &batch
}

func TestEncodeDecode_RoundTripsTickerBatch(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, batch.RowCount, decoded.RowCount)
	require.Equal(t, 3, decoded.Schema.Len())
	assert.Equal(t, batch.Columns[0].TimestampMicros, decoded.Columns[0].TimestampMicros)
	assert.Equal(t, batch.Columns[1].Offsets, decoded.Columns[1].Offsets)
	assert.Equal(t, batch.Columns[1].Data, decoded.Columns[1].Data)
	assert.Equal(t, batch.Columns[2].F64Bits, decoded.Columns[2].F64Bits)
}

func TestEncode_HeaderStartsWithMagicAndVersion(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)
	assert.Equal(t, wire.Magic[:], encoded[:8])
	assert.Equal(t, uint16(1), uint16(encoded[8])|uint16(encoded[9])<<8)
}

func TestDecodeInto_MatchesAllocatingDecode(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)

	allocated, err := Decode(encoded)
	require.NoError(t, err)

	out := *allocated
	out.Columns = make([]mathldbt.ColumnData, len(allocated.Columns))
	for i := range out.Columns {
		out.Columns[i].Type = allocated.Columns[i].Type
	}
	require.NoError(t, DecodeInto(encoded, &out))

	assert.Equal(t, allocated.RowCount, out.RowCount)
	assert.Equal(t, allocated.Columns[0].TimestampMicros, out.Columns[0].TimestampMicros)
	assert.Equal(t, allocated.Columns[1].Data, out.Columns[1].Data)
}

func TestDecodeInto_RejectsSchemaMismatch(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)

	wrongSchema, err := mathldbt.NewSchema(mathldbt.NewField("only_one", mathldbt.I64))
	require.NoError(t, err)
	out := mathldbt.Batch{Schema: wrongSchema, Columns: []mathldbt.ColumnData{{Type: mathldbt.I64}}}
	err = DecodeInto(encoded, &out)
	require.Error(t, err)
	assert.Equal(t, "decode_mathldbt_v1_into requires matching schema", err.Error())
}

func TestEncode_DeltaVarintChosenOnlyWhenSmallerThanPlain(t *testing.T) {
	schema, err := mathldbt.NewSchema(mathldbt.NewField("ts", mathldbt.I64))
	require.NoError(t, err)
	values := make([]int64, 256)
	for i := range values {
		values[i] = 1_700_000_000_000 + int64(i)
	}
	columns := []mathldbt.ColumnData{{Type: mathldbt.I64, Validity: bitmap(t, 256), I64Values: values}}
	batch, err := mathldbt.NewBatch(schema, 256, columns)
	require.NoError(t, err)

	wsPlain, err := NewEncodeWorkspace()
	require.NoError(t, err)
	plainEncoded, err := EncodeInto(&batch, nil, wsPlain)
	require.NoError(t, err)

	wsDelta, err := NewEncodeWorkspace(WithDeltaVarintI64(true))
	require.NoError(t, err)
	deltaEncoded, err := EncodeInto(&batch, nil, wsDelta)
	require.NoError(t, err)

	assert.Less(t, len(deltaEncoded), len(plainEncoded))

	decoded, err := Decode(deltaEncoded)
	require.NoError(t, err)
	assert.Equal(t, values, decoded.Columns[0].I64Values)
}

func TestEncode_DictUtf8ChosenForLowCardinalityStrings(t *testing.T) {
	schema, err := mathldbt.NewSchema(mathldbt.NewField("symbol", mathldbt.Utf8))
	require.NoError(t, err)
	symbols := []string{"BTCUSDT", "ETHUSDT"}
	var offsets []uint32
	var data []byte
	var off uint32
	offsets = append(offsets, 0)
	for i := 0; i < 256; i++ {
		s := symbols[i%2]
		data = append(data, s...)
		off += uint32(len(s))
		offsets = append(offsets, off)
	}
	columns := []mathldbt.ColumnData{{Type: mathldbt.Utf8, Validity: bitmap(t, 256), Offsets: offsets, Data: data}}
	batch, err := mathldbt.NewBatch(schema, 256, columns)
	require.NoError(t, err)

	wsPlain, err := NewEncodeWorkspace()
	require.NoError(t, err)
	plainEncoded, err := EncodeInto(&batch, nil, wsPlain)
	require.NoError(t, err)

	wsDict, err := NewEncodeWorkspace(WithDictUtf8(true))
	require.NoError(t, err)
	dictEncoded, err := EncodeInto(&batch, nil, wsDict)
	require.NoError(t, err)

	assert.Less(t, len(dictEncoded), len(plainEncoded))

	decoded, err := Decode(dictEncoded)
	require.NoError(t, err)
	assert.Equal(t, offsets, decoded.Columns[0].Offsets)
	assert.Equal(t, data, decoded.Columns[0].Data)
}

func TestDecode_RejectsCorruptedMagic(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)
	corrupted := append([]byte(nil), encoded...)
	corrupted[0] = 'X'

	_, err = Decode(corrupted)
	require.Error(t, err)
	assert.Equal(t, "invalid MATHLDBT magic", err.Error())
}

func TestDecode_RejectsZeroColumnCount(t *testing.T) {
	buf := append([]byte(nil), wire.Magic[:]...)
	buf = wire.PutU16(buf, wire.Version)
	buf = wire.PutU16(buf, 0)
	buf = wire.PutU32(buf, 0)
	buf = wire.PutU16(buf, 0) // col_count = 0
	buf = wire.PutU16(buf, 0)

	_, err := Decode(buf)
	require.Error(t, err)
	assert.Equal(t, errs.ErrNoColumns.Error(), err.Error())
}

func TestDecode_RejectsTruncatedFrame(t *testing.T) {
	batch := tickerBatch(t)
	encoded, err := Encode(batch)
	require.NoError(t, err)

	_, err = Decode(encoded[:len(encoded)-4])
	require.Error(t, err)
}

func TestNewBatch_RejectsNonDecreasingOffsets(t *testing.T) {
	schema, err := mathldbt.NewSchema(mathldbt.NewField("sym", mathldbt.Utf8))
	require.NoError(t, err)
	columns := []mathldbt.ColumnData{{
		Type:     mathldbt.Utf8,
		Validity: bitmap(t, 2),
		Offsets:  []uint32{0, 3, 1},
		Data:     []byte("BTCE"),
	}}
	_, err = mathldbt.NewBatch(schema, 2, columns)
	require.Error(t, err)
	assert.Equal(t, "offsets must be non-decreasing", err.Error())
}

// tickerBatchView builds a view.BatchView borrowing the exact same slices
// tickerBatch owns, so the two encoders are fed bitwise-identical input.
func tickerBatchView(t *testing.T, batch *mathldbt.Batch) *view.BatchView {
	t.Helper()
	fields := make([]view.Field, batch.Schema.Len())
	for i, f := range batch.Schema.Fields() {
		fields[i] = view.Field{Name: f.Name, Type: f.Type}
	}
	columns := make([]view.ColumnView, len(batch.Columns))
	for i, col := range batch.Columns {
		columns[i] = view.ColumnView{
			Type:            col.Type,
			Validity:        col.Validity.Bytes,
			TimestampMicros: col.TimestampMicros,
			F64Bits:         col.F64Bits,
			Offsets:         col.Offsets,
		}
		if col.Type == format.Utf8 || col.Type == format.Bytes || col.Type == format.JsonbText {
			columns[i].Var = view.VarData{Kind: view.Contiguous, Data: col.Data}
		}
	}
	return &view.BatchView{Fields: fields, RowCount: batch.RowCount, Columns: columns}
}

func TestEncodeFastPath_MatchesOwnedEncodeByteForByte(t *testing.T) {
	batch := tickerBatch(t)
	owned, err := Encode(batch)
	require.NoError(t, err)

	bv := tickerBatchView(t, batch)
	require.NoError(t, bv.Validate())

	ws, err := NewEncodeWorkspace()
	require.NoError(t, err)
	borrowed, err := EncodeFastPath(bv, ws)
	require.NoError(t, err)

	assert.Equal(t, owned, borrowed)
}
