package compress

import (
	"testing"

	"github.com/mathilde-trade/mathldbt"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch(t *testing.T) *mathldbt.Batch {
	t.Helper()
	schema, err := mathldbt.NewSchema(mathldbt.NewField("ts", mathldbt.I64), mathldbt.NewField("sym", mathldbt.Utf8))
	require.NoError(t, err)

	rowCount := 64
	vals := make([]int64, rowCount)
	var offsets []uint32
	var data []byte
	var off uint32
	offsets = append(offsets, 0)
	for i := 0; i < rowCount; i++ {
		vals[i] = int64(i) * 1000
		s := "BTCUSDT"
		data = append(data, s...)
		off += uint32(len(s))
		offsets = append(offsets, off)
	}
	bm, err := mathldbt.NewAllValidBitmap(rowCount)
	require.NoError(t, err)
	columns := []mathldbt.ColumnData{
		{Type: mathldbt.I64, Validity: bm, I64Values: vals},
		{Type: mathldbt.Utf8, Validity: bm, Offsets: offsets, Data: data},
	}
	batch, err := mathldbt.NewBatch(schema, rowCount, columns)
	require.NoError(t, err)
	return &batch
}

func TestEncodeDecode_RoundTripsEveryScheme(t *testing.T) {
	schemes := []Scheme{NoneScheme(), ZstdScheme(3), GzipScheme(6)}
	for _, scheme := range schemes {
		batch := sampleBatch(t)
		encoded, err := Encode(batch, scheme)
		require.NoError(t, err, scheme.Kind.String())

		decoded, err := Decode(encoded, scheme, 1<<20)
		require.NoError(t, err, scheme.Kind.String())
		assert.Equal(t, batch.RowCount, decoded.RowCount, scheme.Kind.String())
		assert.Equal(t, batch.Columns[0].I64Values, decoded.Columns[0].I64Values, scheme.Kind.String())
		assert.Equal(t, batch.Columns[1].Data, decoded.Columns[1].Data, scheme.Kind.String())
	}
}

func TestGzip_DeterministicAcrossCalls(t *testing.T) {
	batch := sampleBatch(t)
	scheme := GzipScheme(6)

	first, err := Encode(batch, scheme)
	require.NoError(t, err)
	second, err := Encode(batch, scheme)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestZstd_DeterministicAtFixedLevel(t *testing.T) {
	batch := sampleBatch(t)
	scheme := ZstdScheme(3)

	first, err := Encode(batch, scheme)
	require.NoError(t, err)
	second, err := Encode(batch, scheme)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncode_RejectsInvalidZstdLevel(t *testing.T) {
	batch := sampleBatch(t)
	_, err := Encode(batch, ZstdScheme(999))
	require.Error(t, err)
	assert.Equal(t, errs.ErrInvalidZstdLevel.Error(), err.Error())
}

func TestEncode_RejectsInvalidGzipLevel(t *testing.T) {
	batch := sampleBatch(t)
	_, err := Encode(batch, GzipScheme(-5))
	require.Error(t, err)
	assert.Equal(t, errs.ErrInvalidGzipLevel.Error(), err.Error())
}

func TestDecode_ZeroMaxUncompressedLenFailsImmediately(t *testing.T) {
	batch := sampleBatch(t)
	for _, scheme := range []Scheme{ZstdScheme(3), GzipScheme(6)} {
		encoded, err := Encode(batch, scheme)
		require.NoError(t, err)

		_, err = Decode(encoded, scheme, 0)
		require.Error(t, err, scheme.Kind.String())
		assert.Equal(t, errs.ErrDecompressedExceedsMax.Error(), err.Error(), scheme.Kind.String())
	}
}

func TestDecode_NoneIgnoresMaxUncompressedLenBound(t *testing.T) {
	batch := sampleBatch(t)
	encoded, err := Encode(batch, NoneScheme())
	require.NoError(t, err)

	decoded, err := Decode(encoded, NoneScheme(), 0)
	require.NoError(t, err)
	assert.Equal(t, batch.RowCount, decoded.RowCount)
}

func TestDecode_RejectsPayloadExceedingBound(t *testing.T) {
	batch := sampleBatch(t)
	scheme := GzipScheme(6)
	encoded, err := Encode(batch, scheme)
	require.NoError(t, err)

	_, err = Decode(encoded, scheme, 4)
	require.Error(t, err)
	assert.Equal(t, errs.ErrDecompressedExceedsMax.Error(), err.Error())
}

func TestDecodeInto_RoundTripsThroughZstd(t *testing.T) {
	batch := sampleBatch(t)
	scheme := ZstdScheme(3)
	encoded, err := Encode(batch, scheme)
	require.NoError(t, err)

	out := *batch
	out.Columns = make([]mathldbt.ColumnData, len(batch.Columns))
	for i := range out.Columns {
		out.Columns[i].Type = batch.Columns[i].Type
	}
	require.NoError(t, DecodeInto(encoded, &out, scheme, 1<<20))
	assert.Equal(t, batch.Columns[0].I64Values, out.Columns[0].I64Values)
}
