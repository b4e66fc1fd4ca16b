package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigzag_RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 63, -64, 1 << 40, -(1 << 40)}
	for _, c := range cases {
		assert.Equal(t, c, ZigzagDecode(ZigzagEncode(c)), "value %d", c)
	}
}

func TestZigzag_SmallMagnitudesMapToSmallUnsigned(t *testing.T) {
	assert.Equal(t, uint64(0), ZigzagEncode(0))
	assert.Equal(t, uint64(1), ZigzagEncode(-1))
	assert.Equal(t, uint64(2), ZigzagEncode(1))
	assert.Equal(t, uint64(3), ZigzagEncode(-2))
}

func TestVarint_RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, c := range cases {
		buf := PutVarint(nil, c)
		pos := 0
		got, err := ReadVarint(buf, &pos)
		require.NoError(t, err)
		assert.Equal(t, c, got, "value %d", c)
		assert.Equal(t, len(buf), pos)
	}
}

func TestVarint_SingleByteForSmallValues(t *testing.T) {
	assert.Equal(t, []byte{0}, PutVarint(nil, 0))
	assert.Equal(t, []byte{127}, PutVarint(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, PutVarint(nil, 128))
}

func TestReadVarint_TruncatedFails(t *testing.T) {
	buf := []byte{0x80, 0x80}
	pos := 0
	_, err := ReadVarint(buf, &pos)
	require.Error(t, err)
}

func TestReader_TakeAdvancesAndBoundsChecks(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	b, err := r.Take(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 2, r.Pos())

	_, err = r.Take(10)
	require.Error(t, err)
	assert.Equal(t, "truncated mathldbt", err.Error())
}

func TestReader_U16AndU32LittleEndian(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	v16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)

	v32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x06050403), v32)
}

func TestPutU16_PutU32_LittleEndian(t *testing.T) {
	assert.Equal(t, []byte{0x34, 0x12}, PutU16(nil, 0x1234))
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, PutU32(nil, 0x12345678))
}

func TestPutU32LenBytes_PrependsLength(t *testing.T) {
	out, err := PutU32LenBytes(nil, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 'h', 'i'}, out)
}
