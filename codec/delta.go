package codec

import (
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/wire"
)

// buildDeltaVarintI64Payload delta-encodes values as: an 8-byte LE base
// value followed by zigzag+varint-encoded deltas from the previous value.
// It returns ok=false when the payload would not be strictly smaller than
// the 8-bytes-per-value plain encoding, including the empty-values case.
func buildDeltaVarintI64Payload(ws *EncodeWorkspace, values []int64) (payload []byte, ok bool) {
	if len(values) == 0 {
		return nil, false
	}
	ws.deltaBuf.Reset()
	base := uint64(values[0])
	ws.deltaBuf.MustWrite([]byte{
		byte(base), byte(base >> 8), byte(base >> 16), byte(base >> 24),
		byte(base >> 32), byte(base >> 40), byte(base >> 48), byte(base >> 56),
	})
	prev := values[0]
	for _, v := range values[1:] {
		delta := v - prev
		ws.deltaBuf.B = wire.PutVarint(ws.deltaBuf.B, wire.ZigzagEncode(delta))
		prev = v
	}
	if ws.deltaBuf.Len() >= len(values)*8 {
		return nil, false
	}
	return ws.deltaBuf.Bytes(), true
}

// decodeDeltaVarintI64 reverses buildDeltaVarintI64Payload into out, which
// must already have length rowCount.
func decodeDeltaVarintI64(payload []byte, rowCount int, out []int64) error {
	if rowCount == 0 {
		return nil
	}
	if len(payload) < 8 {
		return errs.ErrDeltaPayloadTruncated
	}
	base := uint64(payload[0]) | uint64(payload[1])<<8 | uint64(payload[2])<<16 | uint64(payload[3])<<24 |
		uint64(payload[4])<<32 | uint64(payload[5])<<40 | uint64(payload[6])<<48 | uint64(payload[7])<<56
	prev := int64(base)
	out[0] = prev
	pos := 8
	for i := 1; i < rowCount; i++ {
		zz, err := wire.ReadVarint(payload, &pos)
		if err != nil {
			return err
		}
		delta := wire.ZigzagDecode(zz)
		prev += delta
		out[i] = prev
	}
	if pos != len(payload) {
		return errs.ErrDeltaPayloadTrailing
	}
	return nil
}
