package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/internal/pool"
)

// zstdEncoderLevel buckets the reference zstd integer level (-7..22) onto
// klauspost/compress/zstd's four-speed encoder scale. The pure-Go backend
// has no per-integer-level knob; this keeps the wire-level validation range
// spec-accurate while accepting the coarser granularity underneath.
func zstdEncoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

var zstdEncoderPools sync.Map // map[zstd.EncoderLevel]*sync.Pool

func getZstdEncoderPool(level zstd.EncoderLevel) *sync.Pool {
	if p, ok := zstdEncoderPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderCRC(false))
			if err != nil {
				panic(err)
			}
			return enc
		},
	}
	actual, _ := zstdEncoderPools.LoadOrStore(level, p)
	return actual.(*sync.Pool)
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(false))
		if err != nil {
			panic(err)
		}
		return dec
	},
}

func compressZstdInto(buf *pool.ByteBuffer, plain []byte, level int) error {
	if level < -7 || level > 22 {
		return errs.ErrInvalidZstdLevel
	}
	buf.Reset()
	encLevel := zstdEncoderLevel(level)
	p := getZstdEncoderPool(encLevel)
	enc := p.Get().(*zstd.Encoder)
	defer p.Put(enc)
	enc.Reset(buf)
	if _, err := enc.Write(plain); err != nil {
		return errs.Newf("zstd compression failed: %v", err)
	}
	return enc.Close()
}

func decompressZstdInto(data []byte, maxUncompressedLen int, buf *pool.ByteBuffer) error {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return errs.Newf("zstd decompression failed: %v", err)
	}
	return decodeWithMaxBound(dec, maxUncompressedLen, buf)
}

// decodeWithMaxBound copies at most maxUncompressedLen+1 bytes from r into
// buf, failing with ErrDecompressedExceedsMax if any byte past that bound
// is produced. max==0 is special-cased: a single one-byte read is made, and
// any output at all is rejected.
func decodeWithMaxBound(r io.Reader, maxUncompressedLen int, buf *pool.ByteBuffer) error {
	buf.Reset()
	if maxUncompressedLen == 0 {
		var tmp [1]byte
		n, err := r.Read(tmp[:])
		if n > 0 {
			return errs.ErrDecompressedExceedsMax
		}
		if err != nil && err != io.EOF {
			return errs.Newf("decompression failed: %v", err)
		}
		return nil
	}
	limited := io.LimitReader(r, int64(maxUncompressedLen)+1)
	if _, err := io.Copy(buf, limited); err != nil {
		return errs.Newf("decompression failed: %v", err)
	}
	if buf.Len() > maxUncompressedLen {
		return errs.ErrDecompressedExceedsMax
	}
	return nil
}
