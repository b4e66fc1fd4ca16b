package compress

import (
	"bytes"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/internal/pool"
)

func compressGzipInto(buf *pool.ByteBuffer, plain []byte, level int) error {
	if level < 0 || level > 9 {
		return errs.ErrInvalidGzipLevel
	}
	buf.Reset()
	w, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		return errs.Newf("gzip compression failed: %v", err)
	}
	w.ModTime = time.Time{} // deterministic output: mtime=0 regardless of wall clock
	if _, err := w.Write(plain); err != nil {
		return errs.Newf("gzip compression failed: %v", err)
	}
	return w.Close()
}

func decompressGzipInto(data []byte, maxUncompressedLen int, buf *pool.ByteBuffer) error {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return errs.Newf("gzip decompression failed: %v", err)
	}
	defer r.Close()
	return decodeWithMaxBound(r, maxUncompressedLen, buf)
}
