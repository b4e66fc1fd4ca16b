package compress

import (
	"github.com/mathilde-trade/mathldbt"
	"github.com/mathilde-trade/mathldbt/codec"
	"github.com/mathilde-trade/mathldbt/errs"
	"github.com/mathilde-trade/mathldbt/internal/pool"
)

// Encode serializes batch into a MATHLDBT v1 frame and applies scheme to
// it, using fresh, default-configured workspaces.
func Encode(batch *mathldbt.Batch, scheme Scheme) ([]byte, error) {
	codecWS, err := codec.NewEncodeWorkspace()
	if err != nil {
		return nil, err
	}
	return EncodeInto(batch, nil, scheme, codecWS, NewEncodeWorkspace())
}

// EncodeInto is the allocation-amortized form of Encode: out may be nil,
// codecWS and ws are reused across repeated calls.
func EncodeInto(batch *mathldbt.Batch, out []byte, scheme Scheme, codecWS *codec.EncodeWorkspace, ws *EncodeWorkspace) ([]byte, error) {
	if err := validateLevel(scheme); err != nil {
		return nil, err
	}

	ws.plain.Reset()
	plain, err := codec.EncodeInto(batch, ws.plain.Bytes(), codecWS)
	if err != nil {
		return nil, err
	}
	ws.plain.B = plain

	out = out[:0]
	switch scheme.Kind {
	case None:
		out = append(out, plain...)
		return out, nil
	case Zstd:
		buf := pool.GetBlobBuffer()
		defer pool.PutBlobBuffer(buf)
		if err := compressZstdInto(buf, plain, scheme.Level); err != nil {
			return nil, err
		}
		return append(out, buf.Bytes()...), nil
	case Gzip:
		buf := pool.GetBlobBuffer()
		defer pool.PutBlobBuffer(buf)
		if err := compressGzipInto(buf, plain, scheme.Level); err != nil {
			return nil, err
		}
		return append(out, buf.Bytes()...), nil
	default:
		return nil, errs.New("unknown compression scheme")
	}
}

// Decode reverses Encode: it undoes scheme's transform, bounding the
// decompressed size by maxUncompressedLen, then decodes the resulting
// MATHLDBT v1 frame into a freshly allocated Batch.
func Decode(data []byte, scheme Scheme, maxUncompressedLen int) (*mathldbt.Batch, error) {
	return DecodeWithWorkspace(data, scheme, maxUncompressedLen, codec.NewDecodeWorkspace(), NewDecodeWorkspace())
}

// DecodeWithWorkspace is the workspace-reusing form of Decode.
func DecodeWithWorkspace(data []byte, scheme Scheme, maxUncompressedLen int, codecWS *codec.DecodeWorkspace, ws *DecodeWorkspace) (*mathldbt.Batch, error) {
	if err := validateLevel(scheme); err != nil {
		return nil, err
	}

	switch scheme.Kind {
	case None:
		return codec.DecodeWithWorkspace(data, codecWS)
	case Zstd:
		if maxUncompressedLen == 0 {
			return nil, errs.ErrDecompressedExceedsMax
		}
		if err := decompressZstdInto(data, maxUncompressedLen, ws.plain); err != nil {
			return nil, err
		}
		return codec.DecodeWithWorkspace(ws.plain.Bytes(), codecWS)
	case Gzip:
		if maxUncompressedLen == 0 {
			return nil, errs.ErrDecompressedExceedsMax
		}
		if err := decompressGzipInto(data, maxUncompressedLen, ws.plain); err != nil {
			return nil, err
		}
		return codec.DecodeWithWorkspace(ws.plain.Bytes(), codecWS)
	default:
		return nil, errs.New("unknown compression scheme")
	}
}

// DecodeInto reverses EncodeInto directly into an existing Batch, requiring
// out's schema to match the frame's schema exactly (see [codec.DecodeInto]).
func DecodeInto(data []byte, out *mathldbt.Batch, scheme Scheme, maxUncompressedLen int) error {
	return DecodeIntoWithWorkspace(data, out, scheme, maxUncompressedLen, codec.NewDecodeWorkspace(), NewDecodeWorkspace())
}

// DecodeIntoWithWorkspace is the workspace-reusing form of DecodeInto.
func DecodeIntoWithWorkspace(data []byte, out *mathldbt.Batch, scheme Scheme, maxUncompressedLen int, codecWS *codec.DecodeWorkspace, ws *DecodeWorkspace) error {
	if err := validateLevel(scheme); err != nil {
		return err
	}

	switch scheme.Kind {
	case None:
		return codec.DecodeIntoWithWorkspace(data, out, codecWS)
	case Zstd:
		if maxUncompressedLen == 0 {
			return errs.ErrDecompressedExceedsMax
		}
		if err := decompressZstdInto(data, maxUncompressedLen, ws.plain); err != nil {
			return err
		}
		return codec.DecodeIntoWithWorkspace(ws.plain.Bytes(), out, codecWS)
	case Gzip:
		if maxUncompressedLen == 0 {
			return errs.ErrDecompressedExceedsMax
		}
		if err := decompressGzipInto(data, maxUncompressedLen, ws.plain); err != nil {
			return err
		}
		return codec.DecodeIntoWithWorkspace(ws.plain.Bytes(), out, codecWS)
	default:
		return errs.New("unknown compression scheme")
	}
}
