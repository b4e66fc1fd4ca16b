// Package compress implements the MATHLDBT v1 outer compression wrapper: a
// single transform — none, zstd, or gzip — applied to a complete encoded
// frame, with bounded decompression so a caller never has to trust an
// unbounded expansion ratio from untrusted input.
package compress

import "github.com/mathilde-trade/mathldbt/errs"

// Kind identifies which outer transform a Scheme applies.
type Kind uint8

const (
	None Kind = iota
	Zstd
	Gzip
)

// String renders a Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Zstd:
		return "Zstd"
	case Gzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}

// Scheme selects the outer compression transform wrapped around a complete
// MATHLDBT v1 frame. Level is meaningful only for Zstd and Gzip; it is
// ignored for None.
type Scheme struct {
	Kind  Kind
	Level int
}

// NoneScheme returns the identity transform: the frame is carried
// byte-for-byte, uncompressed.
func NoneScheme() Scheme {
	return Scheme{Kind: None}
}

// ZstdScheme returns a zstd transform at the given level. Level must be in
// [-7, 22], matching the reference zstd level range; Encode/Decode reject
// anything outside it with "invalid zstd level".
func ZstdScheme(level int) Scheme {
	return Scheme{Kind: Zstd, Level: level}
}

// GzipScheme returns a gzip transform at the given level. Level must be in
// [0, 9]; Encode/Decode reject anything outside it with "invalid gzip
// level".
func GzipScheme(level int) Scheme {
	return Scheme{Kind: Gzip, Level: level}
}

func validateLevel(s Scheme) error {
	switch s.Kind {
	case Zstd:
		if s.Level < -7 || s.Level > 22 {
			return errs.ErrInvalidZstdLevel
		}
	case Gzip:
		if s.Level < 0 || s.Level > 9 {
			return errs.ErrInvalidGzipLevel
		}
	}
	return nil
}
