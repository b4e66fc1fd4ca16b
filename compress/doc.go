// Package compress implements the outer compression wrapper described by
// the MATHLDBT v1 wire format: a single transform applied to a complete,
// already-encoded frame.
//
// Three schemes are supported:
//
//   - None: the frame is carried byte-for-byte, uncompressed.
//   - Zstd{Level}: zstd compression, level in [-7, 22].
//   - Gzip{Level}: gzip compression, level in [0, 9], deterministic output
//     (mtime always zero).
//
// Decoding a compressed frame always takes a maxUncompressedLen bound: the
// decompressor refuses to produce more than that many bytes, protecting a
// caller from an adversarial or corrupt frame that decompresses to an
// unbounded size. None never applies this bound, since it performs no
// expansion.
package compress
