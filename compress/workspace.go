package compress

import "github.com/mathilde-trade/mathldbt/internal/pool"

// EncodeWorkspace holds the scratch buffer the compressed encoder stages
// the plain (pre-compression) frame into before applying Scheme, amortizing
// allocation across repeated calls.
type EncodeWorkspace struct {
	plain *pool.ByteBuffer
}

// NewEncodeWorkspace builds an empty EncodeWorkspace.
func NewEncodeWorkspace() *EncodeWorkspace {
	return &EncodeWorkspace{plain: pool.NewByteBuffer(pool.BlobBufferDefaultSize)}
}

// DecodeWorkspace holds the scratch buffer the compressed decoder
// decompresses into before handing the plain frame to the codec package.
type DecodeWorkspace struct {
	plain *pool.ByteBuffer
}

// NewDecodeWorkspace builds an empty DecodeWorkspace.
func NewDecodeWorkspace() *DecodeWorkspace {
	return &DecodeWorkspace{plain: pool.NewByteBuffer(pool.BlobBufferDefaultSize)}
}
