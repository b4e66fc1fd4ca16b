package codec

import "unsafe"

// isNativeLittleEndian reports whether the host stores multi-byte integers
// least-significant-byte first, checked once via a fixed bit pattern rather
// than per call.
var isNativeLittleEndian = func() bool {
	var probe uint16 = 0x0100
	return (*[2]byte)(unsafe.Pointer(&probe))[0] != 0x01
}()

// The bulkBytes helpers reinterpret a fixed-width numeric slice as its raw
// little-endian byte representation without copying element by element.
// They are only safe to call when isNativeLittleEndian is true — on a
// big-endian host the in-memory layout does not match the wire format, and
// callers must fall back to the per-element byte-swapping loop instead.

func int16SliceBytes(values []int16) []byte {
	if len(values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*2)
}

func int32SliceBytes(values []int32) []byte {
	if len(values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
}

func int64SliceBytes(values []int64) []byte {
	if len(values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*8)
}

func uint32SliceBytes(values []uint32) []byte {
	if len(values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
}

func uint64SliceBytes(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*8)
}
