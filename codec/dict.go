package codec

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
	"github.com/mathilde-trade/mathldbt/errs"
)

// buildDictUTF8Payload attempts to dictionary-encode one Utf8/JsonbText
// column. It returns ok=false whenever dictionary encoding would not
// strictly beat plain encoding — including the trivial row_count==0 case
// — in which case the caller falls back to ENC_PLAIN. The returned slices
// alias ws's scratch buffers and are only valid until the next call that
// touches ws.
func buildDictUTF8Payload(
	ws *EncodeWorkspace,
	validity []byte,
	rowCount int,
	offsets []uint32,
	data []byte,
) (idxBytes []byte, dictBlob []byte, ok bool, err error) {
	if rowCount == 0 {
		return nil, nil, false, nil
	}
	if len(offsets) != rowCount+1 {
		return nil, nil, false, nil
	}

	ws.dictValues = ws.dictValues[:0]
	for k := range ws.dictMap {
		delete(ws.dictMap, k)
	}
	ws.dictIndices = ws.dictIndices[:0]

	for row := 0; row < rowCount; row++ {
		isValid := validity[row/8]&(1<<uint(row%8)) != 0
		if !isValid {
			ws.dictIndices = append(ws.dictIndices, 0)
			continue
		}
		start, end := int(offsets[row]), int(offsets[row+1])
		if end < start || end > len(data) {
			return nil, nil, false, errs.New("offset out of bounds")
		}
		key := data[start:end]
		h := xxhash.Sum64(key)
		idx, found := uint32(0), false
		for _, candidate := range ws.dictMap[h] {
			if bytes.Equal(ws.dictValues[candidate], key) {
				idx, found = candidate, true
				break
			}
		}
		if found {
			ws.dictIndices = append(ws.dictIndices, idx)
			continue
		}
		idx = uint32(len(ws.dictValues))
		entry := append([]byte(nil), key...)
		ws.dictValues = append(ws.dictValues, entry)
		ws.dictMap[h] = append(ws.dictMap[h], idx)
		ws.dictIndices = append(ws.dictIndices, idx)
	}

	dictCount := len(ws.dictValues)
	if dictCount == 0 {
		return nil, nil, false, nil
	}

	indexWidth := 4
	switch {
	case dictCount <= 0x100:
		indexWidth = 1
	case dictCount <= 0x1_0000:
		indexWidth = 2
	}

	ws.dictIndicesBytes.Reset()
	switch indexWidth {
	case 1:
		for _, idx := range ws.dictIndices {
			ws.dictIndicesBytes.MustWrite([]byte{byte(idx)})
		}
	case 2:
		for _, idx := range ws.dictIndices {
			if idx > 0xFFFF {
				return nil, nil, false, errs.New("dict index overflow")
			}
			ws.dictIndicesBytes.MustWrite([]byte{byte(idx), byte(idx >> 8)})
		}
	default:
		for _, idx := range ws.dictIndices {
			ws.dictIndicesBytes.MustWrite([]byte{byte(idx), byte(idx >> 8), byte(idx >> 16), byte(idx >> 24)})
		}
	}

	ws.dictOffsets = ws.dictOffsets[:0]
	ws.dictOffsets = append(ws.dictOffsets, 0)
	var total uint32
	for _, v := range ws.dictValues {
		total += uint32(len(v))
		ws.dictOffsets = append(ws.dictOffsets, total)
	}

	ws.dictBlob.Reset()
	ws.dictBlob.MustWrite([]byte{byte(indexWidth)})
	dictCountU32 := uint32(dictCount)
	ws.dictBlob.MustWrite([]byte{byte(dictCountU32), byte(dictCountU32 >> 8), byte(dictCountU32 >> 16), byte(dictCountU32 >> 24)})
	for _, o := range ws.dictOffsets {
		ws.dictBlob.MustWrite([]byte{byte(o), byte(o >> 8), byte(o >> 16), byte(o >> 24)})
	}
	for _, v := range ws.dictValues {
		ws.dictBlob.MustWrite(v)
	}

	plainOffsetsLen := (rowCount + 1) * 4
	plainTotal := plainOffsetsLen + len(data)
	dictTotal := ws.dictIndicesBytes.Len() + ws.dictBlob.Len()
	if dictTotal >= plainTotal {
		return nil, nil, false, nil
	}

	return ws.dictIndicesBytes.Bytes(), ws.dictBlob.Bytes(), true, nil
}

// decodeDictUTF8ToVarColumn expands a dictionary-encoded payload back into
// plain (offsets, data) form.
func decodeDictUTF8ToVarColumn(
	ws *DecodeWorkspace,
	rowCount int,
	validity []byte,
	indicesBytes []byte,
	dictBlob []byte,
) (outOffsets []uint32, outData []byte, err error) {
	if rowCount == 0 {
		return []uint32{0}, nil, nil
	}

	if len(dictBlob) < 1+4 {
		return nil, nil, errs.New("dict blob truncated")
	}
	indexWidth := int(dictBlob[0])
	if indexWidth != 1 && indexWidth != 2 && indexWidth != 4 {
		return nil, nil, errs.ErrInvalidDictIndexWidth
	}
	dictCount := int(uint32(dictBlob[1]) | uint32(dictBlob[2])<<8 | uint32(dictBlob[3])<<16 | uint32(dictBlob[4])<<24)

	offsetsBytesLen := (dictCount + 1) * 4
	headerLen := 5
	offsetsEnd := headerLen + offsetsBytesLen
	if offsetsEnd > len(dictBlob) {
		return nil, nil, errs.ErrDictOffsetsTruncated
	}

	ws.dictOffsets = ws.dictOffsets[:0]
	for i := 0; i < dictCount+1; i++ {
		j := headerLen + i*4
		o := uint32(dictBlob[j]) | uint32(dictBlob[j+1])<<8 | uint32(dictBlob[j+2])<<16 | uint32(dictBlob[j+3])<<24
		ws.dictOffsets = append(ws.dictOffsets, o)
	}

	dictBytes := dictBlob[offsetsEnd:]
	dictTotal := uint32(0)
	if len(ws.dictOffsets) > 0 {
		dictTotal = ws.dictOffsets[len(ws.dictOffsets)-1]
	}
	if int(dictTotal) != len(dictBytes) {
		return nil, nil, errs.ErrDictFinalOffsetMismatch
	}
	var prev uint32
	for _, o := range ws.dictOffsets {
		if o < prev {
			return nil, nil, errs.ErrDictOffsetsNotNonDecr
		}
		prev = o
	}

	expectedIndicesLen := rowCount * indexWidth
	if len(indicesBytes) != expectedIndicesLen {
		return nil, nil, errs.New("indices length mismatch")
	}

	outOffsets = make([]uint32, 0, rowCount+1)
	outOffsets = append(outOffsets, 0)
	outData = make([]byte, 0)

	var total uint32
	for row := 0; row < rowCount; row++ {
		isValid := validity[row/8]&(1<<uint(row%8)) != 0
		if !isValid {
			outOffsets = append(outOffsets, total)
			continue
		}
		var idx int
		switch indexWidth {
		case 1:
			idx = int(indicesBytes[row])
		case 2:
			j := row * 2
			idx = int(uint16(indicesBytes[j]) | uint16(indicesBytes[j+1])<<8)
		default:
			j := row * 4
			idx = int(uint32(indicesBytes[j]) | uint32(indicesBytes[j+1])<<8 | uint32(indicesBytes[j+2])<<16 | uint32(indicesBytes[j+3])<<24)
		}
		if idx >= dictCount {
			return nil, nil, errs.ErrDictIndexOutOfBounds
		}
		start, end := ws.dictOffsets[idx], ws.dictOffsets[idx+1]
		outData = append(outData, dictBytes[start:end]...)
		total += end - start
		outOffsets = append(outOffsets, total)
	}

	return outOffsets, outData, nil
}
