package codec

import "github.com/mathilde-trade/mathldbt/wire"

// ColumnSummary describes one column's wire header without materializing
// its values — cheap enough to run over an untrusted frame just to report
// what it contains.
type ColumnSummary struct {
	Name         string
	HasName      bool
	Type         string
	EncodingID   uint16
	PayloadBytes int
}

// FrameSummary is the result of Inspect: a frame's schema and row count,
// plus the on-wire encoding each column actually used.
type FrameSummary struct {
	RowCount int
	Columns  []ColumnSummary
}

// EncodingName renders a wire encoding id for diagnostics.
func EncodingName(id uint16) string {
	switch id {
	case wire.EncPlain:
		return "plain"
	case wire.FixedBigEndian:
		return "fixed-big-endian"
	case wire.EncDictUtf8:
		return "dict-utf8"
	case wire.EncDeltaVarintI64:
		return "delta-varint-i64"
	default:
		return "unknown"
	}
}

// Inspect parses a MATHLDBT v1 frame's header and every column header,
// without decoding any column's values, and reports what it finds. It is
// meant for diagnostics: a malformed frame header or column header fails
// with the same errors Decode would return, but validity lengths and
// column payloads are not checked.
func Inspect(data []byte) (FrameSummary, error) {
	r := wire.NewReader(data)
	rowCount, colCount, err := parseFrameHeader(r)
	if err != nil {
		return FrameSummary{}, err
	}

	summary := FrameSummary{RowCount: rowCount, Columns: make([]ColumnSummary, 0, colCount)}
	for i := 0; i < colCount; i++ {
		h, err := parseColumnHeader(r)
		if err != nil {
			return FrameSummary{}, err
		}
		cs := ColumnSummary{
			Type:         h.ty.String(),
			EncodingID:   h.encodingID,
			PayloadBytes: len(h.payload1) + len(h.payload2),
		}
		if h.name != nil {
			cs.Name, cs.HasName = *h.name, true
		}
		summary.Columns = append(summary.Columns, cs)
	}
	return summary, nil
}
