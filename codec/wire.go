package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Wire schema (spec §4.8): a length-delimited tag-value format, varint tag,
// varint length for length-delimited fields, zigzag for signed scalars,
// little-endian for fixed-width doubles. No third-party protobuf or varint
// runtime appears anywhere in this project's dependency closure, so these
// primitives are hand-rolled over encoding/binary + bytes.Buffer, the same
// approach this codebase's peers use for bespoke binary formats.

type wireType uint64

const (
	wireVarint   wireType = 0
	wireFixed64  wireType = 1
	wireLenDelim wireType = 2
	wirePackedV  wireType = 2 // packed repeated fields reuse the length-delimited wire type
)

func tagByte(field int, wt wireType) uint64 {
	return uint64(field)<<3 | uint64(wt)
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putVarint(buf *bytes.Buffer, v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func putTag(buf *bytes.Buffer, field int, wt wireType) {
	putUvarint(buf, tagByte(field, wt))
}

func putLenDelimited(buf *bytes.Buffer, field int, data []byte) {
	putTag(buf, field, wireLenDelim)
	putUvarint(buf, uint64(len(data)))
	buf.Write(data)
}

func putUint32Field(buf *bytes.Buffer, field int, v uint32) {
	putTag(buf, field, wireVarint)
	putUvarint(buf, uint64(v))
}

func putSint64Field(buf *bytes.Buffer, field int, v int64) {
	putTag(buf, field, wireVarint)
	putUvarint(buf, zigzagEncode(v))
}

func putDoubleField(buf *bytes.Buffer, field int, v float64) {
	putTag(buf, field, wireFixed64)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	buf.Write(tmp[:])
}

// putPackedSint64 writes field N as a length-delimited run of zigzag
// varints, the wire shape for StreamGeometry.dxy.
func putPackedSint64(buf *bytes.Buffer, field int, vs []int64) {
	var body bytes.Buffer
	for _, v := range vs {
		putUvarint(&body, zigzagEncode(v))
	}
	putLenDelimited(buf, field, body.Bytes())
}

func putPackedUint32(buf *bytes.Buffer, field int, vs []uint32) {
	var body bytes.Buffer
	for _, v := range vs {
		putUvarint(&body, uint64(v))
	}
	putLenDelimited(buf, field, body.Bytes())
}

func putPackedDouble(buf *bytes.Buffer, field int, vs []float64) {
	var body bytes.Buffer
	for _, v := range vs {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		body.Write(tmp[:])
	}
	putLenDelimited(buf, field, body.Bytes())
}

// wireReader walks a byte slice popping one field at a time, skipping any
// field number it does not recognize (spec §4.8 "unknown fields MUST be
// skipped, not rejected" — this is what backs P6).
type wireReader struct {
	data []byte
	pos  int
}

func newWireReader(data []byte) *wireReader {
	return &wireReader{data: data}
}

func (r *wireReader) done() bool {
	return r.pos >= len(r.data)
}

func (r *wireReader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("truncated varint: %w", ErrMalformedRecord)
	}
	r.pos += n
	return v, nil
}

func (r *wireReader) readTag() (field int, wt wireType, err error) {
	v, err := r.readUvarint()
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 3), wireType(v & 0x7), nil
}

func (r *wireReader) readFixed64() (float64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("truncated fixed64: %w", ErrMalformedRecord)
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

func (r *wireReader) readLenDelimited() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.data)-r.pos) {
		return nil, fmt.Errorf("length-delimited field runs past end of buffer: %w", ErrMalformedRecord)
	}
	out := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

// skip advances past a field's value given its wire type, without
// interpreting it — the mechanism behind unknown-field tolerance.
func (r *wireReader) skip(wt wireType) error {
	switch wt {
	case wireVarint:
		_, err := r.readUvarint()
		return err
	case wireFixed64:
		if r.pos+8 > len(r.data) {
			return fmt.Errorf("truncated fixed64: %w", ErrMalformedRecord)
		}
		r.pos += 8
		return nil
	case wireLenDelim:
		_, err := r.readLenDelimited()
		return err
	default:
		return fmt.Errorf("unknown wire type %d: %w", wt, ErrMalformedRecord)
	}
}

func unpackSint64(data []byte) ([]int64, error) {
	r := newWireReader(data)
	var out []int64
	for !r.done() {
		v, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		out = append(out, zigzagDecode(v))
	}
	return out, nil
}

func unpackUint32(data []byte) ([]uint32, error) {
	r := newWireReader(data)
	var out []uint32
	for !r.done() {
		v, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func unpackDouble(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("packed double field is not a multiple of 8 bytes: %w", ErrMalformedRecord)
	}
	out := make([]float64, 0, len(data)/8)
	for i := 0; i+8 <= len(data); i += 8 {
		bits := binary.LittleEndian.Uint64(data[i : i+8])
		out = append(out, math.Float64frombits(bits))
	}
	return out, nil
}
