package codec

import (
	"bytes"
	"fmt"
)

// Field numbers for the StreamGeometry message (spec §4.8).
const (
	sgFieldType           = 1
	sgFieldPartSizes      = 2
	sgFieldPolyRingCounts = 3
	sgFieldDxy            = 4
)

// encodeStreamGeometry serializes one geometry record: its type tag, the
// delta-encoded dxy stream (produced against the shared cursor), and the
// two part tables.
func encodeStreamGeometry(gtype GeometryType, dxy []int64, partSizes, polyRingCounts []int) []byte {
	var buf bytes.Buffer
	putUint32Field(&buf, sgFieldType, uint32(gtype))
	if len(partSizes) > 0 {
		putPackedUint32(&buf, sgFieldPartSizes, intsToUint32(partSizes))
	}
	if len(polyRingCounts) > 0 {
		putPackedUint32(&buf, sgFieldPolyRingCounts, intsToUint32(polyRingCounts))
	}
	putPackedSint64(&buf, sgFieldDxy, dxy)
	return buf.Bytes()
}

type decodedStreamGeometry struct {
	Type           GeometryType
	PartSizes      []int
	PolyRingCounts []int
	Dxy            []int64
}

func decodeStreamGeometry(data []byte) (decodedStreamGeometry, error) {
	r := newWireReader(data)
	var out decodedStreamGeometry
	haveType := false
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return decodedStreamGeometry{}, err
		}
		switch field {
		case sgFieldType:
			n, err := r.readUvarint()
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			out.Type = GeometryType(n)
			haveType = true
		case sgFieldPartSizes:
			data, err := r.readLenDelimited()
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			vs, err := unpackUint32(data)
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			out.PartSizes = uint32sToInts(vs)
		case sgFieldPolyRingCounts:
			data, err := r.readLenDelimited()
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			vs, err := unpackUint32(data)
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			out.PolyRingCounts = uint32sToInts(vs)
		case sgFieldDxy:
			data, err := r.readLenDelimited()
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			vs, err := unpackSint64(data)
			if err != nil {
				return decodedStreamGeometry{}, err
			}
			out.Dxy = vs
		default:
			if err := r.skip(wt); err != nil {
				return decodedStreamGeometry{}, err
			}
		}
	}
	if !haveType {
		return decodedStreamGeometry{}, fmt.Errorf("stream geometry missing type field: %w", ErrMalformedRecord)
	}
	if _, ok := geometryTypeStrings[out.Type]; !ok {
		return decodedStreamGeometry{}, fmt.Errorf("unknown type tag %d: %w", out.Type, ErrMalformedRecord)
	}
	return out, nil
}

func intsToUint32(vs []int) []uint32 {
	out := make([]uint32, len(vs))
	for i, v := range vs {
		out[i] = uint32(v)
	}
	return out
}

func uint32sToInts(vs []uint32) []int {
	if len(vs) == 0 {
		return nil
	}
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = int(v)
	}
	return out
}
