// Package codec implements the lossy-but-controlled binary codec for
// GeoJSON FeatureCollections and GeometryCollections described by this
// project: a quantizer (component A), a delta-encoded coordinate stream
// threaded through a collection-wide cursor (component D), and a
// nested-parts reconstruction algorithm recovering the six GeoJSON
// geometry shapes from two flat integer arrays (components B/C).
//
// Encoding and decoding are pure, synchronous, single-threaded
// transformations: no I/O, no shared mutable state, no retry. Any error is
// fatal to the current call and leaves no partial output.
package codec

import "fmt"

// PeekCRS reads only the CRS record from an already-encoded
// FeatureCollection or GeometryCollection without decoding the rest of the
// record. The wire format never reconstructs a top-level GeoJSON "crs"
// member (spec §4.5/§4.6, §9 open question), so this is the only way to
// recover the SRID a collection was encoded with.
func PeekCRS(wire []byte) (srid, scale uint32, err error) {
	r := newWireReader(wire)
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return 0, 0, err
		}
		if field == fcFieldCRS || field == gcFieldCRS {
			data, err := r.readLenDelimited()
			if err != nil {
				return 0, 0, err
			}
			return decodeCRS(data)
		}
		if err := r.skip(wt); err != nil {
			return 0, 0, err
		}
	}
	return 0, 0, fmt.Errorf("record has no CRS field: %w", ErrMalformedRecord)
}
