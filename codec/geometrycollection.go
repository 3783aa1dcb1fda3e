package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field numbers for the GeometryCollection message (spec §4.8).
const (
	gcFieldCRS        = 1
	gcFieldOrigin     = 2
	gcFieldGeometries = 3
	gcFieldBbox       = 4
	gcFieldExtra      = 5
)

var gcReservedKeys = map[string]bool{
	"type": true, "geometries": true, "bbox": true, "crs": true,
}

// EncodeGeometryCollection implements component G: the same contract as F
// minus the feature wrapper (spec §4.6).
func EncodeGeometryCollection(geojsonBytes []byte, srid, scale uint32) ([]byte, error) {
	if scale == 0 {
		scale = DefaultScale
	}
	if err := validateScale(scale); err != nil {
		return nil, err
	}

	var top map[string]interface{}
	if err := json.Unmarshal(geojsonBytes, &top); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", ErrMalformedCoordinates)
	}

	if t, _ := top["type"].(string); t != "GeometryCollection" {
		return nil, fmt.Errorf("type=%q: %w", top["type"], ErrInvalidTopLevelType)
	}

	rawGeoms, ok := top["geometries"].([]interface{})
	if !ok || len(rawGeoms) == 0 {
		return nil, ErrEmptyGeometries
	}

	flats := make([]FlatGeometry, len(rawGeoms))
	for i, rg := range rawGeoms {
		gm, ok := rg.(map[string]interface{})
		if !ok || gm == nil {
			return nil, fmt.Errorf("geometries[%d]: %w", i, ErrMissingGeometry)
		}
		typeName, _ := gm["type"].(string)
		flat, err := flattenGeometry(typeName, gm["coordinates"], fmt.Sprintf("geometries[%d]", i))
		if err != nil {
			return nil, err
		}
		flats[i] = flat
	}

	if len(flats[0].Points) == 0 {
		return nil, fmt.Errorf("geometries[0]: %w", ErrMissingGeometry)
	}
	origin := flats[0].Points[0]
	ox, err := quantize(origin[0], scale)
	if err != nil {
		return nil, fmt.Errorf("geometries[0].coordinates[0]: %w", err)
	}
	oy, err := quantize(origin[1], scale)
	if err != nil {
		return nil, fmt.Errorf("geometries[0].coordinates[0]: %w", err)
	}

	cur := &cursor{x: ox, y: oy}

	var buf bytes.Buffer
	putLenDelimited(&buf, gcFieldCRS, encodeCRS(srid, scale))
	putLenDelimited(&buf, gcFieldOrigin, encodePoint(ox, oy))

	for i := range rawGeoms {
		dxy, err := cur.encodeDeltas(flats[i].Points, scale)
		if err != nil {
			return nil, fmt.Errorf("geometries[%d]: %w", i, err)
		}
		sg := encodeStreamGeometry(flats[i].Type, dxy, flats[i].PartSizes, flats[i].PolyRingCounts)
		putLenDelimited(&buf, gcFieldGeometries, sg)
	}

	if bb, present := top["bbox"]; present {
		vals, err := validateBbox(bb, "bbox")
		if err != nil {
			return nil, err
		}
		putPackedDouble(&buf, gcFieldBbox, vals)
	}

	extra := collectExtra(top, gcReservedKeys)
	if len(extra.Map) > 0 {
		putLenDelimited(&buf, gcFieldExtra, encodeValue(extra))
	}

	return buf.Bytes(), nil
}

// DecodeGeometryCollection implements component G's decode contract.
func DecodeGeometryCollection(wire []byte) ([]byte, error) {
	r := newWireReader(wire)

	var scale uint32
	var originX, originY int64
	haveOrigin := false
	var geomMsgs [][]byte
	var bbox []float64
	var extra Value

	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch field {
		case gcFieldCRS:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			_, scale, err = decodeCRS(data)
			if err != nil {
				return nil, err
			}
		case gcFieldOrigin:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			originX, originY, err = decodePoint(data)
			if err != nil {
				return nil, err
			}
			haveOrigin = true
		case gcFieldGeometries:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			geomMsgs = append(geomMsgs, data)
		case gcFieldBbox:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			bbox, err = unpackDouble(data)
			if err != nil {
				return nil, err
			}
		case gcFieldExtra:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			extra, err = decodeValue(data)
			if err != nil {
				return nil, err
			}
		default:
			if err := r.skip(wt); err != nil {
				return nil, err
			}
		}
	}

	if scale == 0 {
		return nil, fmt.Errorf("record has no CRS field: %w", ErrMalformedRecord)
	}
	if !haveOrigin {
		return nil, fmt.Errorf("record has no origin field: %w", ErrMalformedRecord)
	}
	if len(geomMsgs) == 0 {
		return nil, fmt.Errorf("record has no geometries: %w", ErrEmptyGeometries)
	}

	cur := &cursor{x: originX, y: originY}

	geometries := make([]interface{}, len(geomMsgs))
	for i, gb := range geomMsgs {
		sg, err := decodeStreamGeometry(gb)
		if err != nil {
			return nil, fmt.Errorf("geometries[%d]: %w", i, err)
		}
		geomObj, err := rebuildGeometry(sg, cur, scale, "geometries", i)
		if err != nil {
			return nil, err
		}
		geometries[i] = geomObj
	}

	top := map[string]interface{}{
		"type":       "GeometryCollection",
		"geometries": geometries,
	}
	if len(bbox) > 0 {
		top["bbox"] = bbox
	}
	mergeExtra(top, extra)

	return json.Marshal(top)
}
