package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field numbers for the top-level Crs, Point (origin), Feature, and
// FeatureCollection messages (spec §4.8).
const (
	crsFieldSRID  = 1
	crsFieldScale = 2

	originFieldX = 1
	originFieldY = 2

	featureFieldGeometry   = 1
	featureFieldProperties = 2
	featureFieldID         = 3
	featureFieldBbox       = 4
	featureFieldExtra      = 5

	fcFieldCRS      = 1
	fcFieldOrigin   = 2
	fcFieldFeatures = 3
	fcFieldBbox     = 4
	fcFieldName     = 5
	fcFieldExtra    = 6
)

var fcReservedKeys = map[string]bool{
	"type": true, "features": true, "bbox": true, "name": true, "crs": true,
}

var featureReservedKeys = map[string]bool{
	"type": true, "geometry": true, "properties": true, "id": true, "bbox": true,
}

// EncodeFeatureCollection implements component F's encode contract (spec
// §4.5): validates top-level shape, derives the collection origin from the
// first feature's first coordinate, then threads every feature's geometry
// through one delta cursor.
func EncodeFeatureCollection(geojsonBytes []byte, srid, scale uint32) ([]byte, error) {
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

	if t, _ := top["type"].(string); t != "FeatureCollection" {
		return nil, fmt.Errorf("type=%q: %w", top["type"], ErrInvalidTopLevelType)
	}

	rawFeatures, ok := top["features"].([]interface{})
	if !ok || len(rawFeatures) == 0 {
		return nil, ErrEmptyFeatures
	}

	flats := make([]FlatGeometry, len(rawFeatures))
	geomTypeNames := make([]string, len(rawFeatures))
	for i, rf := range rawFeatures {
		fm, ok := rf.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("features[%d]: %w", i, ErrMalformedCoordinates)
		}
		gm, ok := fm["geometry"].(map[string]interface{})
		if !ok || gm == nil {
			return nil, fmt.Errorf("features[%d].geometry: %w", i, ErrMissingGeometry)
		}
		typeName, _ := gm["type"].(string)
		flat, err := flattenGeometry(typeName, gm["coordinates"], fmt.Sprintf("features[%d].geometry", i))
		if err != nil {
			return nil, err
		}
		flats[i] = flat
		geomTypeNames[i] = typeName
	}

	if len(flats[0].Points) == 0 {
		return nil, fmt.Errorf("features[0].geometry: %w", ErrMissingGeometry)
	}
	origin := flats[0].Points[0]
	ox, err := quantize(origin[0], scale)
	if err != nil {
		return nil, fmt.Errorf("features[0].geometry.coordinates[0]: %w", err)
	}
	oy, err := quantize(origin[1], scale)
	if err != nil {
		return nil, fmt.Errorf("features[0].geometry.coordinates[0]: %w", err)
	}

	cur := &cursor{x: ox, y: oy}

	var buf bytes.Buffer
	putLenDelimited(&buf, fcFieldCRS, encodeCRS(srid, scale))
	putLenDelimited(&buf, fcFieldOrigin, encodePoint(ox, oy))

	for i, rf := range rawFeatures {
		fm := rf.(map[string]interface{})
		dxy, err := cur.encodeDeltas(flats[i].Points, scale)
		if err != nil {
			return nil, fmt.Errorf("features[%d].geometry: %w", i, err)
		}
		sg := encodeStreamGeometry(flats[i].Type, dxy, flats[i].PartSizes, flats[i].PolyRingCounts)

		featureBytes, err := encodeFeatureBody(fm, sg, i)
		if err != nil {
			return nil, err
		}
		putLenDelimited(&buf, fcFieldFeatures, featureBytes)
	}

	if bb, present := top["bbox"]; present {
		vals, err := validateBbox(bb, "bbox")
		if err != nil {
			return nil, err
		}
		putPackedDouble(&buf, fcFieldBbox, vals)
	}

	if name, ok := top["name"].(string); ok && name != "" {
		putLenDelimited(&buf, fcFieldName, []byte(name))
	}

	extra := collectExtra(top, fcReservedKeys)
	if len(extra.Map) > 0 {
		putLenDelimited(&buf, fcFieldExtra, encodeValue(extra))
	}

	return buf.Bytes(), nil
}

func encodeFeatureBody(fm map[string]interface{}, streamGeometry []byte, index int) ([]byte, error) {
	var buf bytes.Buffer
	putLenDelimited(&buf, featureFieldGeometry, streamGeometry)

	propsVal, err := propertiesValue(fm["properties"], fmt.Sprintf("features[%d].properties", index))
	if err != nil {
		return nil, err
	}
	// properties:null is represented as the empty map on the wire (spec
	// §4.4); the field is always written so decode can tell "present and
	// empty" apart from "absent".
	putLenDelimited(&buf, featureFieldProperties, encodeValue(propsVal))

	if idRaw, present := fm["id"]; present {
		idStr, err := idToString(idRaw, fmt.Sprintf("features[%d].id", index))
		if err != nil {
			return nil, err
		}
		putLenDelimited(&buf, featureFieldID, []byte(idStr))
	}

	if bb, present := fm["bbox"]; present {
		vals, err := validateBbox(bb, fmt.Sprintf("features[%d].bbox", index))
		if err != nil {
			return nil, err
		}
		putPackedDouble(&buf, featureFieldBbox, vals)
	}

	extra := collectExtra(fm, featureReservedKeys)
	if len(extra.Map) > 0 {
		putLenDelimited(&buf, featureFieldExtra, encodeValue(extra))
	}

	return buf.Bytes(), nil
}

// propertiesValue converts a feature's raw "properties" member to a Value,
// normalizing null to the empty map for the wire (spec §4.4 policy).
func propertiesValue(raw interface{}, path string) (Value, error) {
	if raw == nil {
		return mapValue(nil), nil
	}
	v, err := valueFromAny(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", path, err)
	}
	if v.Kind != ValueMap {
		return Value{}, fmt.Errorf("%s: properties must be an object or null: %w", path, ErrMalformedCoordinates)
	}
	return v, nil
}

func idToString(raw interface{}, path string) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		// Open question (spec §9): numeric id is coerced to string
		// unconditionally, lossy for clients expecting a numeric id.
		return formatIDNumber(v), nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrInvalidIDType)
	}
}

func formatIDNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func validateBbox(raw interface{}, path string) ([]float64, error) {
	arr, ok := raw.([]interface{})
	if !ok || (len(arr) != 4 && len(arr) != 6) {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformedBbox)
	}
	out := make([]float64, len(arr))
	for i, item := range arr {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, ErrMalformedBbox)
		}
		out[i] = f
	}
	return out, nil
}

func collectExtra(m map[string]interface{}, reserved map[string]bool) Value {
	extra := map[string]Value{}
	for k, v := range m {
		if reserved[k] {
			continue
		}
		val, err := valueFromAny(v)
		if err != nil {
			continue // unrepresentable extra values are dropped, not fatal
		}
		extra[k] = val
	}
	return mapValue(extra)
}

func encodeCRS(srid, scale uint32) []byte {
	var buf bytes.Buffer
	putUint32Field(&buf, crsFieldSRID, srid)
	putUint32Field(&buf, crsFieldScale, scale)
	return buf.Bytes()
}

func decodeCRS(data []byte) (srid, scale uint32, err error) {
	r := newWireReader(data)
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return 0, 0, err
		}
		switch field {
		case crsFieldSRID:
			n, err := r.readUvarint()
			if err != nil {
				return 0, 0, err
			}
			srid = uint32(n)
		case crsFieldScale:
			n, err := r.readUvarint()
			if err != nil {
				return 0, 0, err
			}
			scale = uint32(n)
		default:
			if err := r.skip(wt); err != nil {
				return 0, 0, err
			}
		}
	}
	return srid, scale, nil
}

func encodePoint(x, y int64) []byte {
	var buf bytes.Buffer
	putSint64Field(&buf, originFieldX, x)
	putSint64Field(&buf, originFieldY, y)
	return buf.Bytes()
}

func decodePoint(data []byte) (x, y int64, err error) {
	r := newWireReader(data)
	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return 0, 0, err
		}
		switch field {
		case originFieldX:
			n, err := r.readUvarint()
			if err != nil {
				return 0, 0, err
			}
			x = zigzagDecode(n)
		case originFieldY:
			n, err := r.readUvarint()
			if err != nil {
				return 0, 0, err
			}
			y = zigzagDecode(n)
		default:
			if err := r.skip(wt); err != nil {
				return 0, 0, err
			}
		}
	}
	return x, y, nil
}

// DecodeFeatureCollection implements component F's decode contract: it
// reproduces every field that was present on encode, re-applying the
// properties empty-map/null asymmetry and never reconstructing a top-level
// "crs" member (spec §4.5 decode contract; §9 open question on CRS).
func DecodeFeatureCollection(wire []byte) ([]byte, error) {
	r := newWireReader(wire)

	var scale uint32
	var originX, originY int64
	haveOrigin := false
	var featureMsgs [][]byte
	var bbox []float64
	var name string
	var extra Value

	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch field {
		case fcFieldCRS:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			_, scale, err = decodeCRS(data)
			if err != nil {
				return nil, err
			}
		case fcFieldOrigin:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			originX, originY, err = decodePoint(data)
			if err != nil {
				return nil, err
			}
			haveOrigin = true
		case fcFieldFeatures:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			featureMsgs = append(featureMsgs, data)
		case fcFieldBbox:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			bbox, err = unpackDouble(data)
			if err != nil {
				return nil, err
			}
		case fcFieldName:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			name = string(data)
		case fcFieldExtra:
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
	if len(featureMsgs) == 0 {
		return nil, fmt.Errorf("record has no features: %w", ErrEmptyFeatures)
	}

	cur := &cursor{x: originX, y: originY}

	top := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": []interface{}{},
	}
	features := make([]interface{}, len(featureMsgs))
	for i, fb := range featureMsgs {
		fMap, err := decodeFeatureBody(fb, cur, scale, i)
		if err != nil {
			return nil, err
		}
		features[i] = fMap
	}
	top["features"] = features

	if len(bbox) > 0 {
		top["bbox"] = bbox
	}
	if name != "" {
		top["name"] = name
	}
	mergeExtra(top, extra)

	return json.Marshal(top)
}

func decodeFeatureBody(data []byte, cur *cursor, scale uint32, index int) (map[string]interface{}, error) {
	r := newWireReader(data)

	fm := map[string]interface{}{"type": "Feature"}
	var haveGeometry bool
	var propsVal Value
	havePropsVal := false
	var extra Value

	for !r.done() {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch field {
		case featureFieldGeometry:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			sg, err := decodeStreamGeometry(data)
			if err != nil {
				return nil, fmt.Errorf("features[%d].geometry: %w", index, err)
			}
			geomObj, err := rebuildGeometry(sg, cur, scale, "features", index)
			if err != nil {
				return nil, err
			}
			fm["geometry"] = geomObj
			haveGeometry = true
		case featureFieldProperties:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			propsVal, err = decodeValue(data)
			if err != nil {
				return nil, err
			}
			havePropsVal = true
		case featureFieldID:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			fm["id"] = string(data)
		case featureFieldBbox:
			data, err := r.readLenDelimited()
			if err != nil {
				return nil, err
			}
			vals, err := unpackDouble(data)
			if err != nil {
				return nil, err
			}
			fm["bbox"] = vals
		case featureFieldExtra:
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

	if !haveGeometry {
		return nil, fmt.Errorf("features[%d]: %w", index, ErrMissingGeometry)
	}

	// properties empty-map <-> null asymmetry (spec §4.4 policy).
	if havePropsVal && !propsVal.isEmptyMap() {
		fm["properties"] = propsVal.toAny()
	} else {
		fm["properties"] = nil
	}

	mergeExtra(fm, extra)
	return fm, nil
}

// rebuildGeometry decodes one StreamGeometry's deltas against the shared
// cursor and reconstructs its nested coordinate tree (components C and D
// composed).
func rebuildGeometry(sg decodedStreamGeometry, cur *cursor, scale uint32, container string, index int) (map[string]interface{}, error) {
	points, err := cur.decodeDeltas(sg.Dxy, scale)
	if err != nil {
		return nil, fmt.Errorf("%s[%d].geometry: %w", container, index, err)
	}
	if err := checkGeometryShape(sg.Type, len(points), sg.PartSizes, sg.PolyRingCounts); err != nil {
		return nil, fmt.Errorf("%s[%d].geometry: %w", container, index, err)
	}
	typeName, coords, err := buildGeometry(sg.Type, points, sg.PartSizes, sg.PolyRingCounts)
	if err != nil {
		return nil, fmt.Errorf("%s[%d].geometry: %w", container, index, err)
	}
	return map[string]interface{}{"type": typeName, "coordinates": coords}, nil
}

// checkGeometryShape enforces the decode-side edge cases spec §4.2
// specifies ahead of building nested arrays: a type that requires
// part_sizes but has none is MalformedRecord, and Point must carry
// exactly one point (invariant I4).
func checkGeometryShape(gtype GeometryType, pointCount int, partSizes, polyRingCounts []int) error {
	if gtype.isMultiPart() && len(partSizes) == 0 {
		return ErrMalformedRecord
	}
	if gtype == GeometryPoint {
		if pointCount != 1 || len(partSizes) != 0 || len(polyRingCounts) != 0 {
			return ErrMalformedRecord
		}
	}
	if gtype != GeometryMultiPolygon && len(polyRingCounts) != 0 {
		return ErrMalformedRecord
	}
	return nil
}

func mergeExtra(m map[string]interface{}, extra Value) {
	if extra.Kind != ValueMap {
		return
	}
	for k, v := range extra.Map {
		m[k] = v.toAny()
	}
}
