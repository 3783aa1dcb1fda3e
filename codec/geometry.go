package codec

import "fmt"

// GeometryType is the wire type tag for the six accepted GeoJSON geometry
// variants (spec §3, "Geometry record"). GeometryCollection never appears
// nested inside a Feature; collections are top-level only.
type GeometryType uint32

const (
	GeometryPoint GeometryType = iota + 1
	GeometryMultiPoint
	GeometryLineString
	GeometryMultiLineString
	GeometryPolygon
	GeometryMultiPolygon
)

var geometryTypeNames = map[string]GeometryType{
	"Point":           GeometryPoint,
	"MultiPoint":      GeometryMultiPoint,
	"LineString":      GeometryLineString,
	"MultiLineString": GeometryMultiLineString,
	"Polygon":         GeometryPolygon,
	"MultiPolygon":    GeometryMultiPolygon,
}

var geometryTypeStrings = map[GeometryType]string{
	GeometryPoint:           "Point",
	GeometryMultiPoint:      "MultiPoint",
	GeometryLineString:      "LineString",
	GeometryMultiLineString: "MultiLineString",
	GeometryPolygon:         "Polygon",
	GeometryMultiPolygon:    "MultiPolygon",
}

func parseGeometryType(name string) (GeometryType, error) {
	t, ok := geometryTypeNames[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnsupportedGeometry)
	}
	return t, nil
}

func (t GeometryType) String() string {
	if s, ok := geometryTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("GeometryType(%d)", uint32(t))
}

// usesParts reports whether the topology table's part_sizes field carries
// meaning for this type (spec §4.2 table). Point never does.
func (t GeometryType) usesParts() bool {
	return t != GeometryPoint
}

// usesPolyRingCounts reports whether poly_ring_counts is populated for this
// type; only MultiPolygon nests two levels of parts.
func (t GeometryType) usesPolyRingCounts() bool {
	return t == GeometryMultiPolygon
}

// isMultiPart reports whether an empty collection of this type is an
// EmptyGeometry failure on encode (spec §4.2 edge cases).
func (t GeometryType) isMultiPart() bool {
	switch t {
	case GeometryMultiPoint, GeometryMultiLineString, GeometryMultiPolygon:
		return true
	default:
		return false
	}
}
