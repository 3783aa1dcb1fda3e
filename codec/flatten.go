package codec

import (
	"fmt"

	"github.com/paulmach/orb"
)

// FlatGeometry is the output of the Geometry Flattener (component B): a
// type tag plus the flat point sequence and the two part tables the
// topology table (spec §4.2) assigns per variant.
type FlatGeometry struct {
	Type           GeometryType
	Points         []orb.Point
	PartSizes      []int
	PolyRingCounts []int
}

// flattenGeometry walks a decoded GeoJSON geometry object's "coordinates"
// tree (as produced by encoding/json.Unmarshal into interface{}) and
// produces a FlatGeometry per the topology table in spec §4.2. path is the
// JSON path of the geometry object, used to prefix error messages.
func flattenGeometry(typeName string, coordinates interface{}, path string) (FlatGeometry, error) {
	gtype, err := parseGeometryType(typeName)
	if err != nil {
		return FlatGeometry{}, fmt.Errorf("%s.type: %w", path, err)
	}

	switch gtype {
	case GeometryPoint:
		pt, err := coordPoint(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		return FlatGeometry{Type: gtype, Points: []orb.Point{pt}}, nil

	case GeometryMultiPoint:
		pts, err := coordPointList(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		if len(pts) == 0 {
			return FlatGeometry{}, fmt.Errorf("%s: %w", path, ErrEmptyGeometry)
		}
		return FlatGeometry{Type: gtype, Points: pts, PartSizes: []int{len(pts)}}, nil

	case GeometryLineString:
		pts, err := coordPointList(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		return FlatGeometry{Type: gtype, Points: pts, PartSizes: []int{len(pts)}}, nil

	case GeometryMultiLineString:
		lines, err := coordLineList(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		if len(lines) == 0 {
			return FlatGeometry{}, fmt.Errorf("%s: %w", path, ErrEmptyGeometry)
		}
		var pts []orb.Point
		sizes := make([]int, len(lines))
		for i, line := range lines {
			pts = append(pts, line...)
			sizes[i] = len(line)
		}
		return FlatGeometry{Type: gtype, Points: pts, PartSizes: sizes}, nil

	case GeometryPolygon:
		rings, err := coordLineList(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		var pts []orb.Point
		sizes := make([]int, len(rings))
		for i, ring := range rings {
			stripped := stripClosure(ring)
			pts = append(pts, stripped...)
			sizes[i] = len(stripped)
		}
		return FlatGeometry{Type: gtype, Points: pts, PartSizes: sizes}, nil

	case GeometryMultiPolygon:
		polys, err := coordPolyList(coordinates, path+".coordinates")
		if err != nil {
			return FlatGeometry{}, err
		}
		if len(polys) == 0 {
			return FlatGeometry{}, fmt.Errorf("%s: %w", path, ErrEmptyGeometry)
		}
		var pts []orb.Point
		var sizes []int
		ringCounts := make([]int, len(polys))
		for i, poly := range polys {
			ringCounts[i] = len(poly)
			for _, ring := range poly {
				stripped := stripClosure(ring)
				pts = append(pts, stripped...)
				sizes = append(sizes, len(stripped))
			}
		}
		return FlatGeometry{Type: gtype, Points: pts, PartSizes: sizes, PolyRingCounts: ringCounts}, nil
	}

	return FlatGeometry{}, fmt.Errorf("%s.type: %w", path, ErrUnsupportedGeometry)
}

// stripClosure removes a ring's trailing coordinate when it equals the
// first (spec §4.2 closure policy). A ring of length 1 after stripping is
// passed through unchanged — malformed input is echoed back equivalently.
func stripClosure(ring []orb.Point) []orb.Point {
	if len(ring) < 2 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first == last {
		return ring[:len(ring)-1]
	}
	return ring
}

func coordPoint(v interface{}, path string) (orb.Point, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) < 2 {
		return orb.Point{}, fmt.Errorf("%s: %w", path, ErrMalformedCoordinates)
	}
	x, ok1 := arr[0].(float64)
	y, ok2 := arr[1].(float64)
	if !ok1 || !ok2 {
		return orb.Point{}, fmt.Errorf("%s: %w", path, ErrMalformedCoordinates)
	}
	// A third (or further) ordinate is 3D/M data; dropped silently (spec
	// §4.2 edge cases: "document this as lossy").
	return orb.Point{x, y}, nil
}

func coordPointList(v interface{}, path string) ([]orb.Point, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformedCoordinates)
	}
	out := make([]orb.Point, len(arr))
	for i, item := range arr {
		pt, err := coordPoint(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

func coordLineList(v interface{}, path string) ([][]orb.Point, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformedCoordinates)
	}
	out := make([][]orb.Point, len(arr))
	for i, item := range arr {
		line, err := coordPointList(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = line
	}
	return out, nil
}

func coordPolyList(v interface{}, path string) ([][][]orb.Point, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformedCoordinates)
	}
	out := make([][][]orb.Point, len(arr))
	for i, item := range arr {
		rings, err := coordLineList(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = rings
	}
	return out, nil
}
