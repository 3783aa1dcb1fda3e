package codec

import (
	"fmt"

	"github.com/paulmach/orb"
)

// buildGeometry is the inverse of flattenGeometry (component C, spec
// §4.2): given a type tag and the flat points/part tables recovered from
// the wire, it reconstructs the nested "coordinates" tree GeoJSON expects.
// It maintains exactly two cursors — a point index pi and a ring-size
// index rsi — and walks the part/ring tables in order; no negative
// indices or stride arithmetic, per spec's "only permitted specification".
func buildGeometry(gtype GeometryType, points []orb.Point, partSizes, polyRingCounts []int) (typeName string, coordinates interface{}, err error) {
	typeName = gtype.String()

	switch gtype {
	case GeometryPoint:
		if len(points) != 1 {
			return "", nil, fmt.Errorf("Point expects exactly 1 point, got %d: %w", len(points), ErrMalformedRecord)
		}
		return typeName, pointCoords(points[0]), nil

	case GeometryMultiPoint, GeometryLineString:
		if gtype.isMultiPart() && len(partSizes) == 0 {
			return "", nil, fmt.Errorf("%w", ErrMalformedRecord)
		}
		if err := checkPartSum(partSizes, len(points)); err != nil {
			return "", nil, err
		}
		return typeName, pointListCoords(points), nil

	case GeometryMultiLineString:
		if len(partSizes) == 0 {
			return "", nil, fmt.Errorf("%w", ErrMalformedRecord)
		}
		if err := checkPartSum(partSizes, len(points)); err != nil {
			return "", nil, err
		}
		lines, err := splitByParts(points, partSizes)
		if err != nil {
			return "", nil, err
		}
		out := make([]interface{}, len(lines))
		for i, line := range lines {
			out[i] = pointListCoords(line)
		}
		return typeName, out, nil

	case GeometryPolygon:
		if err := checkPartSum(partSizes, len(points)); err != nil {
			return "", nil, err
		}
		rings, err := splitByParts(points, partSizes)
		if err != nil {
			return "", nil, err
		}
		out := make([]interface{}, len(rings))
		for i, ring := range rings {
			out[i] = pointListCoords(closeRing(ring))
		}
		return typeName, out, nil

	case GeometryMultiPolygon:
		if len(partSizes) == 0 || len(polyRingCounts) == 0 {
			return "", nil, fmt.Errorf("%w", ErrMalformedRecord)
		}
		if err := checkPartSum(partSizes, len(points)); err != nil {
			return "", nil, err
		}
		sum := 0
		for _, c := range polyRingCounts {
			sum += c
		}
		if sum != len(partSizes) {
			return "", nil, fmt.Errorf("sum(poly_ring_counts)=%d != len(part_sizes)=%d: %w", sum, len(partSizes), ErrMalformedRecord)
		}
		rings, err := splitByParts(points, partSizes)
		if err != nil {
			return "", nil, err
		}
		out := make([]interface{}, len(polyRingCounts))
		rsi := 0 // ring-size index: which entry of partSizes/rings we're on
		for pi, ringCount := range polyRingCounts {
			polyRings := make([]interface{}, ringCount)
			for j := 0; j < ringCount; j++ {
				polyRings[j] = pointListCoords(closeRing(rings[rsi]))
				rsi++
			}
			out[pi] = polyRings
		}
		return typeName, out, nil
	}

	return "", nil, fmt.Errorf("%w", ErrUnsupportedGeometry)
}

// checkPartSum enforces invariant I2: sum(part_sizes) == P for
// part-using types.
func checkPartSum(partSizes []int, total int) error {
	sum := 0
	for _, s := range partSizes {
		sum += s
	}
	if sum != total {
		return fmt.Errorf("sum(part_sizes)=%d != point count=%d: %w", sum, total, ErrMalformedRecord)
	}
	return nil
}

// splitByParts slices points into contiguous runs sized by partSizes,
// advancing a single point-index cursor pi; never indexes from the end or
// strides by a computed offset.
func splitByParts(points []orb.Point, partSizes []int) ([][]orb.Point, error) {
	out := make([][]orb.Point, len(partSizes))
	pi := 0
	for i, size := range partSizes {
		if pi+size > len(points) {
			return nil, fmt.Errorf("part %d needs %d points but only %d remain: %w", i, size, len(points)-pi, ErrMalformedRecord)
		}
		out[i] = points[pi : pi+size]
		pi += size
	}
	return out, nil
}

// closeRing reappends the first coordinate to a non-empty ring (spec §4.2
// closure policy, decode direction).
func closeRing(ring []orb.Point) []orb.Point {
	if len(ring) == 0 {
		return ring
	}
	closed := make([]orb.Point, len(ring)+1)
	copy(closed, ring)
	closed[len(ring)] = ring[0]
	return closed
}

func pointCoords(p orb.Point) []interface{} {
	return []interface{}{p[0], p[1]}
}

func pointListCoords(points []orb.Point) []interface{} {
	out := make([]interface{}, len(points))
	for i, p := range points {
		out[i] = pointCoords(p)
	}
	return out
}
