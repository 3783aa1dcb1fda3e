package codec

import (
	"fmt"

	"github.com/paulmach/orb"
)

// cursor is the only piece of mutable state in the whole codec (spec §4.7
// state machine): a running integer coordinate pair that delta-encodes or
// delta-decodes successive points. It is shared across every geometry in
// one collection (spec §4.3, §I6) and seeded from the collection's origin.
type cursor struct {
	x, y int64
}

// encodeDeltas quantizes each point and emits its delta against the
// cursor, advancing the cursor to each point's absolute quantized value as
// it goes (spec §4.3 encode algorithm).
func (c *cursor) encodeDeltas(points []orb.Point, scale uint32) ([]int64, error) {
	out := make([]int64, 0, len(points)*2)
	for i, p := range points {
		qx, err := quantize(p[0], scale)
		if err != nil {
			return nil, fmt.Errorf("points[%d].x: %w", i, err)
		}
		qy, err := quantize(p[1], scale)
		if err != nil {
			return nil, fmt.Errorf("points[%d].y: %w", i, err)
		}
		out = append(out, qx-c.x, qy-c.y)
		c.x, c.y = qx, qy
	}
	return out, nil
}

// decodeDeltas consumes a flat dxy sequence and emits the absolute
// dequantized points, advancing the cursor as it goes (spec §4.3 decode
// algorithm). dxy must have even length (invariant I1).
func (c *cursor) decodeDeltas(dxy []int64, scale uint32) ([]orb.Point, error) {
	if len(dxy)%2 != 0 {
		return nil, fmt.Errorf("dxy has odd length %d: %w", len(dxy), ErrMalformedRecord)
	}
	points := make([]orb.Point, len(dxy)/2)
	for i := 0; i < len(dxy); i += 2 {
		c.x += dxy[i]
		c.y += dxy[i+1]
		points[i/2] = orb.Point{dequantize(c.x, scale), dequantize(c.y, scale)}
	}
	return points, nil
}
