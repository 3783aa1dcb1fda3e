package codec

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestCursorEncodeDecodeRoundTrip(t *testing.T) {
	points := []orb.Point{{1.0, 1.0}, {1.0001, 1.0002}, {0.9999, 1.5}}

	enc := &cursor{}
	dxy, err := enc.encodeDeltas(points, DefaultScale)
	if err != nil {
		t.Fatalf("encodeDeltas: %v", err)
	}
	if len(dxy) != len(points)*2 {
		t.Fatalf("dxy length = %d, want %d", len(dxy), len(points)*2)
	}

	dec := &cursor{}
	got, err := dec.decodeDeltas(dxy, DefaultScale)
	if err != nil {
		t.Fatalf("decodeDeltas: %v", err)
	}
	if len(got) != len(points) {
		t.Fatalf("decoded %d points, want %d", len(got), len(points))
	}
	for i, p := range points {
		if absDiff(got[i][0], p[0]) > 1.0/DefaultScale || absDiff(got[i][1], p[1]) > 1.0/DefaultScale {
			t.Errorf("point %d: got %v, want ~%v", i, got[i], p)
		}
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// TestCursorIsSharedAcrossGeometries verifies the cursor continues from
// wherever the previous geometry's encode left it, the mechanism behind
// cross-geometry delta sharing within one collection.
func TestCursorIsSharedAcrossGeometries(t *testing.T) {
	cur := &cursor{}
	_, err := cur.encodeDeltas([]orb.Point{{10, 10}}, DefaultScale)
	if err != nil {
		t.Fatalf("encodeDeltas: %v", err)
	}
	if cur.x == 0 && cur.y == 0 {
		t.Fatal("cursor did not advance after first geometry")
	}

	dxy, err := cur.encodeDeltas([]orb.Point{{10, 10}}, DefaultScale)
	if err != nil {
		t.Fatalf("encodeDeltas: %v", err)
	}
	if dxy[0] != 0 || dxy[1] != 0 {
		t.Errorf("second geometry at same point should delta to zero, got %v", dxy)
	}
}

func TestDecodeDeltasRejectsOddLength(t *testing.T) {
	c := &cursor{}
	if _, err := c.decodeDeltas([]int64{1, 2, 3}, DefaultScale); err == nil {
		t.Error("expected error for odd-length dxy")
	}
}
