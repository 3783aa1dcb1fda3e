package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func coords(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal coordinates: %v", err)
	}
	return v
}

func TestFlattenPoint(t *testing.T) {
	fg, err := flattenGeometry("Point", coords(t, `[1.5, 2.5]`), "$")
	if err != nil {
		t.Fatalf("flattenGeometry: %v", err)
	}
	if fg.Type != GeometryPoint {
		t.Errorf("type = %v", fg.Type)
	}
	if len(fg.Points) != 1 || fg.Points[0] != (orb.Point{1.5, 2.5}) {
		t.Errorf("points = %v", fg.Points)
	}
	if len(fg.PartSizes) != 0 {
		t.Errorf("Point should not carry part sizes, got %v", fg.PartSizes)
	}
}

func TestFlattenPolygonStripsClosure(t *testing.T) {
	fg, err := flattenGeometry("Polygon", coords(t, `[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`), "$")
	if err != nil {
		t.Fatalf("flattenGeometry: %v", err)
	}
	if len(fg.Points) != 4 {
		t.Fatalf("expected closure stripped to 4 points, got %d", len(fg.Points))
	}
	if fg.PartSizes[0] != 4 {
		t.Errorf("part size = %d, want 4", fg.PartSizes[0])
	}
}

func TestFlattenMultiPolygon(t *testing.T) {
	fg, err := flattenGeometry("MultiPolygon", coords(t, `[
		[[[0,0],[1,0],[1,1],[0,0]]],
		[[[5,5],[6,5],[6,6],[5,5]],[[5.2,5.2],[5.4,5.2],[5.4,5.4],[5.2,5.2]]]
	]`), "$")
	if err != nil {
		t.Fatalf("flattenGeometry: %v", err)
	}
	if len(fg.PolyRingCounts) != 2 || fg.PolyRingCounts[0] != 1 || fg.PolyRingCounts[1] != 2 {
		t.Errorf("poly ring counts = %v", fg.PolyRingCounts)
	}
	if len(fg.PartSizes) != 3 {
		t.Errorf("expected 3 rings total, got %d", len(fg.PartSizes))
	}
}

func TestFlattenRejectsUnsupportedType(t *testing.T) {
	_, err := flattenGeometry("GeometryCollection", coords(t, `[]`), "$")
	if !errors.Is(err, ErrUnsupportedGeometry) {
		t.Errorf("expected ErrUnsupportedGeometry, got %v", err)
	}
}

func TestFlattenRejectsEmptyMultiPoint(t *testing.T) {
	_, err := flattenGeometry("MultiPoint", coords(t, `[]`), "$")
	if !errors.Is(err, ErrEmptyGeometry) {
		t.Errorf("expected ErrEmptyGeometry, got %v", err)
	}
}

func TestFlattenRejectsNonNumericLeaf(t *testing.T) {
	_, err := flattenGeometry("Point", coords(t, `["a","b"]`), "$")
	if !errors.Is(err, ErrMalformedCoordinates) {
		t.Errorf("expected ErrMalformedCoordinates, got %v", err)
	}
}

func TestStripClosureNoopWhenNotClosed(t *testing.T) {
	ring := []orb.Point{{0, 0}, {1, 0}, {1, 1}}
	got := stripClosure(ring)
	if len(got) != 3 {
		t.Errorf("expected unclosed ring untouched, got %v", got)
	}
}
