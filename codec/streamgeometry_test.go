package codec

import "testing"

func TestEncodeDecodeStreamGeometryRoundTrip(t *testing.T) {
	dxy := []int64{5, -3, 0, 7}
	sg := encodeStreamGeometry(GeometryLineString, dxy, []int{2}, nil)

	got, err := decodeStreamGeometry(sg)
	if err != nil {
		t.Fatalf("decodeStreamGeometry: %v", err)
	}
	if got.Type != GeometryLineString {
		t.Errorf("type = %v", got.Type)
	}
	if len(got.PartSizes) != 1 || got.PartSizes[0] != 2 {
		t.Errorf("part sizes = %v", got.PartSizes)
	}
	if len(got.Dxy) != 4 {
		t.Fatalf("dxy length = %d", len(got.Dxy))
	}
	for i, v := range dxy {
		if got.Dxy[i] != v {
			t.Errorf("dxy[%d] = %d, want %d", i, got.Dxy[i], v)
		}
	}
}

func TestDecodeStreamGeometryRejectsMissingType(t *testing.T) {
	_, err := decodeStreamGeometry([]byte{})
	if err == nil {
		t.Error("expected error for record with no type field")
	}
}

func TestDecodeStreamGeometryRejectsUnknownType(t *testing.T) {
	sg := encodeStreamGeometry(GeometryType(99), nil, nil, nil)
	if _, err := decodeStreamGeometry(sg); err == nil {
		t.Error("expected error for unknown geometry type tag")
	}
}
