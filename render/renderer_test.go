package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/kwv/geofc/codec"
)

func encodedFeatureCollection(t *testing.T) []byte {
	t.Helper()
	input := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":null,"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
		{"type":"Feature","properties":null,"geometry":{"type":"Point","coordinates":[0.5,0.5]}}
	]}`)
	wire, err := codec.EncodeFeatureCollection(input, 4326, codec.DefaultScale)
	if err != nil {
		t.Fatalf("EncodeFeatureCollection: %v", err)
	}
	decoded, err := codec.DecodeFeatureCollection(wire)
	if err != nil {
		t.Fatalf("DecodeFeatureCollection: %v", err)
	}
	return decoded
}

func TestRasterRenderFeatureCollectionProducesValidPNG(t *testing.T) {
	geojsonBytes := encodedFeatureCollection(t)

	var buf bytes.Buffer
	if err := NewRaster().RenderFeatureCollection(geojsonBytes, &buf); err != nil {
		t.Fatalf("RenderFeatureCollection: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty PNG output")
	}
	if _, err := png.Decode(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
}

func TestRasterRenderGeometryCollectionProducesValidPNG(t *testing.T) {
	input := []byte(`{"type":"GeometryCollection","geometries":[
		{"type":"LineString","coordinates":[[0,0],[1,1],[2,0]]}
	]}`)
	wire, err := codec.EncodeGeometryCollection(input, 4326, codec.DefaultScale)
	if err != nil {
		t.Fatalf("EncodeGeometryCollection: %v", err)
	}
	decoded, err := codec.DecodeGeometryCollection(wire)
	if err != nil {
		t.Fatalf("DecodeGeometryCollection: %v", err)
	}

	var buf bytes.Buffer
	if err := NewRaster().RenderGeometryCollection(decoded, &buf); err != nil {
		t.Fatalf("RenderGeometryCollection: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
}

func TestBoundsEmptyGeometrySliceIsZero(t *testing.T) {
	minX, minY, maxX, maxY := bounds(nil)
	if minX != 0 || minY != 0 || maxX != 0 || maxY != 0 {
		t.Errorf("bounds(nil) = (%v, %v, %v, %v), want all zero", minX, minY, maxX, maxY)
	}
}
