package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func pointFC(lon, lat float64) []byte {
	return fc(fmt.Sprintf(`{"type":"Feature","properties":null,"geometry":{"type":"Point","coordinates":[%g,%g]}}`, lon, lat))
}

func TestEncodeBatchPreservesOrder(t *testing.T) {
	inputs := []BatchInput{
		{GeoJSON: pointFC(0, 0), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(1, 1), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(2, 2), SRID: testSRID, Scale: testScale},
	}
	out, err := EncodeBatch(context.Background(), inputs, 2)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d results, want 3", len(out))
	}
	for i, wire := range out {
		top := mustDecodeTop(t, wire)
		coords := top["features"].([]interface{})[0].(map[string]interface{})["geometry"].(map[string]interface{})["coordinates"].([]interface{})
		if coords[0].(float64) != float64(i) || coords[1].(float64) != float64(i) {
			t.Errorf("result %d: coords = %v, want [%d, %d]", i, coords, i, i)
		}
	}
}

func TestEncodeBatchIndependentCursors(t *testing.T) {
	// Each batch member gets its own cursor seeded at its own origin; a
	// far-apart second collection must not inherit the first's position.
	inputs := []BatchInput{
		{GeoJSON: pointFC(0, 0), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(100, 100), SRID: testSRID, Scale: testScale},
	}
	out, err := EncodeBatch(context.Background(), inputs, 2)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	top := mustDecodeTop(t, out[1])
	coords := top["features"].([]interface{})[0].(map[string]interface{})["geometry"].(map[string]interface{})["coordinates"].([]interface{})
	if coords[0].(float64) != 100 || coords[1].(float64) != 100 {
		t.Errorf("coords = %v, want [100, 100]", coords)
	}
}

func TestEncodeBatchPropagatesFirstError(t *testing.T) {
	inputs := []BatchInput{
		{GeoJSON: pointFC(0, 0), SRID: testSRID, Scale: testScale},
		{GeoJSON: []byte(`{"type":"GeometryCollection"}`), SRID: testSRID, Scale: testScale},
	}
	_, err := EncodeBatch(context.Background(), inputs, 2)
	if !errors.Is(err, ErrInvalidTopLevelType) {
		t.Errorf("expected ErrInvalidTopLevelType, got %v", err)
	}
}

func TestDecodeBatchRoundTrip(t *testing.T) {
	inputs := []BatchInput{
		{GeoJSON: pointFC(0, 0), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(5, 5), SRID: testSRID, Scale: testScale},
	}
	wires, err := EncodeBatch(context.Background(), inputs, 2)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	decoded, err := DecodeBatch(context.Background(), wires, KindFeatureCollection, 2)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d results, want 2", len(decoded))
	}
}

func TestBatchGeometryCollectionKind(t *testing.T) {
	inputs := []BatchInput{
		{GeoJSON: gc(`{"type":"Point","coordinates":[1,1]}`), SRID: testSRID, Scale: testScale, Kind: KindGeometryCollection},
	}
	wires, err := EncodeBatch(context.Background(), inputs, 2)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	decoded, err := DecodeBatch(context.Background(), wires, KindGeometryCollection, 2)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	var top map[string]interface{}
	if err := json.Unmarshal(decoded[0], &top); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if top["type"] != "GeometryCollection" {
		t.Errorf("type = %v, want GeometryCollection", top["type"])
	}
}

func TestEncodeBatchMaxConcurrencyOneStillCompletes(t *testing.T) {
	inputs := []BatchInput{
		{GeoJSON: pointFC(0, 0), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(1, 1), SRID: testSRID, Scale: testScale},
		{GeoJSON: pointFC(2, 2), SRID: testSRID, Scale: testScale},
	}
	out, err := EncodeBatch(context.Background(), inputs, 1)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d results, want 3", len(out))
	}
	decoded, err := DecodeBatch(context.Background(), out, KindFeatureCollection, 1)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d results, want 3", len(decoded))
	}
}
