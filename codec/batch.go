package codec

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CollectionKind selects which top-level codec a batch operation applies,
// since FeatureCollection and GeometryCollection wire records are not
// self-describing about which wrapper produced them.
type CollectionKind int

const (
	KindFeatureCollection CollectionKind = iota
	KindGeometryCollection
)

// BatchInput pairs one collection's GeoJSON bytes with its own SRID/scale,
// since spec §6 allows scale/srid to vary per call.
type BatchInput struct {
	GeoJSON []byte
	SRID    uint32
	Scale   uint32
	Kind    CollectionKind
}

// EncodeBatch encodes independent top-level collections concurrently.
// Spec §5 explicitly allows parallelizing across top-level collections
// because each collection's delta cursor is private to that call; it MUST
// NOT be used to split a single collection's stream across goroutines,
// which is why encodeDeltas/cursor are never exposed outside this package.
// Results are returned in input order; the first error encountered is
// returned and collections not yet started are skipped (one already being
// encoded runs to completion). maxConcurrency caps the
// number of collections encoded at once (BatchConfig.MaxConcurrency); values
// <= 0 leave the fan-out unbounded.
func EncodeBatch(ctx context.Context, inputs []BatchInput, maxConcurrency int) ([][]byte, error) {
	out := make([][]byte, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var (
				b   []byte
				err error
			)
			switch in.Kind {
			case KindGeometryCollection:
				b, err = EncodeGeometryCollection(in.GeoJSON, in.SRID, in.Scale)
			default:
				b, err = EncodeFeatureCollection(in.GeoJSON, in.SRID, in.Scale)
			}
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBatch is EncodeBatch's inverse: decodes independent wire records of
// the same CollectionKind concurrently, returning GeoJSON bytes in input
// order. maxConcurrency caps the number decoded at once; values <= 0 leave
// the fan-out unbounded.
func DecodeBatch(ctx context.Context, wires [][]byte, kind CollectionKind, maxConcurrency int) ([][]byte, error) {
	out := make([][]byte, len(wires))
	g, _ := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, w := range wires {
		i, w := i, w
		g.Go(func() error {
			var (
				b   []byte
				err error
			)
			switch kind {
			case KindGeometryCollection:
				b, err = DecodeGeometryCollection(w)
			default:
				b, err = DecodeFeatureCollection(w)
			}
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
