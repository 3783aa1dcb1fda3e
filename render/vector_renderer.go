package render

import (
	"fmt"
	"image/color"
	"image/png"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// VectorRenderer renders decoded geometries as scalable vector output,
// for output sizes where the raster Raster's pixel grid would be too
// coarse to inspect ring/hole structure by eye.
type VectorRenderer struct {
	Palette    Palette
	Padding    float64
	Resolution canvas.Resolution
}

// NewVectorRenderer builds a VectorRenderer with 300 DPI PNG output and a
// generous border so stroked edges are never clipped at the canvas bound.
func NewVectorRenderer() *VectorRenderer {
	return &VectorRenderer{
		Palette:    DefaultPalette(),
		Padding:    20,
		Resolution: canvas.DPI(300),
	}
}

// canvasRenderer is the common interface both the SVG and rasterizer
// backends implement, letting renderToCanvas stay backend-agnostic.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderFeatureCollectionSVG writes a decoded FeatureCollection as SVG.
func (r *VectorRenderer) RenderFeatureCollectionSVG(geojsonBytes []byte, w io.Writer) error {
	geoms, err := featureGeometries(geojsonBytes)
	if err != nil {
		return err
	}
	return r.renderSVG(geoms, w)
}

// RenderFeatureCollectionPNG writes a decoded FeatureCollection as PNG via
// the canvas rasterizer backend (distinct from Raster's scanline fill).
func (r *VectorRenderer) RenderFeatureCollectionPNG(geojsonBytes []byte, w io.Writer) error {
	geoms, err := featureGeometries(geojsonBytes)
	if err != nil {
		return err
	}
	return r.renderPNG(geoms, w)
}

func featureGeometries(geojsonBytes []byte) ([]orb.Geometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(geojsonBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing feature collection: %w", err)
	}
	geoms := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	}
	return geoms, nil
}

func (r *VectorRenderer) renderSVG(geoms []orb.Geometry, w io.Writer) error {
	minX, minY, maxX, maxY := bounds(geoms)
	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, geoms, minX, minY, maxY, width, height)
	return svgRenderer.Close()
}

func (r *VectorRenderer) renderPNG(geoms []orb.Geometry, w io.Writer) error {
	minX, minY, maxX, maxY := bounds(geoms)
	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, geoms, minX, minY, maxY, width, height)
	return png.Encode(w, rast)
}

// renderToCanvas draws a white background then every geometry, shared by
// both the SVG and PNG backends.
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, geoms []orb.Geometry, minX, minY, maxY, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p orb.Point) (float64, float64) {
		// Canvas Y grows up from the bottom; GeoJSON Y grows up too, so
		// only the origin shifts, unlike the raster backend's flip.
		return (p[0] - minX) + r.Padding, (p[1] - minY) + r.Padding
	}

	fillStyle := canvas.DefaultStyle
	fillStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(r.Palette.Fill)}
	fillStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	// Even-odd matches the raster backend's fillScanlines rule (renderer.go),
	// so a ring nested inside another always punches a hole regardless of
	// winding direction.
	fillStyle.FillRule = canvas.EvenOdd

	strokeStyle := canvas.DefaultStyle
	strokeStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	strokeStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(r.Palette.Stroke)}
	strokeStyle.StrokeWidth = 1.2

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(r.Palette.Point)}
	pointStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

	for _, g := range geoms {
		r.renderGeometry(renderer, g, toCanvas, fillStyle, strokeStyle, pointStyle)
	}
}

func (r *VectorRenderer) renderGeometry(renderer canvasRenderer, g orb.Geometry, toCanvas func(orb.Point) (float64, float64), fillStyle, strokeStyle, pointStyle canvas.Style) {
	switch t := g.(type) {
	case orb.Point:
		renderer.RenderPath(dot(toCanvas(t)), pointStyle, canvas.Identity)
	case orb.MultiPoint:
		for _, p := range t {
			renderer.RenderPath(dot(toCanvas(p)), pointStyle, canvas.Identity)
		}
	case orb.LineString:
		renderer.RenderPath(ringPath(t, toCanvas, false), strokeStyle, canvas.Identity)
	case orb.MultiLineString:
		for _, ls := range t {
			renderer.RenderPath(ringPath(ls, toCanvas, false), strokeStyle, canvas.Identity)
		}
	case orb.Polygon:
		r.renderPolygon(renderer, t, toCanvas, fillStyle, strokeStyle)
	case orb.MultiPolygon:
		for _, poly := range t {
			r.renderPolygon(renderer, poly, toCanvas, fillStyle, strokeStyle)
		}
	case orb.Collection:
		for _, inner := range t {
			r.renderGeometry(renderer, inner, toCanvas, fillStyle, strokeStyle, pointStyle)
		}
	}
}

func (r *VectorRenderer) renderPolygon(renderer canvasRenderer, poly orb.Polygon, toCanvas func(orb.Point) (float64, float64), fillStyle, strokeStyle canvas.Style) {
	if len(poly) == 0 {
		return
	}
	// One Path carrying every ring as its own closed subpath (a fresh
	// MoveTo starts a new subpath without finishing the Path), so the
	// fill rule punches holes where interior rings overlap the exterior
	// one instead of only ever filling the shell (poly[0]).
	fillPath := &canvas.Path{}
	for _, ring := range poly {
		addRingSubpath(fillPath, ring, toCanvas, true)
	}
	renderer.RenderPath(fillPath, fillStyle, canvas.Identity)
	for _, ring := range poly {
		renderer.RenderPath(ringPath(ring, toCanvas, true), strokeStyle, canvas.Identity)
	}
}

// ringPath builds a canvas.Path from a ring of points, closing it when
// close is true (polygon rings) and leaving it open otherwise (lines).
func ringPath(ring orb.LineString, toCanvas func(orb.Point) (float64, float64), close bool) *canvas.Path {
	path := &canvas.Path{}
	addRingSubpath(path, ring, toCanvas, close)
	return path
}

// addRingSubpath appends a ring to path as its own subpath, closing it when
// close is true. Calling MoveTo again on a Path that already has content
// starts a new subpath rather than mutating the previous one, which is how
// multiple polygon rings (shell plus holes) end up in a single fillable
// Path.
func addRingSubpath(path *canvas.Path, ring orb.LineString, toCanvas func(orb.Point) (float64, float64), close bool) {
	if len(ring) == 0 {
		return
	}
	x0, y0 := toCanvas(ring[0])
	path.MoveTo(x0, y0)
	for _, p := range ring[1:] {
		x, y := toCanvas(p)
		path.LineTo(x, y)
	}
	if close {
		path.Close()
	}
}

// dot draws a small filled circle standing in for a Point geometry.
func dot(x, y float64) *canvas.Path {
	return canvas.Circle(3).Translate(x, y)
}

// nrgbaToRGBA premultiplies alpha, the form the canvas library expects.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}
