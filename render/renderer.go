package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Palette assigns colors to the three geometry roles a rendered feature can
// take: fill for polygon interiors, stroke for line/ring outlines, and
// point for standalone Point/MultiPoint markers.
type Palette struct {
	Fill   color.NRGBA
	Stroke color.NRGBA
	Point  color.NRGBA
}

// DefaultPalette uses a muted blue fill, a dark-blue stroke, and red point
// markers.
func DefaultPalette() Palette {
	return Palette{
		Fill:   color.NRGBA{100, 149, 237, 120},
		Stroke: color.NRGBA{0, 0, 139, 255},
		Point:  color.NRGBA{200, 30, 30, 255},
	}
}

// Raster rasterizes a decoded FeatureCollection or GeometryCollection to a
// flat-color debug image, for visually sanity-checking a round trip without
// reaching for a full GIS viewer.
type Raster struct {
	Palette Palette
	Scale   float64 // pixels per coordinate unit
	Padding int
}

// NewRaster builds a Raster with a sensible default scale for WGS-84
// degree coordinates: 1 unit covers most of a hemisphere, so without a
// caller-supplied scale the image would be a single pixel wide, hence the
// large default multiplier.
func NewRaster() *Raster {
	return &Raster{
		Palette: DefaultPalette(),
		Scale:   4000,
		Padding: 20,
	}
}

// RenderFeatureCollection rasterizes the geometries of a GeoJSON
// FeatureCollection (as produced by codec.DecodeFeatureCollection) to PNG.
func (r *Raster) RenderFeatureCollection(geojsonBytes []byte, w io.Writer) error {
	fc, err := geojson.UnmarshalFeatureCollection(geojsonBytes)
	if err != nil {
		return fmt.Errorf("parsing feature collection: %w", err)
	}
	geoms := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	}
	return r.render(geoms, w)
}

// RenderGeometryCollection rasterizes a GeoJSON GeometryCollection (as
// produced by codec.DecodeGeometryCollection) to PNG.
func (r *Raster) RenderGeometryCollection(geojsonBytes []byte, w io.Writer) error {
	gc, err := geojson.UnmarshalGeometry(geojsonBytes)
	if err != nil {
		return fmt.Errorf("parsing geometry collection: %w", err)
	}
	coll, ok := gc.Geometry().(orb.Collection)
	if !ok {
		return fmt.Errorf("expected a GeometryCollection, got %T", gc.Geometry())
	}
	return r.render([]orb.Geometry(coll), w)
}

func (r *Raster) render(geoms []orb.Geometry, w io.Writer) error {
	minX, minY, maxX, maxY := bounds(geoms)

	width := int((maxX-minX)*r.Scale) + 2*r.Padding
	height := int((maxY-minY)*r.Scale) + 2*r.Padding
	if width <= 0 {
		width = 2*r.Padding + 1
	}
	if height <= 0 {
		height = 2*r.Padding + 1
	}
	const maxDim = 4000
	if width > maxDim {
		height = height * maxDim / width
		width = maxDim
	}
	if height > maxDim {
		width = width * maxDim / height
		height = maxDim
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{245, 245, 245, 255})
		}
	}

	toImage := func(p orb.Point) (int, int) {
		x := int((p[0]-minX)*r.Scale) + r.Padding
		y := height - (int((p[1]-minY)*r.Scale) + r.Padding) // GeoJSON Y grows up; image Y grows down.
		return x, y
	}

	for _, g := range geoms {
		r.drawGeometry(img, g, toImage)
	}

	drawText(img, 6, height-8, fmt.Sprintf("%d geometries", len(geoms)), color.RGBA{60, 60, 60, 255})

	return png.Encode(w, img)
}

func (r *Raster) drawGeometry(img *image.RGBA, g orb.Geometry, toImage func(orb.Point) (int, int)) {
	switch t := g.(type) {
	case orb.Point:
		x, y := toImage(t)
		drawCircle(img, x, y, 4, toRGBA(r.Palette.Point))
	case orb.MultiPoint:
		for _, p := range t {
			x, y := toImage(p)
			drawCircle(img, x, y, 4, toRGBA(r.Palette.Point))
		}
	case orb.LineString:
		r.drawLine(img, t, toImage)
	case orb.MultiLineString:
		for _, ls := range t {
			r.drawLine(img, ls, toImage)
		}
	case orb.Polygon:
		r.drawPolygon(img, t, toImage)
	case orb.MultiPolygon:
		for _, poly := range t {
			r.drawPolygon(img, poly, toImage)
		}
	case orb.Collection:
		for _, inner := range t {
			r.drawGeometry(img, inner, toImage)
		}
	}
}

// drawLine strokes each ring segment by stepping along it in small
// increments, the same Bresenham-free "walk and plot" approach the teacher
// uses for wall pixels.
func (r *Raster) drawLine(img *image.RGBA, ring orb.LineString, toImage func(orb.Point) (int, int)) {
	bounds := img.Bounds()
	stroke := toRGBA(r.Palette.Stroke)
	for i := 0; i+1 < len(ring); i++ {
		x0, y0 := toImage(ring[i])
		x1, y1 := toImage(ring[i+1])
		steps := int(math.Max(math.Abs(float64(x1-x0)), math.Abs(float64(y1-y0))))
		if steps == 0 {
			steps = 1
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			x := x0 + int(t*float64(x1-x0))
			y := y0 + int(t*float64(y1-y0))
			if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
				img.Set(x, y, stroke)
			}
		}
	}
}

func (r *Raster) drawPolygon(img *image.RGBA, poly orb.Polygon, toImage func(orb.Point) (int, int)) {
	if len(poly) == 0 {
		return
	}
	fillScanlines(img, poly, toImage, toRGBA(r.Palette.Fill))
	for _, ring := range poly {
		r.drawLine(img, ring, toImage)
	}
}

func bounds(geoms []orb.Geometry) (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	for _, g := range geoms {
		b := g.Bound()
		if b.Min[0] < minX {
			minX = b.Min[0]
		}
		if b.Min[1] < minY {
			minY = b.Min[1]
		}
		if b.Max[0] > maxX {
			maxX = b.Max[0]
		}
		if b.Max[1] > maxY {
			maxY = b.Max[1]
		}
	}
	if minX > maxX {
		minX, maxX = 0, 0
		minY, maxY = 0, 0
	}
	return
}

// fillScanlines fills a polygon (with holes) using the even-odd rule,
// scanning row by row in image space.
func fillScanlines(img *image.RGBA, poly orb.Polygon, toImage func(orb.Point) (int, int), fill color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		var xs []int
		for _, ring := range poly {
			for i := 0; i < len(ring); i++ {
				p0 := ring[i]
				p1 := ring[(i+1)%len(ring)]
				x0, y0 := toImage(p0)
				x1, y1 := toImage(p1)
				if y0 == y1 {
					continue
				}
				if (y >= y0 && y < y1) || (y >= y1 && y < y0) {
					t := float64(y-y0) / float64(y1-y0)
					x := x0 + int(t*float64(x1-x0))
					xs = append(xs, x)
				}
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := xs[i]; x < xs[i+1]; x++ {
				if x >= bounds.Min.X && x < bounds.Max.X {
					existing := img.RGBAAt(x, y)
					img.Set(x, y, blendColors(existing, color.NRGBA{fill.R, fill.G, fill.B, fill.A}))
				}
			}
		}
	}
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{c.R, c.G, c.B, c.A}
}

// blendColors alpha-blends fg over an opaque RGBA background.
func blendColors(bg color.RGBA, fg color.NRGBA) color.RGBA {
	alpha := float64(fg.A) / 255.0
	inv := 1.0 - alpha
	return color.RGBA{
		R: uint8(float64(fg.R)*alpha + float64(bg.R)*inv),
		G: uint8(float64(fg.G)*alpha + float64(bg.G)*inv),
		B: uint8(float64(fg.B)*alpha + float64(bg.B)*inv),
		A: 255,
	}
}

// drawCircle draws a filled circle, used for Point/MultiPoint markers.
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	bounds := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

// drawText renders a caption using golang.org/x/image's basicfont bitmap
// face, the same approach the teacher uses for its map legends.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
