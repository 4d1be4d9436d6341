// Package render composes a page preview: the rasterized page bitmap,
// opaque mask rectangles hiding original glyphs, and the overlay text and
// image edits drawn on top.
//
// The live editor keeps overlays as separate editable elements; the
// composite produced here is the flattened preview of the same state.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/PoojaSrinivasan05/reporteditorsystem/blob"
	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
)

// Rasterizer paints the source PDF page bitmap at a scale. Full-fidelity
// rasterization is delegated to the host runtime; this package only
// composes on top of whatever bitmap it is handed.
type Rasterizer interface {
	RasterizePage(ctx context.Context, page int, scale float64) (image.Image, error)
}

// BlankRasterizer yields white pages of the document's geometry. It is the
// fallback when no native rasterizer is wired in; masks and overlays are
// still placed exactly where they would land on the real bitmap.
type BlankRasterizer struct {
	Geometry func(page int) (extract.PageGeometry, error)
}

func (b BlankRasterizer) RasterizePage(_ context.Context, page int, scale float64) (image.Image, error) {
	geo, err := b.Geometry(page)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(geo.Width*scale+0.5), int(geo.Height*scale+0.5)))
	xdraw.Draw(img, img.Bounds(), image.White, image.Point{}, xdraw.Src)
	return img, nil
}

// Renderer composes page previews.
type Renderer struct {
	ras   Rasterizer
	blobs blob.Store
	log   observability.Logger
	mask  color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(log observability.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

// WithMaskColor overrides the fill used for mask regions. The fill is
// always applied fully opaque.
func WithMaskColor(c color.Color) Option {
	return func(r *Renderer) { r.mask = c }
}

// New returns a Renderer drawing on bitmaps from ras and resolving image
// edit payloads through blobs.
func New(ras Rasterizer, blobs blob.Store, opts ...Option) *Renderer {
	r := &Renderer{ras: ras, blobs: blobs, log: observability.NopLogger{}, mask: color.White}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ComposePage paints the page bitmap, blanks every mask region, then draws
// the live overlays. Masks must come from an extraction pass at exactly the
// given scale; callers re-extract on scale change rather than reusing masks.
func (r *Renderer) ComposePage(ctx context.Context, page int, scale float64, masks []overlay.MaskRegion, texts []overlay.TextEdit, images []overlay.ImageEdit) (*image.RGBA, error) {
	start := time.Now()
	base, err := r.ras.RasterizePage(ctx, page, scale)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	dst := image.NewRGBA(base.Bounds())
	xdraw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, xdraw.Src)

	fill := image.NewUniform(r.mask)
	for _, m := range masks {
		if m.Page != page {
			continue
		}
		rect := image.Rect(floor(m.X), floor(m.Y), ceil(m.X+m.W), ceil(m.Y+m.H))
		xdraw.Draw(dst, rect.Intersect(dst.Bounds()), fill, image.Point{}, xdraw.Src)
	}

	for _, e := range images {
		if e.Page != page || e.Deleted {
			continue
		}
		if err := r.drawImage(ctx, dst, e); err != nil {
			return nil, err
		}
	}
	for _, e := range texts {
		if e.Page != page {
			continue
		}
		r.drawText(dst, e)
	}

	r.log.Debug("page composed",
		observability.Int("page", page),
		observability.Float64("scale", scale),
		observability.Float64(observability.MetricRenderTime, time.Since(start).Seconds()))
	return dst, nil
}

func (r *Renderer) drawImage(ctx context.Context, dst *image.RGBA, e overlay.ImageEdit) error {
	data, err := r.blobs.Fetch(ctx, e.ImageRef)
	if err != nil {
		return fmt.Errorf("image edit %s: %w", e.ID, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image edit %s: %w", e.ID, err)
	}
	rect := image.Rect(floor(e.X), floor(e.Y), ceil(e.X+e.Width), ceil(e.Y+e.Height))
	xdraw.ApproxBiLinear.Scale(dst, rect, img, img.Bounds(), xdraw.Over, nil)
	return nil
}

func (r *Renderer) drawText(dst *image.RGBA, e overlay.TextEdit) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ParseHexColor(e.Color)),
		Face: basicfont.Face7x13,
		// The stored Y is the overlay element's top; the baseline sits one
		// font size below it.
		Dot: fixed.P(floor(e.X), floor(e.Y+e.FontSize)),
	}
	d.DrawString(e.Content)
}

// ParseHexColor parses "#rrggbb" (or "#rgb"), defaulting to opaque black.
func ParseHexColor(s string) color.RGBA {
	c := color.RGBA{A: 0xff}
	hex := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	pair := func(hi, lo byte) (uint8, bool) {
		h, ok1 := hex(hi)
		l, ok2 := hex(lo)
		return h<<4 | l, ok1 && ok2
	}
	switch {
	case len(s) == 7 && s[0] == '#':
		r, ok1 := pair(s[1], s[2])
		g, ok2 := pair(s[3], s[4])
		b, ok3 := pair(s[5], s[6])
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r, g, b
		}
	case len(s) == 4 && s[0] == '#':
		r, ok1 := hex(s[1])
		g, ok2 := hex(s[2])
		b, ok3 := hex(s[3])
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r*17, g*17, b*17
		}
	}
	return c
}

func floor(v float64) int { return int(v) }

func ceil(v float64) int {
	i := int(v)
	if v > float64(i) {
		return i + 1
	}
	return i
}
