package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
)

type solidRasterizer struct {
	w, h int
	c    color.Color
}

func (s solidRasterizer) RasterizePage(_ context.Context, _ int, _ float64) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			img.Set(x, y, s.c)
		}
	}
	return img, nil
}

type memBlobs map[string][]byte

func (m memBlobs) Upload(_ context.Context, data []byte, _ string) (string, error) {
	m["ref"] = data
	return "ref", nil
}

func (m memBlobs) Fetch(_ context.Context, ref string) ([]byte, error) {
	return m[ref], nil
}

func encodePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestComposePageAppliesMasksOpaquely(t *testing.T) {
	ctx := context.Background()
	black := color.RGBA{A: 0xff}
	r := New(solidRasterizer{w: 100, h: 100, c: black}, memBlobs{})

	masks := []overlay.MaskRegion{
		{Page: 1, X: 10, Y: 10, W: 30, H: 20},
		{Page: 2, X: 50, Y: 50, W: 10, H: 10}, // other page, must not paint
	}
	img, err := r.ComposePage(ctx, 1, 1.0, masks, nil, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if got := img.RGBAAt(20, 15); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("pixel inside mask = %+v, want opaque white", got)
	}
	if got := img.RGBAAt(5, 5); got != black {
		t.Fatalf("pixel outside mask = %+v, want base black", got)
	}
	if got := img.RGBAAt(52, 52); got != black {
		t.Fatalf("other page's mask painted: %+v", got)
	}
}

func TestComposePageDrawsImageEdits(t *testing.T) {
	ctx := context.Background()
	blobs := memBlobs{}
	red := color.RGBA{R: 0xff, A: 0xff}
	ref, _ := blobs.Upload(ctx, encodePNG(t, red), "image/png")

	r := New(solidRasterizer{w: 100, h: 100, c: color.White}, blobs)
	images := []overlay.ImageEdit{
		{ID: "i1", Page: 1, ImageRef: ref, X: 40, Y: 40, Width: 20, Height: 20},
		{ID: "i2", Page: 1, ImageRef: ref, X: 70, Y: 70, Width: 10, Height: 10, Deleted: true},
	}
	img, err := r.ComposePage(ctx, 1, 1.0, nil, nil, images)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := img.RGBAAt(50, 50); got != red {
		t.Fatalf("pixel inside image = %+v, want red", got)
	}
	// Tombstoned image must stay invisible.
	if got := img.RGBAAt(75, 75); got == red {
		t.Fatal("deleted image was drawn")
	}
}

func TestComposePageDrawsTextOverlay(t *testing.T) {
	ctx := context.Background()
	r := New(solidRasterizer{w: 200, h: 100, c: color.White}, memBlobs{})
	texts := []overlay.TextEdit{
		{ID: "t1", Page: 1, Content: "Total: $99", X: 10, Y: 20, FontSize: 12, Color: "#ff0000", Origin: overlay.OriginUserAuthored},
	}
	img, err := r.ComposePage(ctx, 1, 1.0, nil, texts, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	found := false
	for y := 20; y < 40 && !found; y++ {
		for x := 10; x < 120 && !found; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{R: 0xff, A: 0xff}) {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("no red text pixels drawn in the overlay area")
	}
}

func TestBlankRasterizerSize(t *testing.T) {
	b := BlankRasterizer{Geometry: func(int) (extract.PageGeometry, error) {
		return extract.PageGeometry{Width: 612, Height: 792}, nil
	}}
	img, err := b.RasterizePage(context.Background(), 1, 2.0)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if img.Bounds().Dx() != 1224 || img.Bounds().Dy() != 1584 {
		t.Fatalf("bounds = %v, want 1224x1584", img.Bounds())
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff0000", color.RGBA{R: 0xff, A: 0xff}},
		{"#00ff7f", color.RGBA{G: 0xff, B: 0x7f, A: 0xff}},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"", color.RGBA{A: 0xff}},
		{"red", color.RGBA{A: 0xff}},
	}
	for _, c := range cases {
		if got := ParseHexColor(c.in); got != c.want {
			t.Errorf("ParseHexColor(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}
