package exportpdf

import (
	"context"
	"testing"

	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
)

func TestTextPlacementScenario(t *testing.T) {
	// Canvas (50,100), 12pt font, 800-unit page at scale 1.0: the edit's
	// PDF-space baseline is y = 800-100-12 = 688, which the top-down writer
	// addresses as 800-688 = 112.
	e := overlay.TextEdit{X: 50, Y: 100, FontSize: 12}
	geo := extract.PageGeometry{Width: 600, Height: 800}
	x, y := textPlacement(e, geo, 1.0)
	if x != 50 || y != 112 {
		t.Fatalf("placement = (%v,%v), want (50,112)", x, y)
	}
}

func TestTextPlacementUnscales(t *testing.T) {
	e := overlay.TextEdit{X: 100, Y: 200, FontSize: 12}
	geo := extract.PageGeometry{Width: 600, Height: 800}
	x, y := textPlacement(e, geo, 2.0)
	if x != 50 || y != 112 {
		t.Fatalf("placement at scale 2 = (%v,%v), want (50,112)", x, y)
	}
}

func TestImagePlacementUnscales(t *testing.T) {
	e := overlay.ImageEdit{X: 100, Y: 60, Width: 200, Height: 80}
	x, y, w, h := imagePlacement(e, 2.0)
	if x != 50 || y != 30 || w != 100 || h != 40 {
		t.Fatalf("placement = (%v,%v,%v,%v)", x, y, w, h)
	}
}

func TestImageTypeFor(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if kind, err := imageTypeFor(png); err != nil || kind != "PNG" {
		t.Fatalf("png: %q %v", kind, err)
	}
	jpg := []byte{0xff, 0xd8, 0xff, 0xe0}
	if kind, err := imageTypeFor(jpg); err != nil || kind != "JPG" {
		t.Fatalf("jpeg: %q %v", kind, err)
	}
	if _, err := imageTypeFor([]byte("GIF89a")); err == nil {
		t.Fatal("want error for unsupported payload")
	}
}

func TestSplitByPageSkipsOutOfRange(t *testing.T) {
	texts := []overlay.TextEdit{
		{ID: "a", Page: 1},
		{ID: "b", Page: 0},
		{ID: "c", Page: 3},
		{ID: "d", Page: 2},
	}
	byPage := splitTextsByPage(texts, 2, observability.NopLogger{})
	if len(byPage[1]) != 1 || len(byPage[2]) != 1 {
		t.Fatalf("grouping = %+v", byPage)
	}
	if _, ok := byPage[0]; ok {
		t.Fatal("page 0 must be skipped")
	}
	if _, ok := byPage[3]; ok {
		t.Fatal("page 3 must be skipped")
	}

	images := []overlay.ImageEdit{{ID: "i", Page: 9}}
	if got := splitImagesByPage(images, 2, observability.NopLogger{}); len(got) != 0 {
		t.Fatalf("image grouping = %+v, want empty", got)
	}
}

func TestEncodeOverlayTextKeepsASCII(t *testing.T) {
	if got := encodeOverlayText("Total: $99"); got != "Total: $99" {
		t.Fatalf("encoded = %q", got)
	}
}

func TestExportRejectsBadScale(t *testing.T) {
	s := New(nil)
	if _, err := s.Export(context.Background(), nil, nil, overlay.ExportState{}, 0); err == nil {
		t.Fatal("want error for zero scale")
	}
}
