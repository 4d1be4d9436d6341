package coords

import (
	"math"
	"testing"
)

func TestToCanvasFlipsAndScales(t *testing.T) {
	x, y := ToCanvas(50, 700, 800, 1.0)
	if x != 50 || y != 100 {
		t.Fatalf("ToCanvas(50,700,800,1) = (%v,%v), want (50,100)", x, y)
	}
	x, y = ToCanvas(50, 700, 800, 2.0)
	if x != 100 || y != 200 {
		t.Fatalf("ToCanvas(50,700,800,2) = (%v,%v), want (100,200)", x, y)
	}
}

func TestToPDFSubtractsHeight(t *testing.T) {
	// Text placed at canvas (50,100) with a 12pt font on an 800-unit page
	// must land at PDF y = 800-100-12 = 688.
	x, y := ToPDF(50, 100, 800, 1.0, 12)
	if x != 50 || y != 688 {
		t.Fatalf("ToPDF = (%v,%v), want (50,688)", x, y)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		x, y, pageHeight, scale float64
	}{
		{0, 0, 792, 1.0},
		{50, 700, 800, 1.0},
		{123.45, 678.9, 841.89, 1.5},
		{12.5, 0.25, 595.28, 0.5},
		{300, 300, 1000, 3.0},
	}
	for _, c := range cases {
		cx, cy := ToCanvas(c.x, c.y, c.pageHeight, c.scale)
		px, py := ToPDF(cx, cy, c.pageHeight, c.scale, 0)
		if math.Abs(px-c.x) > 1e-9 || math.Abs(py-c.y) > 1e-9 {
			t.Errorf("round trip (%v,%v) scale %v -> (%v,%v)", c.x, c.y, c.scale, px, py)
		}
	}
}

func TestMatrixInverseRoundTrip(t *testing.T) {
	m := Translate(10, 20).Multiply(Scale(2, 3))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := m.Transform(Point{X: 5, Y: 7})
	back := inv.Transform(p)
	if math.Abs(back.X-5) > 1e-9 || math.Abs(back.Y-7) > 1e-9 {
		t.Fatalf("inverse transform = %+v, want (5,7)", back)
	}
}

func TestHorizontalScale(t *testing.T) {
	m := Matrix{12, 0, 0, 12, 50, 700}
	if got := m.HorizontalScale(); got != 12 {
		t.Fatalf("HorizontalScale = %v, want 12", got)
	}
	// Rotated text keeps its scale magnitude.
	rot := Matrix{0, 9, -9, 0, 0, 0}
	if got := rot.HorizontalScale(); math.Abs(got-9) > 1e-9 {
		t.Fatalf("HorizontalScale rotated = %v, want 9", got)
	}
}
