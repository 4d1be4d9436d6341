// Package coords converts between PDF user space (origin bottom-left, y up)
// and canvas space (origin top-left, y down) at a given render scale, and
// carries the small amount of matrix algebra the extractor needs.
package coords

import (
	"errors"
	"math"
)

// Matrix is a PDF transform matrix [a b c d e f] (last row implicitly 0 0 1).
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// HorizontalScale returns the effective horizontal scale component of m.
// For text matrices this is the rendered font size when the text was set
// with a unit font size.
func (m Matrix) HorizontalScale() float64 { return math.Hypot(m[0], m[1]) }

// Tx returns the translation components of m.
func (m Matrix) Tx() (float64, float64) { return m[4], m[5] }

// ToCanvas maps a PDF user-space point onto the canvas at the given render
// scale. pageHeight is the unscaled page height in PDF units.
func ToCanvas(pdfX, pdfY, pageHeight, scale float64) (float64, float64) {
	return pdfX * scale, pageHeight*scale - pdfY*scale
}

// ToPDF is the inverse of ToCanvas. height is the rendered element height in
// canvas units (for text, the font size at the current scale) and is
// subtracted so that a canvas top coordinate maps back to a PDF baseline.
// ToPDF(ToCanvas(x, y, h, s), h, s, 0) round-trips exactly.
func ToPDF(canvasX, canvasY, pageHeight, scale, height float64) (float64, float64) {
	return canvasX / scale, (pageHeight*scale - canvasY - height) / scale
}
