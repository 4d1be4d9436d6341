// Package overlay holds the merged set of text and image edits for a
// document and reconciles it against the text fragments extracted from the
// source PDF. It owns the promotion protocol: the first mutation of an
// entry derived from the original PDF converts it into a durable
// user-authored entry.
package overlay

import "fmt"

// Origin distinguishes entries derived from the source PDF's own text layer
// from entries the user created or took ownership of.
type Origin int

const (
	// OriginOriginal marks an entry derived by extraction. Its identity is
	// ephemeral and it is never written to durable storage.
	OriginOriginal Origin = iota
	// OriginUserAuthored marks an entry created or promoted by the user.
	// It carries a durable identity and is persisted.
	OriginUserAuthored
)

func (o Origin) String() string {
	switch o {
	case OriginOriginal:
		return "original"
	case OriginUserAuthored:
		return "user"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// TextFragment is a positioned run of text extracted from a PDF page, in
// canvas space at the scale it was extracted at. Fragments are recomputed on
// every extraction pass and never persisted.
type TextFragment struct {
	Page     int
	Content  string
	X, Y     float64
	FontSize float64
	Color    string
}

// MaskRegion is an opaque rectangle, in canvas space, painted over the
// rendered page bitmap to hide the original glyphs beneath an extracted
// fragment. Derived 1:1 from fragments; recomputed with them.
type MaskRegion struct {
	Page       int
	X, Y, W, H float64
}

// TextEdit is one entry of the merged text set for a document.
type TextEdit struct {
	ID       string
	Page     int
	Content  string
	X, Y     float64
	FontSize float64
	Color    string
	Origin   Origin
}

// ImageEdit is a user-placed image overlay. Images have no original variant
// and are only ever soft-deleted.
type ImageEdit struct {
	ID            string
	Page          int
	ImageRef      string
	X, Y          float64
	Width, Height float64
	Deleted       bool
}

// originID derives a deterministic identity for an extracted fragment so
// repeated extraction passes reproduce the same ids instead of minting
// duplicates.
func originID(page int, x, y float64) string {
	return fmt.Sprintf("orig-%d-%.2f-%.2f", page, x, y)
}
