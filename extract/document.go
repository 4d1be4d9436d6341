// Package extract derives positioned text fragments and glyph mask regions
// from PDF pages. Extraction is pure: given the same page and scale it
// always produces the same fragments, and it never touches durable storage.
package extract

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/PoojaSrinivasan05/reporteditorsystem/coords"
)

// TextItem is one raw positioned text run on a page, in PDF user space.
type TextItem struct {
	Content   string
	Transform coords.Matrix
	W         float64
	H         float64
}

// PageSource yields the geometry and raw text items of one page. The
// ledongthuc-backed Document implements it for real PDFs; tests supply
// synthetic sources.
type PageSource interface {
	Number() int
	Size() (width, height float64)
	TextItems() ([]TextItem, error)
}

// PageGeometry is the unscaled size of a page in PDF units.
type PageGeometry struct {
	Width, Height float64
}

// Source is a paged document the extractor can walk. Document implements it
// for real PDFs.
type Source interface {
	NumPages() int
	Page(num int) (PageSource, error)
	Geometry(num int) (PageGeometry, error)
}

// Document wraps a parsed PDF. A failed open is fatal to the editing
// session for that document; no partial state is constructed.
type Document struct {
	r *pdf.Reader
}

// OpenDocument parses PDF bytes.
func OpenDocument(data []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{r: r}, nil
}

// NumPages reports the page count.
func (d *Document) NumPages() int { return d.r.NumPage() }

// Page returns a source for the 1-based page number.
func (d *Document) Page(num int) (PageSource, error) {
	if num < 1 || num > d.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range [1,%d]", num, d.r.NumPage())
	}
	p := d.r.Page(num)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d missing", num)
	}
	return &pdfPage{p: p, num: num}, nil
}

// Geometry returns the unscaled page size for the 1-based page number.
func (d *Document) Geometry(num int) (PageGeometry, error) {
	src, err := d.Page(num)
	if err != nil {
		return PageGeometry{}, err
	}
	w, h := src.Size()
	return PageGeometry{Width: w, Height: h}, nil
}

// Geometries returns the sizes of all pages in order.
func (d *Document) Geometries() ([]PageGeometry, error) {
	out := make([]PageGeometry, 0, d.NumPages())
	for n := 1; n <= d.NumPages(); n++ {
		g, err := d.Geometry(n)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

type pdfPage struct {
	p   pdf.Page
	num int
}

func (p *pdfPage) Number() int { return p.num }

// Size resolves the page MediaBox, walking up the page tree for inherited
// boxes and defaulting to US Letter when absent.
func (p *pdfPage) Size() (float64, float64) {
	for v := p.p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.IsNull() || box.Len() < 4 {
			continue
		}
		llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
		urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
		if urx > llx && ury > lly {
			return urx - llx, ury - lly
		}
	}
	return 612, 792
}

// TextItems reads the page's positioned characters and coalesces runs that
// share a baseline and font size into single items. The underlying content
// parser panics on malformed streams; that is converted to an error here so
// a bad page degrades instead of taking the session down.
func (p *pdfPage) TextItems() (items []TextItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("parse page %d content: %v", p.num, r)
		}
	}()
	content := p.p.Content()
	chars := content.Text
	sort.SliceStable(chars, func(i, j int) bool {
		if chars[i].Y != chars[j].Y {
			return chars[i].Y > chars[j].Y
		}
		return chars[i].X < chars[j].X
	})

	var run *TextItem
	var runEnd float64
	for _, c := range chars {
		if c.S == "" {
			continue
		}
		if run != nil {
			_, runY := run.Transform.Tx()
			gap := c.X - runEnd
			if sameBaseline(c.Y, runY) && c.FontSize == run.H && gap >= -0.1 && gap <= maxRunGap(c.FontSize) {
				run.Content += c.S
				run.W += c.W + gap
				runEnd = c.X + c.W
				continue
			}
		}
		items = append(items, TextItem{
			Content:   c.S,
			Transform: coords.Matrix{c.FontSize, 0, 0, c.FontSize, c.X, c.Y},
			W:         c.W,
			H:         c.FontSize,
		})
		run = &items[len(items)-1]
		runEnd = c.X + c.W
	}
	return items, nil
}

func sameBaseline(a, b float64) bool {
	d := a - b
	return d < 0.5 && d > -0.5
}

// maxRunGap is the widest horizontal gap still treated as intra-run
// spacing. Wider gaps start a new item so columns stay separate.
func maxRunGap(fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = 12
	}
	return fontSize * 0.6
}
