// Package exportpdf rebuilds a standalone PDF from the source document and
// the reconciled edit state: every page of the original is imported as-is,
// then user-authored text and live image overlays are replayed onto it in
// PDF space.
package exportpdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/text/encoding/charmap"

	"github.com/PoojaSrinivasan05/reporteditorsystem/blob"
	"github.com/PoojaSrinivasan05/reporteditorsystem/coords"
	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
	"github.com/PoojaSrinivasan05/reporteditorsystem/render"
)

const overlayFont = "Helvetica"

// Serializer produces export PDFs. It reads blobs for image payloads and
// never writes to any store; the caller owns the returned bytes.
type Serializer struct {
	blobs blob.Store
	log   observability.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the serializer's logger.
func WithLogger(log observability.Logger) Option {
	return func(s *Serializer) { s.log = log }
}

// New returns a Serializer resolving image references through blobs.
func New(blobs blob.Store, opts ...Option) *Serializer {
	s := &Serializer{blobs: blobs, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export loads the source PDF, replays state onto it and returns the new
// document. scale is the canvas scale the edit coordinates were authored
// at. Edits referencing pages outside the document are skipped with a
// warning; any image fetch/decode or assembly failure aborts the whole
// export so a partial PDF is never produced.
func (s *Serializer) Export(ctx context.Context, source []byte, geoms []extract.PageGeometry, state overlay.ExportState, scale float64) (out []byte, err error) {
	if scale <= 0 {
		return nil, fmt.Errorf("export: invalid scale %v", scale)
	}
	start := time.Now()
	// The page importer reports source parse failures by panicking.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("import source pages: %v", r)
		}
	}()

	texts := splitTextsByPage(state.Texts, len(geoms), s.log)
	images := splitImagesByPage(state.Images, len(geoms), s.log)

	doc := fpdf.New("P", "pt", "", "")
	doc.SetAutoPageBreak(false, 0)
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(source))
	registered := make(map[string]fpdf.ImageOptions)

	for num := 1; num <= len(geoms); num++ {
		geo := geoms[num-1]
		doc.AddPageFormat("P", fpdf.SizeType{Wd: geo.Width, Ht: geo.Height})
		tpl := importer.ImportPageFromStream(doc, &rs, num, "/MediaBox")
		importer.UseImportedTemplate(doc, tpl, 0, 0, geo.Width, 0)

		for _, e := range images[num] {
			if err := s.drawImage(ctx, doc, registered, e, scale); err != nil {
				return nil, err
			}
		}
		for _, e := range texts[num] {
			drawText(doc, e, geo, scale)
		}
	}

	if doc.Err() {
		return nil, fmt.Errorf("assemble pdf: %w", doc.Error())
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	s.log.Info("export complete",
		observability.Int("pages", len(geoms)),
		observability.Int(observability.MetricExportBytes, buf.Len()),
		observability.Float64(observability.MetricExportTime, time.Since(start).Seconds()))
	return buf.Bytes(), nil
}

func (s *Serializer) drawImage(ctx context.Context, doc *fpdf.Fpdf, registered map[string]fpdf.ImageOptions, e overlay.ImageEdit, scale float64) error {
	opts, ok := registered[e.ImageRef]
	if !ok {
		data, err := s.blobs.Fetch(ctx, e.ImageRef)
		if err != nil {
			return fmt.Errorf("image edit %s: %w", e.ID, err)
		}
		kind, err := imageTypeFor(data)
		if err != nil {
			return fmt.Errorf("image edit %s: %w", e.ID, err)
		}
		opts = fpdf.ImageOptions{ImageType: kind}
		doc.RegisterImageOptionsReader(e.ImageRef, opts, bytes.NewReader(data))
		registered[e.ImageRef] = opts
	}
	x, y, w, h := imagePlacement(e, scale)
	doc.ImageOptions(e.ImageRef, x, y, w, h, false, opts, 0, "")
	return nil
}

func drawText(doc *fpdf.Fpdf, e overlay.TextEdit, geo extract.PageGeometry, scale float64) {
	c := render.ParseHexColor(e.Color)
	doc.SetFont(overlayFont, "", e.FontSize)
	doc.SetTextColor(int(c.R), int(c.G), int(c.B))
	x, y := textPlacement(e, geo, scale)
	doc.Text(x, y, encodeOverlayText(e.Content))
}

// textPlacement maps an edit's canvas position to the writer's page space
// (origin top-left, y down, PDF units, baseline addressed).
func textPlacement(e overlay.TextEdit, geo extract.PageGeometry, scale float64) (float64, float64) {
	pdfX, pdfY := coords.ToPDF(e.X, e.Y, geo.Height, scale, e.FontSize*scale)
	return pdfX, geo.Height - pdfY
}

// imagePlacement unscales an image edit's canvas box. Canvas space and the
// writer's page space share the top-left origin, so no flip is needed.
func imagePlacement(e overlay.ImageEdit, scale float64) (x, y, w, h float64) {
	return e.X / scale, e.Y / scale, e.Width / scale, e.Height / scale
}

// encodeOverlayText recodes UTF-8 content for the writer's core font.
// Characters outside the codepage are left as-is rather than failing the
// export.
func encodeOverlayText(content string) string {
	encoded, err := charmap.Windows1252.NewEncoder().String(content)
	if err != nil {
		return content
	}
	return encoded
}

// imageTypeFor maps a payload signature to the writer's image type names.
func imageTypeFor(data []byte) (string, error) {
	switch blob.DetectMIME(data) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	default:
		return "", fmt.Errorf("unsupported image payload (want PNG or JPEG)")
	}
}

// splitTextsByPage groups exportable text by 1-based page, dropping entries
// whose page lies outside the document. The skip is deliberate leniency;
// it is logged so page-numbering bugs elsewhere stay visible.
func splitTextsByPage(texts []overlay.TextEdit, pages int, log observability.Logger) map[int][]overlay.TextEdit {
	out := make(map[int][]overlay.TextEdit)
	for _, e := range texts {
		if e.Page < 1 || e.Page > pages {
			log.Warn("text edit outside document skipped",
				observability.String("id", e.ID), observability.Int("page", e.Page))
			continue
		}
		out[e.Page] = append(out[e.Page], e)
	}
	return out
}

func splitImagesByPage(images []overlay.ImageEdit, pages int, log observability.Logger) map[int][]overlay.ImageEdit {
	out := make(map[int][]overlay.ImageEdit)
	for _, e := range images {
		if e.Page < 1 || e.Page > pages {
			log.Warn("image edit outside document skipped",
				observability.String("id", e.ID), observability.Int("page", e.Page))
			continue
		}
		out[e.Page] = append(out[e.Page], e)
	}
	return out
}
