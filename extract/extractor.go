package extract

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PoojaSrinivasan05/reporteditorsystem/coords"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
)

const (
	// minFontSize is the floor applied when an item's transform carries no
	// usable scale.
	minFontSize = 10.0
	// lineHeightFactor estimates a glyph row's full height from its font
	// size, covering ascenders and descenders.
	lineHeightFactor = 1.2
	// defaultColor is assumed for extracted text; the source fill color is
	// not recovered.
	defaultColor = "#000000"
)

// Result is one page's extraction output at one scale: positioned fragments
// and the mask rectangles that hide the original glyphs beneath them.
type Result struct {
	Fragments []overlay.TextFragment
	Masks     []overlay.MaskRegion
}

// Extractor derives canvas-space fragments from page sources.
type Extractor struct {
	log    observability.Logger
	tracer observability.Tracer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the extractor's logger.
func WithLogger(log observability.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// WithTracer sets the extractor's tracer.
func WithTracer(tr observability.Tracer) Option {
	return func(e *Extractor) { e.tracer = tr }
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{log: observability.NopLogger{}, tracer: observability.NopTracer()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPage maps a page's raw text items into canvas space at the given
// scale. Font size comes from the horizontal scale component of each item's
// transform, falling back to the item height, with a floor of 10. Each
// fragment gets a matching mask sized to the item's advance width and an
// estimated line height, offset above the baseline so the glyphs are fully
// covered.
func (e *Extractor) ExtractPage(src PageSource, scale float64) (Result, error) {
	start := time.Now()
	items, err := src.TextItems()
	if err != nil {
		return Result{}, err
	}
	_, pageHeight := src.Size()
	page := src.Number()

	var res Result
	for _, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		fontSize := item.Transform.HorizontalScale()
		if fontSize == 0 {
			fontSize = item.H
		}
		if fontSize < minFontSize {
			fontSize = minFontSize
		}
		pdfX, pdfY := item.Transform.Tx()
		x, y := coords.ToCanvas(pdfX, pdfY, pageHeight, scale)
		res.Fragments = append(res.Fragments, overlay.TextFragment{
			Page:     page,
			Content:  item.Content,
			X:        x,
			Y:        y,
			FontSize: fontSize,
			Color:    defaultColor,
		})
		res.Masks = append(res.Masks, overlay.MaskRegion{
			Page: page,
			X:    x,
			Y:    y - fontSize*scale,
			W:    item.W * scale,
			H:    fontSize * lineHeightFactor * scale,
		})
	}
	e.log.Debug("page extracted",
		observability.Int("page", page),
		observability.Int(observability.MetricFragmentCnt, len(res.Fragments)),
		observability.Float64("scale", scale),
		observability.Float64(observability.MetricExtractTime, time.Since(start).Seconds()))
	return res, nil
}

// ExtractDocument extracts every page of the source at the given scale,
// fanning out across pages. A page whose extraction fails is logged and
// yields an empty result; one bad page never aborts the rest.
func (e *Extractor) ExtractDocument(ctx context.Context, doc Source, scale float64) (map[int]Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "extract.document")
	defer span.Finish()

	n := doc.NumPages()
	results := make([]Result, n+1)
	g, ctx := errgroup.WithContext(ctx)
	for num := 1; num <= n; num++ {
		num := num
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := doc.Page(num)
			if err != nil {
				e.log.Warn("page unavailable", observability.Int("page", num), observability.Error("err", err))
				return nil
			}
			res, err := e.ExtractPage(src, scale)
			if err != nil {
				e.log.Warn("page extraction failed", observability.Int("page", num), observability.Error("err", err))
				return nil
			}
			results[num] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}
	out := make(map[int]Result, n)
	for num := 1; num <= n; num++ {
		out[num] = results[num]
	}
	return out, nil
}
