// Package editor ties one document's extraction source, edit store,
// renderer and export serializer into a session. Hosts hold a Session and
// call into it instead of wiring the pipeline themselves; the export entry
// point is an explicit method, not a process-wide registration.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/PoojaSrinivasan05/reporteditorsystem/blob"
	"github.com/PoojaSrinivasan05/reporteditorsystem/exportpdf"
	"github.com/PoojaSrinivasan05/reporteditorsystem/extract"
	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
	"github.com/PoojaSrinivasan05/reporteditorsystem/render"
)

// ErrNoSourceBytes is returned by Export when the session was built from a
// bare page source without the original PDF bytes.
var ErrNoSourceBytes = errors.New("session has no source pdf bytes")

const defaultScale = 1.0

// Session is the per-document editing session. Like the store it wraps, it
// is meant to be driven from a single goroutine.
type Session struct {
	docID  string
	src    extract.Source
	source []byte

	ex    *extract.Extractor
	store *overlay.Store
	rend  *render.Renderer
	ser   *exportpdf.Serializer
	log   observability.Logger

	scale float64
	page  int
	masks map[int][]overlay.MaskRegion
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	log   observability.Logger
	ras   render.Rasterizer
	scale float64
}

// WithLogger sets the logger shared by the session's components.
func WithLogger(log observability.Logger) Option {
	return func(c *sessionConfig) { c.log = log }
}

// WithRasterizer wires a native page rasterizer for previews. Without one,
// previews compose on blank pages of the right geometry.
func WithRasterizer(ras render.Rasterizer) Option {
	return func(c *sessionConfig) { c.ras = ras }
}

// WithScale sets the initial render scale.
func WithScale(scale float64) Option {
	return func(c *sessionConfig) { c.scale = scale }
}

// NewSession parses the source PDF and opens a session for it. A parse
// failure is fatal: no partial session is constructed.
func NewSession(ctx context.Context, documentID string, source []byte, adapter overlay.Adapter, blobs blob.Store, opts ...Option) (*Session, error) {
	doc, err := extract.OpenDocument(source)
	if err != nil {
		return nil, err
	}
	return newSession(ctx, documentID, doc, source, adapter, blobs, opts...)
}

// NewSessionFromSource opens a session over an already-parsed page source.
// Export needs the original bytes and fails with ErrNoSourceBytes.
func NewSessionFromSource(ctx context.Context, documentID string, src extract.Source, adapter overlay.Adapter, blobs blob.Store, opts ...Option) (*Session, error) {
	return newSession(ctx, documentID, src, nil, adapter, blobs, opts...)
}

func newSession(ctx context.Context, documentID string, src extract.Source, source []byte, adapter overlay.Adapter, blobs blob.Store, opts ...Option) (*Session, error) {
	cfg := sessionConfig{log: observability.NopLogger{}, scale: defaultScale}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", cfg.scale)
	}
	if cfg.ras == nil {
		cfg.ras = render.BlankRasterizer{Geometry: src.Geometry}
	}

	s := &Session{
		docID:  documentID,
		src:    src,
		source: source,
		ex:     extract.New(extract.WithLogger(cfg.log)),
		store:  overlay.NewStore(documentID, adapter, overlay.WithLogger(cfg.log)),
		rend:   render.New(cfg.ras, blobs, render.WithLogger(cfg.log)),
		ser:    exportpdf.New(blobs, exportpdf.WithLogger(cfg.log)),
		log:    cfg.log,
		scale:  cfg.scale,
		page:   1,
	}
	if err := s.store.Load(ctx); err != nil {
		return nil, err
	}
	if err := s.reextract(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reextract runs extraction for the whole document at the current scale and
// reconciles every page's originals.
func (s *Session) reextract(ctx context.Context) error {
	results, err := s.ex.ExtractDocument(ctx, s.src, s.scale)
	if err != nil {
		return fmt.Errorf("extract document %s: %w", s.docID, err)
	}
	s.masks = make(map[int][]overlay.MaskRegion, len(results))
	for page, res := range results {
		s.store.ApplyExtraction(page, res.Fragments)
		s.masks[page] = res.Masks
	}
	return nil
}

// Store exposes the reconciliation engine; mutations go through it.
func (s *Session) Store() *overlay.Store { return s.store }

// Page returns the current 1-based page.
func (s *Session) Page() int { return s.page }

// Scale returns the current render scale.
func (s *Session) Scale() float64 { return s.scale }

// SetPage switches the current page.
func (s *Session) SetPage(page int) error {
	if page < 1 || page > s.src.NumPages() {
		return fmt.Errorf("page %d out of range [1,%d]", page, s.src.NumPages())
	}
	s.page = page
	return nil
}

// SetScale changes the render scale and re-extracts so fragments and masks
// line up with the new bitmap size. Masks are never reused across scales.
func (s *Session) SetScale(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("invalid scale %v", scale)
	}
	s.scale = scale
	return s.reextract(ctx)
}

// RenderPage composes the current page's preview: bitmap, masks, overlays.
func (s *Session) RenderPage(ctx context.Context) (*image.RGBA, error) {
	return s.rend.ComposePage(ctx, s.page, s.scale,
		s.masks[s.page],
		s.store.TextsForPage(s.page),
		s.store.ImagesForPage(s.page))
}

// Export rebuilds a standalone PDF from the source document and the
// current edit state and returns it for the caller to persist or download.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	if s.source == nil {
		return nil, ErrNoSourceBytes
	}
	geoms := make([]extract.PageGeometry, 0, s.src.NumPages())
	for n := 1; n <= s.src.NumPages(); n++ {
		geo, err := s.src.Geometry(n)
		if err != nil {
			return nil, fmt.Errorf("page %d geometry: %w", n, err)
		}
		geoms = append(geoms, geo)
	}
	return s.ser.Export(ctx, s.source, geoms, s.store.ExportState(), s.scale)
}
