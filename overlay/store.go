package overlay

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
)

// Store is the reconciliation engine for one document. It merges extracted
// original fragments with persisted user-authored edits and routes every
// mutation through the promotion protocol.
//
// The store is not safe for concurrent mutation; callers are expected to
// serialize access through a single event loop. In-memory state is updated
// before the durable write resolves, and a failed write is reported but
// never rolled back.
type Store struct {
	docID   string
	adapter Adapter
	log     observability.Logger

	texts  map[string]*TextEdit
	images map[string]*ImageEdit

	// promoted forwards the ephemeral id of a promoted original to the
	// durable id minted for it, so a caller still holding the old id mutates
	// the promoted entry instead of silently missing.
	promoted map[string]string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger. Defaults to NopLogger.
func WithLogger(log observability.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates an empty store for documentID backed by adapter.
func NewStore(documentID string, adapter Adapter, opts ...StoreOption) *Store {
	s := &Store{
		docID:    documentID,
		adapter:  adapter,
		log:      observability.NopLogger{},
		texts:    make(map[string]*TextEdit),
		images:   make(map[string]*ImageEdit),
		promoted: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load seeds user-authored state from durable storage. It is intended to run
// once at session start; calling it again replaces all user-authored entries
// (including image tombstones) and leaves originals alone.
func (s *Store) Load(ctx context.Context) error {
	recs, err := s.adapter.ListByDocument(ctx, s.docID)
	if err != nil {
		return fmt.Errorf("load edits for %s: %w", s.docID, err)
	}
	for id, t := range s.texts {
		if t.Origin == OriginUserAuthored {
			delete(s.texts, id)
		}
	}
	s.images = make(map[string]*ImageEdit)
	for _, rec := range recs {
		switch rec.Kind {
		case KindText:
			s.texts[rec.ID] = &TextEdit{
				ID:       rec.ID,
				Page:     rec.Page,
				Content:  rec.Content,
				X:        rec.X,
				Y:        rec.Y,
				FontSize: rec.FontSize,
				Color:    rec.Color,
				Origin:   OriginUserAuthored,
			}
		case KindImage:
			s.images[rec.ID] = &ImageEdit{
				ID:       rec.ID,
				Page:     rec.Page,
				ImageRef: rec.ImageRef,
				X:        rec.X,
				Y:        rec.Y,
				Width:    rec.Width,
				Height:   rec.Height,
				Deleted:  rec.Deleted,
			}
		}
	}
	s.log.Debug("edits loaded", observability.String("document", s.docID), observability.Int("records", len(recs)))
	return nil
}

// ApplyExtraction replaces all original entries for page with entries derived
// from frags. User-authored entries are untouched, whatever page they are on:
// originals and user edits are independent overlay layers, even when they
// coincide positionally. Original ids are deterministic in (page, position),
// so repeated extraction of an unchanged page is a no-op.
func (s *Store) ApplyExtraction(page int, frags []TextFragment) {
	for id, t := range s.texts {
		if t.Origin == OriginOriginal && t.Page == page {
			delete(s.texts, id)
		}
	}
	for _, f := range frags {
		if f.Page != page || f.Content == "" {
			continue
		}
		id := originID(f.Page, f.X, f.Y)
		s.texts[id] = &TextEdit{
			ID:       id,
			Page:     f.Page,
			Content:  f.Content,
			X:        f.X,
			Y:        f.Y,
			FontSize: f.FontSize,
			Color:    f.Color,
			Origin:   OriginOriginal,
		}
	}
}

// CreateText adds a new user-authored text entry and requests persistence.
// On a persistence failure the entry stays in memory and the error is
// returned for the caller to surface.
func (s *Store) CreateText(ctx context.Context, page int, content string, x, y, fontSize float64, color string) (*TextEdit, error) {
	e := &TextEdit{
		ID:       uuid.NewString(),
		Page:     page,
		Content:  content,
		X:        x,
		Y:        y,
		FontSize: fontSize,
		Color:    color,
		Origin:   OriginUserAuthored,
	}
	s.texts[e.ID] = e
	if err := s.adapter.Insert(ctx, s.textRecord(e)); err != nil {
		s.log.Error("persist create failed", observability.String("id", e.ID), observability.Error("err", err))
		return e, fmt.Errorf("persist text edit %s: %w", e.ID, err)
	}
	return e, nil
}

// CreateImage adds a new image overlay and requests persistence.
func (s *Store) CreateImage(ctx context.Context, page int, imageRef string, x, y, width, height float64) (*ImageEdit, error) {
	e := &ImageEdit{
		ID:       uuid.NewString(),
		Page:     page,
		ImageRef: imageRef,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
	}
	s.images[e.ID] = e
	if err := s.adapter.Insert(ctx, s.imageRecord(e)); err != nil {
		s.log.Error("persist create failed", observability.String("id", e.ID), observability.Error("err", err))
		return e, fmt.Errorf("persist image edit %s: %w", e.ID, err)
	}
	return e, nil
}

// SetTextContent changes an entry's content. Mutating an original promotes
// it to a user-authored entry with a fresh durable identity.
func (s *Store) SetTextContent(ctx context.Context, id, content string) (*TextEdit, error) {
	return s.mutateText(ctx, id, map[string]interface{}{FieldContent: content})
}

// MoveText changes an entry's position. This is the durable form used on
// drag release; the same promotion rule as SetTextContent applies.
func (s *Store) MoveText(ctx context.Context, id string, x, y float64) (*TextEdit, error) {
	return s.mutateText(ctx, id, map[string]interface{}{FieldX: x, FieldY: y})
}

// DragText updates an entry's position in memory only. Intermediate drag
// positions are coalesced: callers issue DragText while the pointer moves
// and exactly one MoveText on release.
func (s *Store) DragText(id string, x, y float64) {
	if e, ok := s.texts[s.resolve(id)]; ok {
		e.X, e.Y = x, y
	}
}

// mutateText applies a partial change to a text entry. An unknown id is a
// no-op: a delete may already have raced an in-flight durable write.
func (s *Store) mutateText(ctx context.Context, id string, fields map[string]interface{}) (*TextEdit, error) {
	id = s.resolve(id)
	e, ok := s.texts[id]
	if !ok {
		s.log.Debug("mutate of unknown text edit", observability.String("id", id))
		return nil, nil
	}
	applyTextFields(e, fields)
	if e.Origin == OriginOriginal {
		// Promotion: the original loses its ephemeral identity and becomes a
		// durable user-authored entry at the same position.
		promoted := *e
		promoted.ID = uuid.NewString()
		promoted.Origin = OriginUserAuthored
		delete(s.texts, id)
		s.texts[promoted.ID] = &promoted
		s.promoted[id] = promoted.ID
		s.log.Debug("original promoted",
			observability.String("from", id), observability.String("to", promoted.ID))
		if err := s.adapter.Insert(ctx, s.textRecord(&promoted)); err != nil {
			s.log.Error("persist promotion failed", observability.String("id", promoted.ID), observability.Error("err", err))
			return &promoted, fmt.Errorf("persist promoted edit %s: %w", promoted.ID, err)
		}
		return &promoted, nil
	}
	if err := s.adapter.Update(ctx, id, fields); err != nil {
		s.log.Error("persist update failed", observability.String("id", id), observability.Error("err", err))
		return e, fmt.Errorf("persist text edit %s: %w", id, err)
	}
	return e, nil
}

// RemoveText removes a text entry. Originals have nothing durable behind
// them, so removal only hides them for this session; user-authored entries
// are deleted durably.
func (s *Store) RemoveText(ctx context.Context, id string) error {
	id = s.resolve(id)
	e, ok := s.texts[id]
	if !ok {
		s.log.Debug("remove of unknown text edit", observability.String("id", id))
		return nil
	}
	delete(s.texts, id)
	if e.Origin == OriginOriginal {
		s.log.Debug("original hidden", observability.String("id", id))
		return nil
	}
	if err := s.adapter.Delete(ctx, id); err != nil {
		s.log.Error("persist delete failed", observability.String("id", id), observability.Error("err", err))
		return fmt.Errorf("delete text edit %s: %w", id, err)
	}
	return nil
}

// MoveImage changes an image's position durably (drag release).
func (s *Store) MoveImage(ctx context.Context, id string, x, y float64) (*ImageEdit, error) {
	e, ok := s.images[id]
	if !ok {
		s.log.Debug("move of unknown image edit", observability.String("id", id))
		return nil, nil
	}
	e.X, e.Y = x, y
	if err := s.adapter.Update(ctx, id, map[string]interface{}{FieldX: x, FieldY: y}); err != nil {
		s.log.Error("persist update failed", observability.String("id", id), observability.Error("err", err))
		return e, fmt.Errorf("persist image edit %s: %w", id, err)
	}
	return e, nil
}

// DragImage updates an image position in memory only; see DragText.
func (s *Store) DragImage(id string, x, y float64) {
	if e, ok := s.images[id]; ok {
		e.X, e.Y = x, y
	}
}

// ResizeImage changes an image's stored dimensions durably.
func (s *Store) ResizeImage(ctx context.Context, id string, width, height float64) (*ImageEdit, error) {
	e, ok := s.images[id]
	if !ok {
		s.log.Debug("resize of unknown image edit", observability.String("id", id))
		return nil, nil
	}
	e.Width, e.Height = width, height
	if err := s.adapter.Update(ctx, id, map[string]interface{}{FieldWidth: width, FieldHeight: height}); err != nil {
		s.log.Error("persist update failed", observability.String("id", id), observability.Error("err", err))
		return e, fmt.Errorf("persist image edit %s: %w", id, err)
	}
	return e, nil
}

// RemoveImage soft-deletes an image. The tombstone stays in memory and in
// storage; deleting an already-deleted image is a no-op.
func (s *Store) RemoveImage(ctx context.Context, id string) error {
	e, ok := s.images[id]
	if !ok {
		s.log.Debug("remove of unknown image edit", observability.String("id", id))
		return nil
	}
	if e.Deleted {
		return nil
	}
	e.Deleted = true
	if err := s.adapter.Update(ctx, id, map[string]interface{}{FieldDeleted: true}); err != nil {
		s.log.Error("persist delete failed", observability.String("id", id), observability.Error("err", err))
		return fmt.Errorf("soft-delete image edit %s: %w", id, err)
	}
	return nil
}

// resolve follows promotion forwards so stale original ids reach the durable
// entry that replaced them.
func (s *Store) resolve(id string) string {
	for {
		next, ok := s.promoted[id]
		if !ok {
			return id
		}
		id = next
	}
}

// TextsForPage returns the merged text entries for page, top to bottom.
func (s *Store) TextsForPage(page int) []TextEdit {
	var out []TextEdit
	for _, e := range s.texts {
		if e.Page == page {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ImagesForPage returns the live (non-deleted) image overlays for page.
func (s *Store) ImagesForPage(page int) []ImageEdit {
	var out []ImageEdit
	for _, e := range s.images {
		if e.Page == page && !e.Deleted {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExportState is the slice of store state the export serializer consumes:
// user-authored text only and live images only.
type ExportState struct {
	Texts  []TextEdit
	Images []ImageEdit
}

// ExportState snapshots the exportable edits across all pages.
func (s *Store) ExportState() ExportState {
	var st ExportState
	for _, e := range s.texts {
		if e.Origin == OriginUserAuthored {
			st.Texts = append(st.Texts, *e)
		}
	}
	for _, e := range s.images {
		if !e.Deleted {
			st.Images = append(st.Images, *e)
		}
	}
	sort.Slice(st.Texts, func(i, j int) bool { return st.Texts[i].ID < st.Texts[j].ID })
	sort.Slice(st.Images, func(i, j int) bool { return st.Images[i].ID < st.Images[j].ID })
	return st
}

// DocumentID returns the document this store belongs to.
func (s *Store) DocumentID() string { return s.docID }

func (s *Store) textRecord(e *TextEdit) Record {
	return Record{
		ID:         e.ID,
		DocumentID: s.docID,
		Page:       e.Page,
		Kind:       KindText,
		Content:    e.Content,
		X:          e.X,
		Y:          e.Y,
		FontSize:   e.FontSize,
		Color:      e.Color,
	}
}

func (s *Store) imageRecord(e *ImageEdit) Record {
	return Record{
		ID:         e.ID,
		DocumentID: s.docID,
		Page:       e.Page,
		Kind:       KindImage,
		ImageRef:   e.ImageRef,
		X:          e.X,
		Y:          e.Y,
		Width:      e.Width,
		Height:     e.Height,
		Deleted:    e.Deleted,
	}
}

func applyTextFields(e *TextEdit, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case FieldContent:
			e.Content = v.(string)
		case FieldX:
			e.X = v.(float64)
		case FieldY:
			e.Y = v.(float64)
		case FieldFont:
			e.FontSize = v.(float64)
		case FieldColor:
			e.Color = v.(string)
		}
	}
}
