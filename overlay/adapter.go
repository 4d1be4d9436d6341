package overlay

import (
	"context"
	"sort"
	"sync"
)

// Kind discriminates durable edit records.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Field names accepted by Adapter.Update. They match the durable column
// names so adapters can pass them through unmapped.
const (
	FieldContent = "content"
	FieldX       = "x"
	FieldY       = "y"
	FieldWidth   = "width"
	FieldHeight  = "height"
	FieldFont    = "font_size"
	FieldColor   = "color"
	FieldDeleted = "deleted"
)

// Record is the durable form of an edit, as exchanged with the persistence
// adapter. The caller supplies the primary key, so retried inserts are
// idempotent.
type Record struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	Kind       Kind    `json:"kind"`
	Content    string  `json:"content,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	Color      string  `json:"color,omitempty"`
	ImageRef   string  `json:"image_ref,omitempty"`
	Deleted    bool    `json:"deleted,omitempty"`
}

// Adapter is the contract the store expects from durable storage.
type Adapter interface {
	Insert(ctx context.Context, rec Record) error
	// Update applies a partial update keyed by id; keys are the Field*
	// constants above. Updating an unknown id is not an error.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Delete removes a row outright. Used only for user-authored text.
	Delete(ctx context.Context, id string) error
	ListByDocument(ctx context.Context, documentID string) ([]Record, error)
}

// MemoryAdapter is an in-process Adapter used by the CLI's offline mode and
// by tests.
type MemoryAdapter struct {
	mu   sync.Mutex
	rows map[string]Record
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{rows: make(map[string]Record)}
}

func (m *MemoryAdapter) Insert(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID] = rec
	return nil
}

func (m *MemoryAdapter) Update(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case FieldContent:
			rec.Content = v.(string)
		case FieldX:
			rec.X = v.(float64)
		case FieldY:
			rec.Y = v.(float64)
		case FieldWidth:
			rec.Width = v.(float64)
		case FieldHeight:
			rec.Height = v.(float64)
		case FieldFont:
			rec.FontSize = v.(float64)
		case FieldColor:
			rec.Color = v.(string)
		case FieldDeleted:
			rec.Deleted = v.(bool)
		}
	}
	m.rows[id] = rec
	return nil
}

func (m *MemoryAdapter) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *MemoryAdapter) ListByDocument(_ context.Context, documentID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.rows {
		if rec.DocumentID == documentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Seed preloads records, bypassing Insert bookkeeping in callers.
func (m *MemoryAdapter) Seed(recs ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.rows[rec.ID] = rec
	}
}

// Row returns the stored record for id, for inspection.
func (m *MemoryAdapter) Row(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	return rec, ok
}

// Len reports the number of stored rows.
func (m *MemoryAdapter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
