// Package store persists edits and reports in a relational database. It
// implements the overlay.Adapter contract over gorm: caller-supplied primary
// keys make inserts idempotent, and updates are partial by design.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/PoojaSrinivasan05/reporteditorsystem/observability"
	"github.com/PoojaSrinivasan05/reporteditorsystem/overlay"
)

// ErrReportNotFound is returned when a report id matches no row.
var ErrReportNotFound = errors.New("report not found")

// EditRow is one durable edit. Deleted image edits stay as tombstones;
// user-authored text is hard-deleted.
type EditRow struct {
	ID         string `gorm:"primaryKey"`
	DocumentID string `gorm:"index"`
	Page       int
	Kind       string `gorm:"type:varchar(16)"`
	Content    string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	FontSize   float64
	Color      string `gorm:"type:varchar(16)"`
	ImageRef   string
	Deleted    bool `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (EditRow) TableName() string { return "pdf_edits" }

// Report is a rich-text report, optionally with an imported source PDF.
type Report struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Content   string
	PDFRef    string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string { return "reports" }

// DB wraps the gorm handle.
type DB struct {
	db  *gorm.DB
	log observability.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the store's logger.
func WithLogger(log observability.Logger) Option {
	return func(d *DB) { d.log = log }
}

// Open connects to postgres and migrates the schema.
func Open(dsn string, opts ...Option) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := gdb.AutoMigrate(&EditRow{}, &Report{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	d := &DB{db: gdb, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Insert stores a new edit row.
func (d *DB) Insert(ctx context.Context, rec overlay.Record) error {
	row := rowFromRecord(rec)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert edit %s: %w", rec.ID, err)
	}
	return nil
}

// Update applies a partial update by id. Field keys are the overlay.Field*
// constants, which match the column names here. Unknown ids update zero
// rows, which is not an error.
func (d *DB) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := d.db.WithContext(ctx).Model(&EditRow{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update edit %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		d.log.Debug("update matched no rows", observability.String("id", id))
	}
	return nil
}

// Delete removes an edit row outright.
func (d *DB) Delete(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Delete(&EditRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete edit %s: %w", id, err)
	}
	return nil
}

// ListByDocument returns every edit row for a document, tombstones included.
func (d *DB) ListByDocument(ctx context.Context, documentID string) ([]overlay.Record, error) {
	var rows []EditRow
	err := d.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list edits for %s: %w", documentID, err)
	}
	out := make([]overlay.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordFromRow(row))
	}
	return out, nil
}

// CreateReport stores a new report, minting an id if the caller left it
// empty, and returns the stored row.
func (d *DB) CreateReport(ctx context.Context, r Report) (Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := d.db.WithContext(ctx).Create(&r).Error; err != nil {
		return Report{}, fmt.Errorf("create report: %w", err)
	}
	return r, nil
}

// GetReport fetches a report by id.
func (d *DB) GetReport(ctx context.Context, id string) (Report, error) {
	var r Report
	err := d.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Report{}, fmt.Errorf("report %s: %w", id, ErrReportNotFound)
	}
	if err != nil {
		return Report{}, fmt.Errorf("get report %s: %w", id, err)
	}
	return r, nil
}

// UpdateReport applies a partial update to a report.
func (d *DB) UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error {
	res := d.db.WithContext(ctx).Model(&Report{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update report %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("report %s: %w", id, ErrReportNotFound)
	}
	return nil
}

// DeleteReport soft-deletes a report; its edit rows stay for reconciliation.
func (d *DB) DeleteReport(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Delete(&Report{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}

// ListReports returns all live reports, newest first.
func (d *DB) ListReports(ctx context.Context) ([]Report, error) {
	var out []Report
	if err := d.db.WithContext(ctx).Order("updated_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func rowFromRecord(rec overlay.Record) EditRow {
	return EditRow{
		ID:         rec.ID,
		DocumentID: rec.DocumentID,
		Page:       rec.Page,
		Kind:       string(rec.Kind),
		Content:    rec.Content,
		X:          rec.X,
		Y:          rec.Y,
		Width:      rec.Width,
		Height:     rec.Height,
		FontSize:   rec.FontSize,
		Color:      rec.Color,
		ImageRef:   rec.ImageRef,
		Deleted:    rec.Deleted,
	}
}

func recordFromRow(row EditRow) overlay.Record {
	return overlay.Record{
		ID:         row.ID,
		DocumentID: row.DocumentID,
		Page:       row.Page,
		Kind:       overlay.Kind(row.Kind),
		Content:    row.Content,
		X:          row.X,
		Y:          row.Y,
		Width:      row.Width,
		Height:     row.Height,
		FontSize:   row.FontSize,
		Color:      row.Color,
		ImageRef:   row.ImageRef,
		Deleted:    row.Deleted,
	}
}
