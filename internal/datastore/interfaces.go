// Package datastore persists finished analysis sessions with GORM. SQLite
// and MySQL are supported.
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

const (
	// DefaultSlowQueryThreshold is the duration after which a query is logged as slow.
	DefaultSlowQueryThreshold = 1 * time.Second

	// frameBatchSize is the number of frame rows inserted per statement.
	frameBatchSize = 200

	// DefaultListLimit applies when ListOptions.Limit is not positive.
	DefaultListLimit = 50
	// MaxListLimit caps a single page of sessions or frames.
	MaxListLimit = 1000

	tableSessions = "sessions"
	tableFrames   = "frame_rows"
	tableImages   = "frame_images"
)

// Interface is the session store.
type Interface interface {
	Open() error
	Close() error
	SaveSession(ctx context.Context, source string, report *analysis.Report) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, opts ListOptions) ([]Session, error)
	CountSessions(ctx context.Context) (int64, error)
	GetFrames(ctx context.Context, sessionID string, offset, limit int) ([]FrameRow, error)
	GetFrameImage(ctx context.Context, sessionID, kind string) (*FrameImage, error)
	DeleteSession(ctx context.Context, id string) error
}

// ListOptions pages and orders ListSessions.
type ListOptions struct {
	Limit  int
	Offset int
	// SortBy is "created_at" (default) or "avg_score".
	SortBy    string
	Ascending bool
}

// MetricsRecorder receives datastore metrics.
type MetricsRecorder interface {
	metrics.Recorder
	UpdateStoredSessions(count int64)
}

// DataStore implements the queries shared by every backend.
type DataStore struct {
	DB      *gorm.DB
	metrics MetricsRecorder
}

// SetMetrics installs a metrics recorder; nil disables recording.
func (ds *DataStore) SetMetrics(m MetricsRecorder) {
	ds.metrics = m
}

// New creates the store selected by settings. The store must be opened
// before use.
func New(settings *conf.Settings) (Interface, error) {
	if settings == nil {
		return nil, errors.Newf("datastore settings are nil").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	switch settings.Database.Type {
	case conf.DatabaseSQLite:
		return &SQLiteStore{Settings: settings}, nil
	case conf.DatabaseMySQL:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("type", settings.Database.Type).
			Build()
	}
}

// performAutoMigration migrates every model and logs the outcome.
func performAutoMigration(db *gorm.DB, dbType, target string) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Context("db_type", dbType).
			Build()
	}
	GetLogger().Info("database migrated",
		logger.String("db_type", dbType),
		logger.String("target", target))
	return nil
}

// closeDB closes the connection pool behind db.
func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "close", "", "")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", "", "")
	}
	return nil
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// SaveSession stores a finished session with its frames and retained
// images in one transaction.
func (ds *DataStore) SaveSession(ctx context.Context, source string, report *analysis.Report) (*Session, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	if report == nil || report.ID == "" {
		return nil, errors.Newf("report must carry a session id").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	session := newSession(report.ID, source, &report.Summary)
	rows := make([]FrameRow, len(report.Records))
	for i := range report.Records {
		rec := &report.Records[i]
		rows[i] = FrameRow{
			SessionID:  report.ID,
			FrameIndex: rec.Index,
			Timestamp:  rec.Timestamp,
			Phase:      string(rec.Phase),
			Score:      rec.Score,
			Record:     *rec,
		}
	}
	var images []*FrameImage
	if img := newFrameImage(report.ID, ImageBest, report.Best); img != nil {
		images = append(images, img)
	}
	if img := newFrameImage(report.ID, ImageWorst, report.Worst); img != nil {
		images = append(images, img)
	}

	start := time.Now()
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return dbError(err, metrics.OpDbInsert, tableSessions, report.ID)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, frameBatchSize).Error; err != nil {
				return dbError(err, metrics.OpDbInsert, tableFrames, report.ID)
			}
		}
		for _, img := range images {
			if err := tx.Create(img).Error; err != nil {
				return dbError(err, metrics.OpDbInsert, tableImages, report.ID)
			}
		}
		return nil
	})
	ds.observe(metrics.OpTransaction, "", start, err)
	ds.observe(metrics.OpDbInsert, tableSessions, start, err)
	if err != nil {
		return nil, err
	}

	GetLogger().Info("session saved",
		logger.String("session_id", report.ID),
		logger.Int("frames", len(rows)),
		logger.Int("images", len(images)))
	ds.refreshStoredSessions(ctx)
	return session, nil
}

// GetSession returns a stored session.
func (ds *DataStore) GetSession(ctx context.Context, id string) (*Session, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	var session Session
	err := ds.DB.WithContext(ctx).First(&session, "id = ?", id).Error
	ds.observe(metrics.OpDbQuery, tableSessions, start, err)
	if err != nil {
		return nil, dbError(err, metrics.OpDbQuery, tableSessions, id)
	}
	return &session, nil
}

// ListSessions returns a page of sessions.
func (ds *DataStore) ListSessions(ctx context.Context, opts ListOptions) ([]Session, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	limit, offset := clampPage(opts.Offset, opts.Limit)

	column := "created_at"
	if opts.SortBy == "avg_score" {
		column = "avg_score"
	}
	order := column + " DESC"
	if opts.Ascending {
		order = column + " ASC"
	}

	start := time.Now()
	var sessions []Session
	err := ds.DB.WithContext(ctx).
		Order(order).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error
	ds.observe(metrics.OpDbQuery, tableSessions, start, err)
	if err != nil {
		return nil, dbError(err, metrics.OpDbQuery, tableSessions, "")
	}
	return sessions, nil
}

// CountSessions returns the number of stored sessions.
func (ds *DataStore) CountSessions(ctx context.Context) (int64, error) {
	if err := ds.ready(); err != nil {
		return 0, err
	}
	start := time.Now()
	var count int64
	err := ds.DB.WithContext(ctx).Model(&Session{}).Count(&count).Error
	ds.observe(metrics.OpDbQuery, tableSessions, start, err)
	if err != nil {
		return 0, dbError(err, metrics.OpDbQuery, tableSessions, "")
	}
	return count, nil
}

// GetFrames returns a page of frame rows ordered by frame index. An unknown
// session is a not-found error, a session without frames is not.
func (ds *DataStore) GetFrames(ctx context.Context, sessionID string, offset, limit int) ([]FrameRow, error) {
	if _, err := ds.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(offset, limit)

	start := time.Now()
	var rows []FrameRow
	err := ds.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("frame_index ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	ds.observe(metrics.OpDbQuery, tableFrames, start, err)
	if err != nil {
		return nil, dbError(err, metrics.OpDbQuery, tableFrames, sessionID)
	}
	return rows, nil
}

// GetFrameImage returns the best or worst retained frame of a session.
func (ds *DataStore) GetFrameImage(ctx context.Context, sessionID, kind string) (*FrameImage, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	if kind != ImageBest && kind != ImageWorst {
		return nil, errors.Newf("invalid image kind %q", kind).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	start := time.Now()
	var img FrameImage
	err := ds.DB.WithContext(ctx).
		Where("session_id = ? AND kind = ?", sessionID, kind).
		First(&img).Error
	ds.observe(metrics.OpDbQuery, tableImages, start, err)
	if err != nil {
		return nil, dbError(err, metrics.OpDbQuery, tableImages, sessionID)
	}
	return &img, nil
}

// DeleteSession removes a session and everything stored with it.
func (ds *DataStore) DeleteSession(ctx context.Context, id string) error {
	if err := ds.ready(); err != nil {
		return err
	}
	start := time.Now()
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&FrameRow{}).Error; err != nil {
			return dbError(err, metrics.OpDbDelete, tableFrames, id)
		}
		if err := tx.Where("session_id = ?", id).Delete(&FrameImage{}).Error; err != nil {
			return dbError(err, metrics.OpDbDelete, tableImages, id)
		}
		res := tx.Delete(&Session{}, "id = ?", id)
		if res.Error != nil {
			return dbError(res.Error, metrics.OpDbDelete, tableSessions, id)
		}
		if res.RowsAffected == 0 {
			return dbError(gorm.ErrRecordNotFound, metrics.OpDbDelete, tableSessions, id)
		}
		return nil
	})
	ds.observe(metrics.OpDbDelete, tableSessions, start, err)
	if err != nil {
		return err
	}
	ds.refreshStoredSessions(ctx)
	return nil
}

func (ds *DataStore) refreshStoredSessions(ctx context.Context) {
	if ds.metrics == nil {
		return
	}
	count, err := ds.CountSessions(ctx)
	if err != nil {
		GetLogger().Warn("failed to count stored sessions", logger.Error(err))
		return
	}
	ds.metrics.UpdateStoredSessions(count)
}

// observe records one operation in the "op:table" form.
func (ds *DataStore) observe(op, table string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	name := op
	if table != "" {
		name = op + ":" + table
	}
	ds.metrics.RecordDuration(name, time.Since(start).Seconds())
	if err != nil {
		errType := "database"
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errType = "not_found"
		}
		ds.metrics.RecordError(name, errType)
		return
	}
	ds.metrics.RecordOperation(name, metrics.StatusSuccess)
}

func clampPage(offset, limit int) (l, o int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
