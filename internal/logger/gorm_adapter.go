package logger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/swimform/swimform-go/internal/errors"
)

// GormLoggerAdapter routes GORM output into the datastore module logger.
// Statements go out at TRACE, failures and slow statements at WARN. When the
// statement context carries a session trace ID it is attached to the record.
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
	silent        bool
}

// NewGormLoggerAdapter returns an adapter warning on statements slower than
// slowThreshold. A zero threshold turns slow statement warnings off.
func NewGormLoggerAdapter(log Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if log == nil {
		log = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{logger: log, slowThreshold: slowThreshold}
}

// LogMode only distinguishes Silent; everything else follows the module level.
func (a *GormLoggerAdapter) LogMode(level gorm_logger.LogLevel) gorm_logger.Interface {
	clone := *a
	clone.silent = level == gorm_logger.Silent
	return &clone
}

func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	a.emit(ctx, LogLevelDebug, msg, data)
}

func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	a.emit(ctx, LogLevelWarn, msg, data)
}

func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	a.emit(ctx, LogLevelError, msg, data)
}

func (a *GormLoggerAdapter) emit(ctx context.Context, level LogLevel, msg string, data []any) {
	if a.silent {
		return
	}
	a.logger.WithContext(ctx).Log(level, fmt.Sprintf(msg, data...))
}

// Trace reports one executed statement.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if a.silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	log := a.logger.WithContext(ctx).With(
		String("sql", sql),
		Int64("rows", rows),
		Duration("elapsed", elapsed))

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("session store statement failed", Error(err))
		return
	}
	if a.slowThreshold > 0 && elapsed > a.slowThreshold {
		log.Warn("slow session store statement", Duration("threshold", a.slowThreshold))
		return
	}
	log.Trace("session store statement")
}
