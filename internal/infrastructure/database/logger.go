package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-linker/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// zapLogger 將 gorm 日誌導向 common 的 zap logger
type zapLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewLogger 建立 gorm 用的 zap logger
func NewLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return &zapLogger{level: level, slowThreshold: defaultSlowThreshold}
}

func (l *zapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *zapLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		common.LogDebug("gorm", zap.String("message", fmt.Sprintf(msg, data...)))
	}
}

func (l *zapLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		common.LogWarn("gorm", zap.String("message", fmt.Sprintf(msg, data...)))
	}
}

func (l *zapLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		common.LogError("gorm", zap.String("message", fmt.Sprintf(msg, data...)))
	}
}

// Trace 記錄 SQL：錯誤（查無資料除外）、慢查詢，Info 等級時記錄全部
func (l *zapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		common.LogError("SQL 執行失敗",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("耗時", elapsed),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		common.LogWarn("慢查詢",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("耗時", elapsed),
			zap.Duration("threshold", l.slowThreshold),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		common.LogDebug("SQL",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("耗時", elapsed),
		)
	}
}
