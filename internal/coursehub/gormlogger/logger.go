// Логирование запросов GORM через slog.
//
// Основные возможности:
//   - Ошибки SQL пишутся с уровнем Error, запись не найдена ошибкой не считается.
//   - Запросы дольше порога пишутся с уровнем Warn, кроме операторов из списка исключений.
//   - Остальные запросы пишутся с уровнем Debug и видны только с флагом --trace.
//   - Параметры запросов можно скрыть из логов.
package gormlogger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	gormLog "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// Операторы, медленное выполнение которых ожидаемо (массовое удаление блоков при сохранении документа).
var defaultSlowExclusions = []string{"DELETE"}

type GormLogger struct {
	SlowThreshold        time.Duration
	ParameterizedQueries bool
	SlowExclusions       []string
	logger               *slog.Logger
}

func NewGormLogger(logger *slog.Logger, slowThreshold time.Duration, paramQueries bool) *GormLogger {
	return &GormLogger{
		logger:               logger,
		SlowThreshold:        slowThreshold,
		ParameterizedQueries: paramQueries,
		SlowExclusions:       defaultSlowExclusions,
	}
}

// LogMode не меняет поведение: уровень задается обработчиком slog.
func (gl *GormLogger) LogMode(gormLog.LogLevel) gormLog.Interface {
	return gl
}

func (gl *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	gl.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
}

func (gl *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	gl.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (gl *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	gl.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (gl *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.String("file", utils.FileWithLineNum()),
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		gl.logger.ErrorContext(ctx, "SQL error", append(attrs, slog.String("err", err.Error()))...)
		return
	}
	if gl.isSlow(sql, elapsed) {
		gl.logger.WarnContext(ctx, fmt.Sprintf("SLOW SQL >= %v", gl.SlowThreshold), attrs...)
		return
	}
	gl.logger.DebugContext(ctx, "SQL trace", attrs...)
}

func (gl *GormLogger) isSlow(sql string, elapsed time.Duration) bool {
	if gl.SlowThreshold == 0 || elapsed < gl.SlowThreshold {
		return false
	}
	statement := strings.ToUpper(strings.TrimSpace(sql))
	for _, prefix := range gl.SlowExclusions {
		if strings.HasPrefix(statement, prefix) {
			return false
		}
	}
	return true
}

func (gl *GormLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if gl.ParameterizedQueries {
		return sql, nil
	}
	return sql, params
}
