// Package trace 在 context 中传递 trace ID，日志每行带 trace=id 字段便于排查。
// 底层为 zap：控制台输出到 stderr，可选再写一份 JSON 到按大小切割的日志文件。
package trace

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey int

const traceIDKey ctxKey = 0

const (
	traceIDLen      = 8
	traceField      = "trace"
	noTraceID       = "-"
	timeLayout      = "2006-01-02 15:04:05"
	defaultMaxSize  = 50 // MB
	defaultBackups  = 5
	defaultMaxAgeDs = 14
)

// Options 日志配置：级别、可选文件路径及切割参数。
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	logMu sync.RWMutex
	base  = newLogger(zapcore.InfoLevel, nil)
)

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// NewTraceID 取 uuid 前 8 位，足够区分同一天内的多次运行。
func NewTraceID() string {
	return uuid.NewString()[:traceIDLen]
}

// Init 按配置重建全局 logger；重复调用会替换之前的实例。
func Init(opts Options) error {
	var level zapcore.Level
	if opts.Level == "" {
		opts.Level = "info"
	}
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return fmt.Errorf("trace: log level %q: %w", opts.Level, err)
	}
	var file zapcore.WriteSyncer
	if opts.File != "" {
		file = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSize),
			MaxBackups: orDefault(opts.MaxBackups, defaultBackups),
			MaxAge:     orDefault(opts.MaxAgeDays, defaultMaxAgeDs),
		})
	}
	l := newLogger(level, file)
	logMu.Lock()
	old := base
	base = l
	logMu.Unlock()
	_ = old.Sync()
	return nil
}

// Sync 刷新缓冲，进程退出前调用。
func Sync() {
	logMu.RLock()
	l := base
	logMu.RUnlock()
	_ = l.Sync()
}

func newLogger(level zapcore.Level, file zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	if file != nil {
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), file, level))
	}
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func logger(ctx context.Context) *zap.SugaredLogger {
	id := TraceID(ctx)
	if id == "" {
		id = noTraceID
	}
	logMu.RLock()
	l := base
	logMu.RUnlock()
	return l.With(zap.String(traceField, id)).Sugar()
}

// Log 打 info 日志，带当前 context 的 trace 字段。
func Log(ctx context.Context, format string, args ...interface{}) {
	logger(ctx).Infof(format, args...)
}

func Debug(ctx context.Context, format string, args ...interface{}) {
	logger(ctx).Debugf(format, args...)
}

func Warn(ctx context.Context, format string, args ...interface{}) {
	logger(ctx).Warnf(format, args...)
}

// With 返回带 trace 字段及附加字段的结构化 logger，供需要键值日志的调用方使用。
func With(ctx context.Context, fields ...zap.Field) *zap.Logger {
	id := TraceID(ctx)
	if id == "" {
		id = noTraceID
	}
	logMu.RLock()
	l := base
	logMu.RUnlock()
	return l.WithOptions(zap.AddCallerSkip(-1)).With(append([]zap.Field{zap.String(traceField, id)}, fields...)...)
}
