package xlog

import (
	"fmt"
	"path/filepath"
	"reflect"
	"time"
)

// Logger 带上下文名称的日志门面
//
// 按配置的最小级别过滤，把参数格式化为一行文本后交给 LogWriter。
// 方法并发安全，不返回错误也不 panic。
type Logger struct {
	context  string
	writer   LogWriter
	store    *Store
	now      func() time.Time
	reporter *reporter
}

// LoggerOption Logger 配置选项
type LoggerOption func(*Logger)

// WithLoggerClock 设置日志行使用的时间来源
func WithLoggerClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLoggerOnError 设置参数渲染失败、格式化回调 panic 时的诊断回调
func WithLoggerOnError(fn func(error)) LoggerOption {
	return func(l *Logger) {
		l.reporter = newReporter(fn)
	}
}

// NewLogger 创建 Logger
//
// context 取 filepath.Base，便于直接传入源文件路径。
// w 为 nil 时使用 [DefaultWriter]，store 为 nil 时使用 [DefaultStore]。
func NewLogger(context string, w LogWriter, store *Store, opts ...LoggerOption) *Logger {
	if context != "" {
		context = filepath.Base(context)
	}
	if w == nil {
		w = defaultLogWriter{}
	}
	if store == nil {
		store = DefaultStore()
	}

	l := &Logger{
		context:  context,
		writer:   w,
		store:    store,
		now:      time.Now,
		reporter: newReporter(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// NewLoggerFor 创建以类型 T 的名称为上下文的 Logger
func NewLoggerFor[T any](w LogWriter, store *Store, opts ...LoggerOption) *Logger {
	return NewLogger(typeName(reflect.TypeFor[T]()), w, store, opts...)
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// Context 返回上下文名称
func (l *Logger) Context() string {
	return l.context
}

// InternalErrors 返回本 Logger 渲染日志时上报的错误数，Writer 的错误见 [Writer.InternalErrors]
func (l *Logger) InternalErrors() uint64 {
	return l.reporter.total()
}

// Log 记录一条日志
//
// 没有参数或级别低于配置的最小级别时不做任何事。
func (l *Logger) Log(level Level, params ...any) {
	if len(params) == 0 {
		return
	}

	cfg := l.store.Get()
	if level < cfg.MinimumLevel {
		return
	}

	now := l.now()
	name := level.String()

	var line string
	if cfg.FormatFunc != nil {
		line = l.callFormatFunc(cfg.FormatFunc, now, name, params)
	}
	if line == "" {
		line = formatLine(now, name, l.context, params, l.reporter.report)
	}

	l.writer.WriteToFile(level, line)
	if cfg.EnableConsole {
		l.writer.WriteToConsole(level, line)
	}
}

func (l *Logger) callFormatFunc(fn FormatFunc, now time.Time, level string, params []any) (line string) {
	defer func() {
		if r := recover(); r != nil {
			line = ""
			l.reporter.report(fmt.Errorf("xlog: format callback panic: %v", r))
		}
	}()
	return fn(now, level, l.context, params...)
}

// Debug 记录 Debug 级别日志
func (l *Logger) Debug(params ...any) {
	l.Log(LevelDebug, params...)
}

// Information 记录 Information 级别日志
func (l *Logger) Information(params ...any) {
	l.Log(LevelInformation, params...)
}

// Warning 记录 Warning 级别日志
func (l *Logger) Warning(params ...any) {
	l.Log(LevelWarning, params...)
}

// Error 记录 Error 级别日志
func (l *Logger) Error(params ...any) {
	l.Log(LevelError, params...)
}

// Fatal 记录 Fatal 级别日志
//
// 只记录日志，不会退出进程。
func (l *Logger) Fatal(params ...any) {
	l.Log(LevelFatal, params...)
}
