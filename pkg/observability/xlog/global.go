package xlog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 进程级默认实例
//
// 定位：脚本、小工具等简单场景，所有 Logger 共享一个 Writer 和一份配置。
// 服务端推荐显式创建 Store/Writer 并注入。
// =============================================================================

var (
	globalStore  atomic.Pointer[Store]
	globalWriter atomic.Pointer[Writer]

	// storeMu、writerMu 分开，DefaultWriter 初始化时需要调用 DefaultStore
	storeMu  sync.Mutex
	writerMu sync.Mutex
)

// DefaultStore 返回进程级默认配置（惰性初始化为默认值）
func DefaultStore() *Store {
	if s := globalStore.Load(); s != nil {
		return s
	}
	storeMu.Lock()
	defer storeMu.Unlock()
	if s := globalStore.Load(); s != nil {
		return s
	}
	s := NewStore()
	globalStore.Store(s)
	return s
}

// DefaultWriter 返回进程级默认 Writer（惰性创建，读取 DefaultStore 的配置）
//
// 调用 [Shutdown] 之后再次调用会创建新的 Writer。
func DefaultWriter() *Writer {
	if w := globalWriter.Load(); w != nil {
		return w
	}
	writerMu.Lock()
	defer writerMu.Unlock()
	if w := globalWriter.Load(); w != nil {
		return w
	}
	// 默认选项不含需要校验的值，构造不会失败
	w := newWriter(DefaultStore(), defaultWriterOptions(), nil)
	globalWriter.Store(w)
	return w
}

// Configure 替换默认配置，对之后的所有日志调用立即生效
func Configure(opts Options) {
	DefaultStore().Set(opts)
}

// For 返回使用默认 Writer 和默认配置的 Logger
//
// Logger 每次写入时才解析默认 Writer，[Shutdown] 之后继续使用也会落到新建的 Writer。
func For(context string) *Logger {
	return NewLogger(context, defaultLogWriter{}, DefaultStore())
}

// defaultLogWriter 每次调用都转发给当前的默认 Writer
type defaultLogWriter struct{}

func (defaultLogWriter) WriteToFile(level Level, text string) {
	DefaultWriter().WriteToFile(level, text)
}

func (defaultLogWriter) WriteToConsole(level Level, text string) {
	DefaultWriter().WriteToConsole(level, text)
}

// Shutdown 落盘并关闭默认 Writer
//
// 进程退出前调用，确保已记录的日志写入文件。ctx 只限制落盘等待时间，
// 超时后仍会关闭 Writer（关闭时会再次尝试落盘）。
//
// [For] 和未指定 Writer 的 [NewLogger] 返回的 Logger 不持有具体 Writer，
// 之后的写入会惰性创建新的默认 Writer，需要再次 Shutdown 才能落盘。
// 直接持有 [DefaultWriter] 返回值的调用方在 Shutdown 后写入的记录会被丢弃。
func Shutdown(ctx context.Context) error {
	writerMu.Lock()
	w := globalWriter.Swap(nil)
	writerMu.Unlock()
	if w == nil {
		return nil
	}
	return errors.Join(w.Flush(ctx), w.Close())
}

// ResetDefault 关闭默认 Writer 并重置默认配置（仅用于测试）
func ResetDefault() {
	_ = Shutdown(context.Background())
	storeMu.Lock()
	globalStore.Store(nil)
	storeMu.Unlock()
}
