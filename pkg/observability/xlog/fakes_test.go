package xlog

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// memFile 内存中的日志文件
type memFile struct {
	mu       sync.Mutex
	path     string
	buf      strings.Builder
	writeErr error
	closed   bool

	// block 非 nil 时 Write 先通知 entered，再等待 block 关闭
	block   chan struct{}
	entered chan struct{}
}

func (f *memFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.buf.Write(p)
}

func (f *memFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *memFile) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func (f *memFile) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *memFile) setWriteErr(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// memFS 记录每次打开的内存文件系统
type memFS struct {
	mu      sync.Mutex
	opened  []*memFile
	failFor map[string]error
	openErr error
}

func newMemFS() *memFS {
	return &memFS{failFor: make(map[string]error)}
}

func (fs *memFS) open(path string) (io.WriteCloser, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.openErr != nil {
		return nil, fs.openErr
	}
	if err := fs.failFor[path]; err != nil {
		return nil, err
	}
	f := &memFile{path: path}
	fs.opened = append(fs.opened, f)
	return f, nil
}

func (fs *memFS) setOpenErr(err error) {
	fs.mu.Lock()
	fs.openErr = err
	fs.mu.Unlock()
}

func (fs *memFS) failPath(path string, err error) {
	fs.mu.Lock()
	if err == nil {
		delete(fs.failFor, path)
	} else {
		fs.failFor[path] = err
	}
	fs.mu.Unlock()
}

func (fs *memFS) opens() []*memFile {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]*memFile(nil), fs.opened...)
}

// latest 返回 path 最近一次打开的文件
func (fs *memFS) latest(t *testing.T, path string) *memFile {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := len(fs.opened) - 1; i >= 0; i-- {
		if fs.opened[i].path == path {
			return fs.opened[i]
		}
	}
	require.FailNow(t, "file never opened", path)
	return nil
}

// fakeClock 可手动拨动的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// errSink 并发安全地收集 onError 回调
type errSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errSink) report(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *errSink) all() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// recordingWriter 记录 Logger 交给 LogWriter 的每次调用
type recordingWriter struct {
	mu      sync.Mutex
	file    []written
	console []written
}

type written struct {
	level Level
	text  string
}

func (w *recordingWriter) WriteToFile(level Level, text string) {
	w.mu.Lock()
	w.file = append(w.file, written{level, text})
	w.mu.Unlock()
}

func (w *recordingWriter) WriteToConsole(level Level, text string) {
	w.mu.Lock()
	w.console = append(w.console, written{level, text})
	w.mu.Unlock()
}

func (w *recordingWriter) fileCalls() []written {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]written(nil), w.file...)
}

func (w *recordingWriter) consoleCalls() []written {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]written(nil), w.console...)
}

// testDay 测试使用的固定日期
var testDay = time.Date(2026, time.October, 19, 14, 5, 9, 0, time.UTC)

type writerHarness struct {
	w     *Writer
	fs    *memFS
	clock *fakeClock
	errs  *errSink
	dir   string
}

// newTestWriter 创建写入内存文件系统的 Writer，测试结束时自动关闭
func newTestWriter(t *testing.T, opts Options, wopts ...WriterOption) *writerHarness {
	t.Helper()
	if opts.LogsDirectory == "" {
		opts.LogsDirectory = t.TempDir()
	}
	h := &writerHarness{
		fs:    newMemFS(),
		clock: newFakeClock(testDay),
		errs:  &errSink{},
		dir:   opts.LogsDirectory,
	}
	all := append([]WriterOption{
		WithClock(h.clock.Now),
		WithConsole(NewConsole(io.Discard, io.Discard)),
		WithOnError(h.errs.report),
	}, wopts...)

	w, err := NewWriter(NewStoreWith(opts), all...)
	require.NoError(t, err)
	// worker 只在被唤醒后读取 open，这里替换不会与其竞争
	w.open = h.fs.open
	h.w = w
	t.Cleanup(func() { _ = w.Close() })
	return h
}

// paths 返回 day 当天的普通日志与错误日志路径
func (h *writerHarness) paths(t *testing.T, day time.Time) (normal, failure string) {
	t.Helper()
	normal, failure, err := LogFilePaths(day, h.w.store.Get())
	require.NoError(t, err)
	return normal, failure
}

// enqueue 直接入队而不唤醒 worker，只有显式 Flush 才会落盘
func (h *writerHarness) enqueue(level Level, text string) {
	h.w.queue.push(record{level: level, text: text})
}
