package xlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// DefaultFileMode 日志文件默认权限
const DefaultFileMode os.FileMode = 0644

// maxFileSizeMB 与 xrotate 的单文件大小上限一致
const maxFileSizeMB = 10240

var _ LogWriter = (*Writer)(nil)

// WriterOption Writer 配置选项
type WriterOption func(*writerOptions)

type writerOptions struct {
	now           func() time.Time
	console       Console
	onError       func(error)
	maxSizeMB     int
	fileMode      os.FileMode
	localTime     bool
	meterProvider metric.MeterProvider
}

// WithClock 设置时间来源，决定日志文件按哪一天命名
func WithClock(now func() time.Time) WriterOption {
	return func(o *writerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConsole 设置控制台输出，默认 [StdConsole]
func WithConsole(c Console) WriterOption {
	return func(o *writerOptions) {
		if c != nil {
			o.console = c
		}
	}
}

// WithOnError 设置内部错误回调，默认向 stderr 打印一行
//
// 回调在 worker goroutine 上同步执行，应保持轻量，且不得回写同一个 Writer。
func WithOnError(fn func(error)) WriterOption {
	return func(o *writerOptions) {
		o.onError = fn
	}
}

// WithMaxFileSize 设置单个日志文件大小上限（MB），超过后切出备份文件
func WithMaxFileSize(mb int) WriterOption {
	return func(o *writerOptions) {
		o.maxSizeMB = mb
	}
}

// WithFileMode 设置日志文件权限，0 表示使用 0600
func WithFileMode(mode os.FileMode) WriterOption {
	return func(o *writerOptions) {
		o.fileMode = mode
	}
}

// WithBackupLocalTime 设置按大小切出的备份文件名是否使用本地时间，默认 true
//
// 日志文件本身始终按时钟所在时区的日期命名，只有备份文件名受影响。
func WithBackupLocalTime(local bool) WriterOption {
	return func(o *writerOptions) {
		o.localTime = local
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider，nil 表示不收集指标
func WithMeterProvider(provider metric.MeterProvider) WriterOption {
	return func(o *writerOptions) {
		o.meterProvider = provider
	}
}

// Writer 日志写入器
//
// WriteToFile 只把记录放进内存队列并唤醒后台 worker，从不等待磁盘 I/O。
// worker 独占队列的消费端和文件句柄，按入队顺序写入当天的日志文件；
// Error/Fatal 记录先写错误日志文件，再写普通日志文件。
//
// 写入失败时当前记录被丢弃（至多一次），尚未出队的记录留待下次落盘。
// 所有内部错误只交给 onError 回调，不会返回给日志调用方。
type Writer struct {
	store    *Store
	queue    *pendingQueue
	console  Console
	now      func() time.Time
	open     func(path string) (io.WriteCloser, error)
	reporter *reporter
	metrics  *writerMetrics

	// flushing 保证同一时刻至多一个 drain 在执行
	flushing atomic.Bool
	// rot 只在持有 flushing 时或 worker 退出时读写
	rot rotation

	mu     sync.RWMutex // 保护 closed，使入队与关闭互斥
	closed bool

	wake     chan struct{}
	flushReq chan chan error
	quit     chan struct{}
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWriter 创建 Writer 并启动后台 worker
//
// 使用完毕后必须调用 Close，否则 worker goroutine 和文件句柄不会释放。
//
// 每次跨天切换会经 [xrotate.Open] 打开两个文件，lumberjack 为每个文件启动的
// millRun goroutine 在 Close 后仍然存在，即每次切换常驻 2 个 goroutine。
// 按天切换时这一开销可以忽略；不要为短生命周期任务反复创建 Writer。
func NewWriter(store *Store, opts ...WriterOption) (*Writer, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	o := defaultWriterOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.maxSizeMB <= 0 || o.maxSizeMB > maxFileSizeMB {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", xrotate.ErrInvalidMaxSize, o.maxSizeMB, maxFileSizeMB)
	}

	m, err := newWriterMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("xlog: create metrics: %w", err)
	}
	return newWriter(store, o, m), nil
}

func defaultWriterOptions() writerOptions {
	return writerOptions{
		now:       time.Now,
		maxSizeMB: xrotate.DefaultMaxSizeMB,
		fileMode:  DefaultFileMode,
		localTime: xrotate.DefaultLocalTime,
	}
}

// newWriter 以已校验的选项构造 Writer
func newWriter(store *Store, o writerOptions, m *writerMetrics) *Writer {
	if o.console == nil {
		o.console = StdConsole()
	}

	w := &Writer{
		store:    store,
		queue:    newPendingQueue(),
		console:  o.console,
		now:      o.now,
		reporter: newReporter(o.onError),
		metrics:  m,
		wake:     make(chan struct{}, 1),
		flushReq: make(chan chan error),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	w.open = func(path string) (io.WriteCloser, error) {
		return xrotate.Open(path,
			xrotate.WithMaxSize(o.maxSizeMB),
			xrotate.WithFileMode(o.fileMode),
			xrotate.WithLocalTime(o.localTime),
			xrotate.WithOnError(w.reporter.report),
		)
	}

	go w.run()
	return w
}

// WriteToFile 将日志放入待写队列并触发后台落盘，立即返回
//
// Close 之后到达的记录被丢弃。
func (w *Writer) WriteToFile(level Level, text string) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		w.metrics.recordDropped("closed", 1)
		return
	}
	w.queue.push(record{level: level, text: text})
	w.mu.RUnlock()

	w.metrics.recordEnqueued(level)
	select {
	case w.wake <- struct{}{}:
	default:
		// 已有未处理的唤醒信号，worker 会一并处理
	}
}

// WriteToConsole 同步输出到与级别对应的控制台流
func (w *Writer) WriteToConsole(level Level, text string) {
	defer func() {
		if r := recover(); r != nil {
			w.reporter.report(fmt.Errorf("xlog: console panic: %v", r))
		}
	}()
	dispatchConsole(w.console, level, text)
}

// Flush 立即落盘当前队列并等待结果
//
// 返回本次落盘遇到的错误；ctx 结束时返回 ctx.Err()，落盘仍会在后台完成。
func (w *Writer) Flush(ctx context.Context) error {
	if w.isClosed() {
		return ErrClosed
	}

	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 停止接收新记录，落盘剩余记录，关闭文件句柄并等待 worker 退出
//
// 可重复调用，每次返回首次关闭的结果。
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.quit)
		<-w.done
	})
	return w.closeErr
}

// Pending 返回尚未落盘的记录数
func (w *Writer) Pending() int {
	return w.queue.len()
}

// InternalErrors 返回已上报的内部错误总数（如写入或切换失败）
//
// 回调被替换或静默时，可以用它判断日志是否在悄悄丢失。
func (w *Writer) InternalErrors() uint64 {
	return w.reporter.total()
}

func (w *Writer) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// run worker 主循环
func (w *Writer) run() {
	defer close(w.done)

	for {
		select {
		case <-w.wake:
			_ = w.drain()
		case reply := <-w.flushReq:
			reply <- w.drain()
		case <-w.quit:
			drainErr := w.drain()
			if n := w.queue.len(); n > 0 {
				w.metrics.recordDropped("closed", n)
				drainErr = errors.Join(drainErr, fmt.Errorf("xlog: %d records not written before close", n))
			}
			w.closeErr = errors.Join(drainErr, w.closeHandles())
			return
		}
	}
}

// drain 将队列中的记录依次写入文件，直到队列为空或发生错误
//
// 已有 drain 在执行或队列为空时直接返回，不会打开任何文件。
func (w *Writer) drain() error {
	if w.queue.len() == 0 || !w.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer w.flushing.Store(false)

	// 持有标记之前可能已被另一个 drain 取空
	if w.queue.len() == 0 {
		return nil
	}

	normal, failure, err := w.ensureFileHandles()
	if err != nil {
		w.metrics.recordDrainError("rotate")
		w.reporter.report(err)
		return err
	}

	for {
		rec, ok := w.queue.pop()
		if !ok {
			return nil
		}
		if err := writeRecord(normal, failure, rec); err != nil {
			w.metrics.recordDropped("write_error", 1)
			w.metrics.recordDrainError("write")
			w.reporter.report(err)
			return err
		}
		w.metrics.recordWritten(rec.level)
	}
}

// writeRecord 写入一条记录；错误级别的记录先写错误日志文件
func writeRecord(normal, failure io.Writer, rec record) error {
	line := rec.text + "\n"
	if rec.level.IsErrorClass() {
		if _, err := io.WriteString(failure, line); err != nil {
			return fmt.Errorf("%w: error file: %w", ErrWrite, err)
		}
	}
	if _, err := io.WriteString(normal, line); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
