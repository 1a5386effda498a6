package xrotate

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

const (
	// DefaultMaxSizeMB 默认单个日志文件大小上限（MB）
	DefaultMaxSizeMB = 500
	// DefaultLocalTime 备份文件名默认使用本地时间，与按本地日期命名的日志文件一致
	DefaultLocalTime = true

	// maxSizeMB 单个日志文件大小上限的上界（10 GB）
	maxSizeMB = 10240
)

type config struct {
	maxSizeMB int
	localTime bool
	// fileMode 为 0 时保留 lumberjack 默认的 0600
	fileMode os.FileMode
	// onError 接收权限调整等内部错误；不得向同一个 Rotator 写入
	onError func(error)
}

// Option 配置选项
type Option func(*config)

// WithMaxSize 设置单个文件大小上限（MB），范围 1~10240
func WithMaxSize(mb int) Option {
	return func(c *config) {
		c.maxSizeMB = mb
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间
func WithLocalTime(local bool) Option {
	return func(c *config) {
		c.localTime = local
	}
}

// WithFileMode 设置日志文件权限（仅权限位）
//
// 通过打开后 chmod 实现，存在短暂窗口文件为 0600。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.fileMode = mode
	}
}

// WithOnError 设置内部错误回调
//
// Rotator 本身就是日志的输出目标，内部错误不能再写日志，只能交给回调。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

type lumberjackRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)
	mu       sync.Mutex // 保护 ensureFileMode 的 Stat+Chmod

	closed atomic.Bool

	// 累计写入超过 maxSizeBytes 时 lumberjack 可能已切出新文件，需要重新检查权限
	modeApplied  atomic.Bool
	maxSizeBytes int64
	bytesWritten atomic.Int64

	// 测试注入点，nil 时使用 os 标准库
	statFn  func(string) (os.FileInfo, error)
	chmodFn func(string, os.FileMode) error
}

// Open 以追加模式打开日志文件并返回 Rotator。
//
// 会规范化路径、创建父目录（0750），并立即打开文件。
//
// 每次 Open 都会启动 lumberjack 的 millRun goroutine，Close 不会停止它（上游限制），
// 因此每打开一个文件常驻一个 goroutine 直到进程退出。
func Open(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := config{
		maxSizeMB: DefaultMaxSizeMB,
		localTime: DefaultLocalTime,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	r := &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:  safePath,
			MaxSize:   cfg.maxSizeMB,
			LocalTime: cfg.localTime,
		},
		path:         safePath,
		fileMode:     cfg.fileMode,
		onError:      cfg.onError,
		maxSizeBytes: int64(cfg.maxSizeMB) * 1024 * 1024,
	}

	// 零长度写入让 lumberjack 立即打开（或创建）文件，打开失败在这里暴露
	if _, err := r.logger.Write(nil); err != nil {
		_ = r.logger.Close()
		return nil, fmt.Errorf("xrotate: open %s: %w", safePath, err)
	}
	if r.fileMode != 0 {
		r.reportError(r.ensureFileMode())
	}
	return r, nil
}

func validate(cfg *config) error {
	if cfg.maxSizeMB <= 0 || cfg.maxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.maxSizeMB, maxSizeMB)
	}
	if cfg.fileMode != 0 && cfg.fileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.fileMode)
	}
	return nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (n int, err error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err = r.logger.Write(p)
	if err != nil {
		// Write 与 Close 并发时，调用方应看到 ErrClosed 而不是底层 I/O 错误
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}

	if r.fileMode != 0 {
		needCheck := !r.modeApplied.Load()
		if !needCheck && r.bytesWritten.Add(int64(n)) >= r.maxSizeBytes {
			needCheck = true
		}
		if needCheck {
			r.reportError(r.ensureFileMode())
		}
	}
	return n, nil
}

// ensureFileMode 检查并调整当前文件权限
func (r *lumberjackRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat := r.statFn
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Mode().Perm() != r.fileMode {
		chmod := r.chmodFn
		if chmod == nil {
			chmod = os.Chmod
		}
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}

	r.modeApplied.Store(true)
	r.bytesWritten.Store(0)
	return nil
}

// reportError 通过回调上报内部错误，回调 panic 被隔离
func (r *lumberjackRotator) reportError(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}

// Close 实现 io.Closer
//
// 首次 Close 失败也不会重置关闭标记，之后的调用统一返回 ErrClosed。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}
