package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// WatchCallback 文件变更回调函数
// 每次重载后调用；err 非 nil 时 store 保持原配置，opts 为零值
type WatchCallback func(opts xlog.Options, err error)

// Watcher 日志配置文件监视器
// 配置文件变更时重新读取，并整体替换 Store 中的配置
type Watcher struct {
	path     string
	store    *xlog.Store
	opts     []Option
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	stopped  bool
	timer    *time.Timer // debounce 定时器，Stop() 时需要取消
}

// Watch 读取配置文件写入 store，并创建监视器
//
// 首次读取失败时返回错误，不创建监视器。
// 返回的 Watcher 需要调用 Start()/StartAsync() 开始监视，Stop() 停止监视。
//
// 示例:
//
//	store := xlog.NewStore()
//	w, err := xconf.Watch("/etc/app/logging.yaml", store, func(_ xlog.Options, err error) {
//	    if err != nil {
//	        fmt.Fprintln(os.Stderr, "reload logging config:", err)
//	    }
//	}, xconf.WithSection("logger"))
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(path string, store *xlog.Store, callback WatchCallback, opts ...Option) (*Watcher, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := Apply(store, path, opts...); err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: failed to create watcher: %w", err)
	}

	// 监视配置文件所在目录（而非文件本身）
	// 因为编辑器保存文件时可能先删除再创建，直接监视文件会丢失事件
	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xconf: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     path,
		store:    store,
		opts:     opts,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.Debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监视
// 此方法会阻塞，通常应在 goroutine 中调用
func (w *Watcher) Start() {
	if !w.markRunning() {
		return
	}
	w.run()
}

// StartAsync 异步启动监视
// 先设置 running 标志再启动 goroutine，避免与 Stop() 竞态
func (w *Watcher) StartAsync() {
	if !w.markRunning() {
		return
	}
	go w.run()
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视并释放 fsnotify 资源
// 可重复调用；未启动的 Watcher 同样需要 Stop
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true

	// 停止 debounce 定时器，防止 Stop 后仍触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.running = false
	return w.watcher.Close()
}

// Reload 立即重新读取配置文件
func (w *Watcher) Reload() error {
	loaded, err := Load(w.path, w.opts...)
	if err == nil {
		w.store.Set(loaded)
	}
	if w.callback != nil {
		w.callback(loaded, err)
	}
	return err
}

// run 运行监视循环
func (w *Watcher) run() {
	filename := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent 处理文件系统事件
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	// 只处理目标配置文件的事件
	if filepath.Base(event.Name) != filename {
		return
	}

	// - Write: 直接修改
	// - Create: 新建文件（部分编辑器）
	// - Rename: 原子写入模式（vim/emacs 写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		_ = w.Reload()
	})
}

// handleError 处理 watcher 错误
func (w *Watcher) handleError(err error) {
	if w.callback != nil {
		w.callback(xlog.Options{}, fmt.Errorf("xconf: watch error: %w", err))
	}
}
