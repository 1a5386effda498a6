package xlog

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

var (
	// ErrInvalidLevel 无法识别的日志级别
	ErrInvalidLevel = errors.New("xlog: invalid level")

	// ErrNilStore 构造 Writer 时未提供配置
	ErrNilStore = errors.New("xlog: nil config store")

	// ErrClosed Writer 已关闭
	ErrClosed = errors.New("xlog: writer is closed")

	// ErrRotate 打开当天的日志文件失败
	ErrRotate = errors.New("xlog: rotate log files")

	// ErrWrite 写入日志文件失败
	ErrWrite = errors.New("xlog: write log file")

	// ErrRender 单个日志参数渲染失败
	ErrRender = errors.New("xlog: render parameter")
)

// stderrReport 默认的诊断输出：一行写到 stderr
func stderrReport(err error) {
	fmt.Fprintf(os.Stderr, "xlog: %v\n", err)
}

// reporter 把内部错误交给 onError 回调
//
// 日志库不能通过自身记录自己的错误，所以诊断只走回调。
// 回调 panic 会被吞掉；回调内部再次触发错误时不会递归调用。
type reporter struct {
	onError func(error)
	count   atomic.Uint64
	inside  atomic.Bool
}

func newReporter(fn func(error)) *reporter {
	if fn == nil {
		fn = stderrReport
	}
	return &reporter{onError: fn}
}

func (r *reporter) report(err error) {
	if err == nil {
		return
	}
	r.count.Add(1)
	if !r.inside.CompareAndSwap(false, true) {
		return
	}
	defer r.inside.Store(false)
	r.safeCall(err)
}

func (r *reporter) safeCall(err error) {
	defer func() {
		if recover() != nil {
			r.count.Add(1)
		}
	}()
	r.onError(err)
}

// total 返回累计上报的内部错误数
func (r *reporter) total() uint64 {
	return r.count.Load()
}
