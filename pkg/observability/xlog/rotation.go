package xlog

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

const (
	// dayKeyLayout 判断是否需要切换文件的日期键
	dayKeyLayout = "02-01-2006"
	// fileDayLayout 默认文件名中的日期部分
	fileDayLayout = "02-Jan-2006"
	// errorFileSegment 错误日志文件在扩展名前插入的段
	errorFileSegment = ".error"
)

// rotation 当前打开的日志文件
//
// normal 与 failure 要么都为 nil，要么都已打开且属于同一个 dayKey。
type rotation struct {
	dayKey  string
	normal  io.WriteCloser
	failure io.WriteCloser
}

// DefaultFileStem 内置的日志文件名（不含扩展名）："02-Jan-2006" 加可选的 ".<instanceId>"
func DefaultFileStem(day time.Time, cfg *Config) string {
	stem := day.Format(fileDayLayout)
	if cfg != nil && cfg.InstanceID != "" {
		stem += "." + cfg.InstanceID
	}
	return stem
}

// LogFilePaths 返回 day 当天的普通日志与错误日志路径
//
// 优先使用 cfg.FileNameFunc；其返回空字符串或 panic 时使用 [DefaultFileStem]。
// 文件名经 [xfile.SafeJoin] 拼接，不会落到日志目录之外。
func LogFilePaths(day time.Time, cfg *Config) (normal, failure string, err error) {
	stem := fileStem(day, cfg)
	normal, err = xfile.SafeJoin(cfg.LogsDirectory, stem+"."+cfg.LogFileExtension)
	if err != nil {
		return "", "", err
	}
	failure, err = xfile.SafeJoin(cfg.LogsDirectory, stem+errorFileSegment+"."+cfg.LogFileExtension)
	if err != nil {
		return "", "", err
	}
	return normal, failure, nil
}

func fileStem(day time.Time, cfg *Config) (stem string) {
	if cfg.FileNameFunc != nil {
		stem = callFileNameFunc(cfg.FileNameFunc, day, cfg)
	}
	if stem == "" {
		stem = DefaultFileStem(day, cfg)
	}
	return stem
}

func callFileNameFunc(fn FileNameFunc, day time.Time, cfg *Config) (stem string) {
	defer func() {
		if recover() != nil {
			stem = ""
		}
	}()
	return fn(day, cfg)
}

// ensureFileHandles 返回当天的文件句柄，日期变化时切换文件
//
// 新文件全部打开成功后才关闭旧文件并替换状态；任一步失败时保留原状态，
// 下一次 drain 会重新尝试。
func (w *Writer) ensureFileHandles() (normal, failure io.Writer, err error) {
	now := w.now()
	key := now.Format(dayKeyLayout)
	if w.rot.normal != nil && w.rot.dayKey == key {
		return w.rot.normal, w.rot.failure, nil
	}

	cfg := w.store.Get()
	normalPath, failurePath, err := LogFilePaths(now, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRotate, err)
	}
	if err := xfile.MkdirAll(cfg.LogsDirectory); err != nil {
		return nil, nil, fmt.Errorf("%w: create directory %s: %w", ErrRotate, cfg.LogsDirectory, err)
	}

	newNormal, err := w.open(normalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %w", ErrRotate, normalPath, err)
	}
	newFailure, err := w.open(failurePath)
	if err != nil {
		_ = newNormal.Close()
		return nil, nil, fmt.Errorf("%w: open %s: %w", ErrRotate, failurePath, err)
	}

	if err := w.closeHandles(); err != nil {
		// 旧文件关闭失败不影响切换
		w.reporter.report(err)
	}
	w.rot = rotation{dayKey: key, normal: newNormal, failure: newFailure}
	w.metrics.recordRotation()
	return newNormal, newFailure, nil
}

// closeHandles 关闭当前句柄并清空状态
func (w *Writer) closeHandles() error {
	var errs []error
	if w.rot.normal != nil {
		if err := w.rot.normal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xlog: close log file: %w", err))
		}
	}
	if w.rot.failure != nil {
		if err := w.rot.failure.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xlog: close error log file: %w", err))
		}
	}
	w.rot = rotation{}
	return errors.Join(errs...)
}
