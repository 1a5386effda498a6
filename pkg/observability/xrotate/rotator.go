package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志文件句柄
//
// 实现 [io.WriteCloser]，所有方法并发安全。
// Close 之后 Write 返回 [ErrClosed]，重复 Close 也返回 [ErrClosed]。
type Rotator interface {
	// Write 追加写入，超过大小上限时自动切出备份文件
	Write(p []byte) (n int, err error)

	// Close 关闭文件
	Close() error
}
