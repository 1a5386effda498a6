package xlog

import (
	"io"
	"os"
	"sync"
)

// Console 控制台输出
//
// 每个方法对应一个控制台流；实现需要并发安全，且不应向调用方抛出错误。
type Console interface {
	Debug(line string)
	Info(line string)
	Warn(line string)
	Error(line string)
	// Print 用于无法识别的级别
	Print(line string)
}

// writerConsole 把各级别映射到 stdout/stderr 的 Console
type writerConsole struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// NewConsole 创建 Console：Debug/Info/Print 写 stdout，Warn/Error 写 stderr
//
// nil 参数分别回落到 os.Stdout、os.Stderr。
func NewConsole(stdout, stderr io.Writer) Console {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &writerConsole{stdout: stdout, stderr: stderr}
}

// StdConsole 返回写入进程 stdout/stderr 的 Console
func StdConsole() Console {
	return NewConsole(os.Stdout, os.Stderr)
}

func (c *writerConsole) Debug(line string) { c.write(c.stdout, line) }
func (c *writerConsole) Info(line string)  { c.write(c.stdout, line) }
func (c *writerConsole) Warn(line string)  { c.write(c.stderr, line) }
func (c *writerConsole) Error(line string) { c.write(c.stderr, line) }
func (c *writerConsole) Print(line string) { c.write(c.stdout, line) }

// write 写入错误被忽略：控制台不可写时日志调用方不应受影响
func (c *writerConsole) write(w io.Writer, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(w, line+"\n")
}

// dispatchConsole 按级别选择控制台流
func dispatchConsole(c Console, level Level, line string) {
	switch level {
	case LevelDebug:
		c.Debug(line)
	case LevelInformation:
		c.Info(line)
	case LevelWarning:
		c.Warn(line)
	case LevelError, LevelFatal:
		c.Error(line)
	default:
		c.Print(line)
	}
}
