// xlog.go 定义 Logger 依赖的写入接口
package xlog

// LogWriter 日志写入接口
//
// [Writer] 是标准实现。Logger 只依赖此接口，便于替换或在测试中记录调用。
type LogWriter interface {
	// WriteToFile 将一行日志交给文件写入，不得阻塞在磁盘 I/O 上
	WriteToFile(level Level, text string)

	// WriteToConsole 将一行日志同步输出到控制台
	WriteToConsole(level Level, text string)
}
