// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 进程内日志，按级别过滤，按天写入普通日志与错误日志文件
//   - xrotate: 日志文件句柄，基于 lumberjack 的追加写入与大小上限
//
// 设计原则：
//   - 日志调用不阻塞在磁盘 I/O 上，也不向调用方返回错误
//   - 内部错误通过 onError 回调上报，不经由日志自身
//   - 指标遵循 OpenTelemetry 语义规范
package observability
