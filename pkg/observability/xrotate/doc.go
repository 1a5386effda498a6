// Package xrotate 提供日志写入使用的追加模式文件句柄。
//
// [Open] 基于 lumberjack v2 创建 [Rotator]：
//
//   - 以追加模式打开，进程重启不会截断同一天的日志
//   - 构造时立即打开文件，目录不可写、权限不足等错误在 Open 时返回，而不是推迟到第一次 Write
//   - 单文件超过 MaxSizeMB 时由 lumberjack 切出备份文件，防止单日日志无限增长
//   - 不清理备份（MaxBackups/MaxAge 均为 0），保留策略不属于本包职责
//
// 按天切换文件由调用方（xlog.Writer）负责：每个自然日关闭旧句柄、Open 新文件名。
//
// # 文件权限
//
// lumberjack 使用 0600 创建文件。需要其他权限（如 0644）时使用 [WithFileMode]。
package xrotate
