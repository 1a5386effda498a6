// Package xfile 提供日志文件落盘时用到的路径与目录工具。
//
// # 路径函数
//
//   - [SanitizePath]: 规范化单个文件路径，拒绝空路径、空字节、".." 路径段和目录路径
//   - [SafeJoin]: 将文件名拼接到日志目录下，保证结果不会逃出该目录
//   - [Abs]: 将相对路径转换为基于当前工作目录的绝对路径
//
// 文件名可能来自用户提供的格式化回调，因此拼接时统一走 SafeJoin，
// 回调返回 "../x" 之类的值会被拒绝而不是写到日志目录之外。
//
// # 目录函数
//
//   - [EnsureDir]: 确保文件的父目录存在（默认权限 0750）
//   - [EnsureDirWithPerm]: 同上，指定权限
//   - [MkdirAll]: 确保目录本身存在
//
// 目录创建是幂等的，已存在时不报错，也不修改已有目录的权限。
package xfile
