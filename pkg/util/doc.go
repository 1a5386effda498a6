// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，目录创建、路径校验与安全拼接
//   - xjson: JSON 序列化工具，缩进格式化输出
//
// 设计原则：
//   - 安全处理路径遍历
//   - 跨平台兼容
package util
