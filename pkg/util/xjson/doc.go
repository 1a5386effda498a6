// Package xjson 将日志参数中的复合值渲染为缩进 JSON 文本块。
//
//   - [PrettyE]: 序列化为两空格缩进的 JSON，返回 (string, error)。
//     失败（包括 MarshalJSON 内部 panic）时返回空字符串和 [ErrMarshal] 包装的错误。
//
// 与 [encoding/json] 默认行为不同，这里不转义 HTML 字符（<, >, &），
// 输出面向人阅读的日志文件而不是网页。
package xjson
