package xjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMarshal 表示值无法序列化为 JSON。
var ErrMarshal = errors.New("xjson: marshal failed")

// indent 日志中复合值的缩进
const indent = "  "

// PrettyE 将 v 序列化为缩进 JSON，结果不带尾部换行。
func PrettyE(v any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("%w: panic: %v", ErrMarshal, r)
		}
	}()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
