package xlog

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xlogkit/pkg/util/xjson"
)

// lineTimeLayout 内置日志行的时间格式，时区另行追加
const lineTimeLayout = "02-Jan-2006 03:04:05 PM"

type undefinedValue struct{}

// Undefined 作为日志参数时渲染为 "undefined"，用于标记"有意缺失"的值，与 nil（"null"）区分
var Undefined = undefinedValue{}

// FormatLine 内置日志行格式：
//
//	02-Jan-2006 03:04:05 PM (MST) [Level] [context] p1 p2 ...
//
// 标量参数之间以空格分隔；结构体、map、切片等复合值渲染为独立成行的缩进 JSON。
// 无法渲染的参数被跳过。结果去除首尾空白。
func FormatLine(t time.Time, level, context string, params ...any) string {
	return formatLine(t, level, context, params, nil)
}

func formatLine(t time.Time, level, context string, params []any, onError func(error)) string {
	var sb strings.Builder
	sb.WriteString(t.Format(lineTimeLayout))
	sb.WriteString(" (")
	sb.WriteString(t.Format("MST"))
	sb.WriteString(") [")
	sb.WriteString(level)
	sb.WriteString("] [")
	sb.WriteString(context)
	sb.WriteString("] ")

	for i, p := range params {
		text, block, err := renderParam(p)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("%w #%d (%T): %w", ErrRender, i, p, err))
			}
			continue
		}
		if block {
			sb.WriteByte('\n')
			sb.WriteString(text)
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(text)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String())
}

// renderParam 将单个参数渲染为文本；block 为 true 时表示多行 JSON 块
func renderParam(p any) (text string, block bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, block, err = "", false, fmt.Errorf("panic: %v", r)
		}
	}()

	switch v := p.(type) {
	case nil:
		return "null", false, nil
	case undefinedValue:
		return "undefined", false, nil
	case string:
		return v, false, nil
	case []byte:
		return string(v), false, nil
	case bool:
		return strconv.FormatBool(v), false, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return fmt.Sprint(v), false, nil
	}

	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "null", false, nil
		}
	}

	switch v := p.(type) {
	case error:
		return v.Error(), false, nil
	case fmt.Stringer:
		return v.String(), false, nil
	}

	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer:
		s, err := xjson.PrettyE(p)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	default:
		return fmt.Sprint(p), false, nil
	}
}
