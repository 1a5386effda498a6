package xconf

import (
	"errors"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示配置加载失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrInvalidLevel 表示 minimumLogLevel 不是可识别的级别名称。
	// 与 xlog.ErrInvalidLevel 是同一个值。
	ErrInvalidLevel = xlog.ErrInvalidLevel

	// ErrNilStore 表示 Apply/Watch 未提供目标 Store。
	ErrNilStore = errors.New("xconf: nil log config store")
)
