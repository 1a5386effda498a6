package xconf

import (
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// Options 定义配置加载选项。
type Options struct {
	// Delim 配置键的分隔符，默认为 "."。
	Delim string

	// Tag 结构体标签名，用于 Unmarshal，默认为 "koanf"。
	Tag string

	// Section 日志配置所在的子树路径，为空时读取整个文件。
	Section string

	// Base 基础配置，文件中缺失的字段保留这里的值。
	// FileNameFunc、FormatFunc 等无法写进文件的回调也通过它传入。
	Base xlog.Options

	// Debounce 监视模式下的防抖时间，仅对 Watch 有效。
	Debounce time.Duration
}

// Option 定义配置选项函数类型。
type Option func(*Options)

// defaultOptions 返回默认配置选项。
func defaultOptions() *Options {
	return &Options{
		Delim:    ".",
		Tag:      "koanf",
		Debounce: DefaultDebounce,
	}
}

func applyOptions(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// WithDelim 设置配置键分隔符。
// 默认为 "."，例如 "app.logger"。
func WithDelim(delim string) Option {
	return func(o *Options) {
		o.Delim = delim
	}
}

// WithTag 设置结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		o.Tag = tag
	}
}

// WithSection 指定日志配置所在的子树，例如 "logger" 或 "app.logger"。
func WithSection(section string) Option {
	return func(o *Options) {
		o.Section = section
	}
}

// WithBase 设置基础配置，文件中的字段叠加在其上。
func WithBase(base xlog.Options) Option {
	return func(o *Options) {
		o.Base = base
	}
}

// WithDebounce 设置防抖时间。
// 在指定时间内的多次变更只触发一次重载，非正值使用默认值。
func WithDebounce(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Debounce = d
		}
	}
}
