package xlog

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// 默认配置值
const (
	DefaultLogFileExtension = "log"
	DefaultLogsDirectory    = "logs"
	DefaultMinimumLevel     = LevelDebug
	DefaultEnableConsole    = true
)

// FileNameFunc 生成不含扩展名的日志文件名
//
// day 为触发轮转时的时间。返回空字符串时使用内置格式。
type FileNameFunc func(day time.Time, cfg *Config) string

// FormatFunc 生成完整的日志行
//
// 返回空字符串时使用内置格式。
type FormatFunc func(t time.Time, level, context string, params ...any) string

// Config 生效中的日志配置快照
//
// 由 [Store] 持有，整体替换，读取方不得修改。
type Config struct {
	// InstanceID 非空时作为 ".<id>" 后缀加到日志文件名
	InstanceID string
	// LogFileExtension 日志文件扩展名，不含前导点
	LogFileExtension string
	// LogsDirectory 日志目录，始终为绝对路径
	LogsDirectory string
	// MinimumLevel 低于此级别的日志被丢弃
	MinimumLevel Level
	// EnableConsole 是否同时输出到控制台
	EnableConsole bool
	// FileNameFunc 可选的文件名格式化回调
	FileNameFunc FileNameFunc
	// FormatFunc 可选的日志行格式化回调
	FormatFunc FormatFunc
}

// Options 局部配置，零值字段使用默认值
//
// 字符串字段在 TrimSpace 后为空即视为未设置；指针字段为 nil 视为未设置；
// 无效的 MinimumLevel 同样回落到默认值。
type Options struct {
	InstanceID       string
	LogFileExtension string
	LogsDirectory    string
	MinimumLevel     *Level
	EnableConsole    *bool
	FileNameFunc     FileNameFunc
	FormatFunc       FormatFunc
}

// Ptr 返回 v 的指针，便于填写 Options 的可选字段
func Ptr[T any](v T) *T {
	return &v
}

var defaultConfig = sync.OnceValue(func() Config {
	return Config{
		LogFileExtension: DefaultLogFileExtension,
		LogsDirectory:    xfile.Abs(DefaultLogsDirectory),
		MinimumLevel:     DefaultMinimumLevel,
		EnableConsole:    DefaultEnableConsole,
	}
})

// DefaultConfig 返回内置默认配置
//
// LogsDirectory 为首次调用时工作目录下的 "logs" 的绝对路径。
func DefaultConfig() Config {
	return defaultConfig()
}

// Resolve 将 opts 逐字段合并到默认配置上
func Resolve(opts Options) Config {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(opts.InstanceID); v != "" {
		cfg.InstanceID = v
	}
	if v := strings.TrimLeft(strings.TrimSpace(opts.LogFileExtension), "."); v != "" {
		cfg.LogFileExtension = v
	}
	if v := strings.TrimSpace(opts.LogsDirectory); v != "" {
		cfg.LogsDirectory = xfile.Abs(v)
	}
	if opts.MinimumLevel != nil && opts.MinimumLevel.IsValid() {
		cfg.MinimumLevel = *opts.MinimumLevel
	}
	if opts.EnableConsole != nil {
		cfg.EnableConsole = *opts.EnableConsole
	}
	cfg.FileNameFunc = opts.FileNameFunc
	cfg.FormatFunc = opts.FormatFunc
	return cfg
}

// Store 进程内日志配置
//
// 读取无锁；Set 以新快照整体替换旧快照，读取方要么看到旧值要么看到新值。
type Store struct {
	cur atomic.Pointer[Config]
}

// NewStore 创建使用默认配置的 Store
func NewStore() *Store {
	return NewStoreWith(Options{})
}

// NewStoreWith 创建以 opts 初始化的 Store
func NewStoreWith(opts Options) *Store {
	s := &Store{}
	s.Set(opts)
	return s
}

// Set 用 opts 合并默认值后的结果替换当前配置
func (s *Store) Set(opts Options) {
	cfg := Resolve(opts)
	s.cur.Store(&cfg)
}

// Get 返回当前配置快照
func (s *Store) Get() *Config {
	return s.cur.Load()
}
