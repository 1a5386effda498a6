package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// Load 从文件读取日志配置。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func Load(path string, opts ...Option) (xlog.Options, error) {
	if path == "" {
		return xlog.Options{}, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return xlog.Options{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return xlog.Options{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format, opts...)
}

// LoadBytes 从字节数据读取日志配置。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
//
// 空数据得到基础配置（默认为零值 Options，即全部使用 xlog 的默认值）。
func LoadBytes(data []byte, format Format, opts ...Option) (xlog.Options, error) {
	if !isValidFormat(format) {
		return xlog.Options{}, ErrUnsupportedFormat
	}

	options := applyOptions(opts)
	k := koanf.New(options.Delim)
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return xlog.Options{}, err
		}
	}
	return decode(k, options)
}

// Apply 读取配置文件并整体替换 store 中的配置。
// 读取失败时 store 保持不变。
func Apply(store *xlog.Store, path string, opts ...Option) error {
	if store == nil {
		return ErrNilStore
	}
	loaded, err := Load(path, opts...)
	if err != nil {
		return err
	}
	store.Set(loaded)
	return nil
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// decode 将 koanf 中的日志配置转换为 xlog.Options。
func decode(k *koanf.Koanf, options *Options) (xlog.Options, error) {
	var fc fileConfig
	if err := k.UnmarshalWithConf(options.Section, &fc, koanf.UnmarshalConf{
		Tag: options.Tag,
	}); err != nil {
		return xlog.Options{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return fc.merge(options.Base)
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadData 加载数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
