package xconf

import (
	"fmt"
	"strings"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// fileConfig 配置文件中的日志配置。
//
// 字段名沿用配置文件的 camelCase 键名；缺失或为空的字段不覆盖基础配置。
type fileConfig struct {
	InstanceID        string `koanf:"instanceId"`
	LogFileExtension  string `koanf:"logFileExtension"`
	LogsDirectory     string `koanf:"logsDirectory"`
	MinimumLogLevel   string `koanf:"minimumLogLevel"`
	EnableConsoleLogs *bool  `koanf:"enableConsoleLogs"`
}

// merge 将文件中出现的字段叠加到 base 上。
func (fc fileConfig) merge(base xlog.Options) (xlog.Options, error) {
	out := base
	if v := strings.TrimSpace(fc.InstanceID); v != "" {
		out.InstanceID = v
	}
	if v := strings.TrimSpace(fc.LogFileExtension); v != "" {
		out.LogFileExtension = v
	}
	if v := strings.TrimSpace(fc.LogsDirectory); v != "" {
		out.LogsDirectory = v
	}
	if v := strings.TrimSpace(fc.MinimumLogLevel); v != "" {
		level, err := xlog.ParseLevel(v)
		if err != nil {
			return xlog.Options{}, fmt.Errorf("xconf: minimumLogLevel: %w", err)
		}
		out.MinimumLevel = xlog.Ptr(level)
	}
	if fc.EnableConsoleLogs != nil {
		out.EnableConsole = xlog.Ptr(*fc.EnableConsoleLogs)
	}
	return out, nil
}
