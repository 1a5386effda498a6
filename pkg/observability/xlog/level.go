package xlog

import (
	"fmt"
	"strings"
)

// Level 日志级别，按严重程度递增排序
type Level int

const (
	LevelDebug Level = iota
	LevelInformation
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug:       "Debug",
	LevelInformation: "Information",
	LevelWarning:     "Warning",
	LevelError:       "Error",
	LevelFatal:       "Fatal",
}

// String 返回级别名称，未知级别返回空字符串
func (l Level) String() string {
	if !l.IsValid() {
		return ""
	}
	return levelNames[l]
}

// LevelName 等价于 level.String()
func LevelName(level Level) string {
	return level.String()
}

// IsValid 报告 l 是否为已定义的级别
func (l Level) IsValid() bool {
	return l >= LevelDebug && l <= LevelFatal
}

// IsErrorClass 报告 l 是否需要同时写入错误日志文件（Error、Fatal）
func (l Level) IsErrorClass() bool {
	return l == LevelError || l == LevelFatal
}

// MarshalText 实现 encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名称（大小写不敏感，自动 TrimSpace）
//
// 支持 debug、info/information、warn/warning、error、fatal。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "information":
		return LevelInformation, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelDebug, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}
