package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// isWindowsAbsPath 检测 Windows 风格的绝对路径或驱动器相关路径。
// 非 Windows 平台上 filepath.IsAbs 不识别 "C:\..." 和 "\\server\..."，这里显式拒绝。
func isWindowsAbsPath(path string) bool {
	if len(path) >= 2 && isASCIILetter(path[0]) && path[1] == ':' {
		return true
	}
	return len(path) >= 1 && path[0] == '\\'
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// hasDotDotSegment 检测路径中是否有恰好为 ".." 的路径段。
// "/" 和 "\" 都视为分隔符；"app..2024.log" 这类文件名不会被误判。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对单个日志文件路径做格式检查和规范化。
//
// 拒绝空路径、含空字节的路径、以分隔符结尾的目录路径，以及规范化后仍含 ".." 段的相对路径。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析（"/var/log/../tmp/a.log" -> "/var/tmp/a.log"）。
// 本函数不限制目标目录，需要限制时使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会去掉尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoin 将相对文件名 name 拼接到绝对目录 base 下。
//
// base 必须是绝对路径；name 必须是相对路径，且不能包含 ".." 段。
// 返回的路径保证位于 base 之内。不解析符号链接。
//
//	SafeJoin("/var/log/app", "01-Jan-2026.log")    // "/var/log/app/01-Jan-2026.log"
//	SafeJoin("/var/log/app", "../etc/passwd")      // ErrPathTraversal
//	SafeJoin("/var/log/app", "/etc/passwd")        // ErrInvalidPath
func SafeJoin(base, name string) (string, error) {
	cleanBase, err := validateBase(base)
	if err != nil {
		return "", err
	}
	cleanName, err := validateName(name)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(cleanBase, cleanName)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path (%v): %w", err, ErrPathEscaped)
	}
	if hasDotDotSegment(rel) || rel == "." {
		return "", ErrPathEscaped
	}
	return joined, nil
}

func validateBase(base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) {
		return "", fmt.Errorf("base contains null byte: %w", ErrNullByte)
	}
	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}
	return cleanBase, nil
}

func validateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name is required: %w", ErrEmptyPath)
	}
	if containsNullByte(name) {
		return "", fmt.Errorf("name contains null byte: %w", ErrNullByte)
	}
	if filepath.IsAbs(name) || isWindowsAbsPath(name) {
		return "", fmt.Errorf("name must be relative (absolute path not allowed): %w", ErrInvalidPath)
	}
	cleanName := filepath.Clean(name)
	if hasDotDotSegment(cleanName) {
		return "", fmt.Errorf("path traversal in name: %w", ErrPathTraversal)
	}
	return cleanName, nil
}

// Abs 返回 path 的绝对形式；相对路径基于当前工作目录。
// 获取工作目录失败时原样返回规范化后的 path。
func Abs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
