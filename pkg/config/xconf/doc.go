// Package xconf 从 YAML/JSON 文件加载日志配置，基于 koanf 实现。
//
// # 配置文件
//
// 支持的键（均可省略，省略时使用 xlog 的默认值或 WithBase 指定的基础配置）：
//
//	instanceId: node1          # 日志文件名后缀
//	logFileExtension: log      # 扩展名，前导点可有可无
//	logsDirectory: /var/log/app
//	minimumLogLevel: Warning   # debug/info/information/warn/warning/error/fatal
//	enableConsoleLogs: false
//
// 日志配置嵌在更大的应用配置中时，用 WithSection 指定子树：
//
//	opts, err := xconf.Load("/etc/app/config.yaml", xconf.WithSection("logger"))
//
// # 支持的格式
//
//   - YAML（推荐）：.yaml, .yml
//   - JSON：.json
//
// LoadBytes 需要显式指定格式，适用于 K8s ConfigMap 等场景。
//
// # 配置监视
//
// Watch 先读取一次配置写入 xlog.Store，再通过 fsnotify 监视文件所在目录，
// 变更后防抖重载并整体替换 Store 中的配置。新配置立即影响级别过滤与格式化；
// 目录、文件名相关的字段在日志文件下一次按天切换时生效。
//
// 重载失败时 Store 保持原配置，错误交给回调。
// Stop() 之后不再触发重载。在回调中调用 Stop() 是安全的，不会死锁。
package xconf
