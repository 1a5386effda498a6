// Package xlog 进程内日志：按级别过滤、格式化为文本行，输出到控制台和按天命名的日志文件。
//
// # 组成
//
//   - [Level]：Debug < Information < Warning < Error < Fatal
//   - [Store]：进程内配置快照，Set 整体替换，读取无锁
//   - [Writer]：内存队列 + 单个后台 worker 落盘，每天切换一次文件
//   - [Logger]：带上下文名称的门面，过滤、格式化后交给 Writer
//
// # 文件布局
//
//	<LogsDirectory>/<stem>.<ext>        所有级别
//	<LogsDirectory>/<stem>.error.<ext>  仅 Error 与 Fatal
//
// stem 默认为 "02-Jan-2006"，配置了 InstanceID 时追加 ".<InstanceID>"；
// 可通过 [Config.FileNameFunc] 自定义。文件以追加模式打开，进程重启不会截断当天日志。
// 切换是惰性的：跨过午夜后第一次落盘时才关闭旧文件、打开新文件。
//
// # 写入语义
//
// [Writer.WriteToFile] 只入队，从不等待磁盘。同一 Writer 上的记录按入队顺序写入；
// 错误级别记录先写错误文件，再写普通文件。写入失败时当前记录被丢弃，
// 其余记录留待下次落盘；错误只通过 [WithOnError] 回调上报。
//
// 进程退出前调用 [Writer.Close]（或默认实例的 [Shutdown]），否则队列中的日志可能丢失。
//
// # 使用
//
//	store := xlog.NewStoreWith(xlog.Options{
//		LogsDirectory: "/var/log/orders",
//		InstanceID:    "node1",
//		MinimumLevel:  xlog.Ptr(xlog.LevelInformation),
//	})
//	w, err := xlog.NewWriter(store)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//
//	log := xlog.NewLogger("order_service.go", w, store)
//	log.Information("order created", orderID)
//	log.Error("charge failed", err, order)
//
// 简单场景可直接使用默认实例：[Configure]、[For]、[Shutdown]。
package xlog
