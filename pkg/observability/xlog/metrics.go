package xlog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	metricNameEnqueued    = "xlog.records.enqueued"
	metricNameWritten     = "xlog.records.written"
	metricNameDropped     = "xlog.records.dropped"
	metricNameDrainErrors = "xlog.drain.errors"
	metricNameRotations   = "xlog.rotations"
)

// writerMetrics Writer 的 OpenTelemetry 指标
//
// nil 接收者上的方法都是空操作，未配置 MeterProvider 时不收集指标。
type writerMetrics struct {
	enqueued    metric.Int64Counter
	written     metric.Int64Counter
	dropped     metric.Int64Counter
	drainErrors metric.Int64Counter
	rotations   metric.Int64Counter
}

// newWriterMetrics provider 为 nil 时返回 nil
func newWriterMetrics(provider metric.MeterProvider) (*writerMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter("xlog", metric.WithInstrumentationVersion("1.0.0"))
	m := &writerMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.enqueued, metricNameEnqueued, "进入待写队列的日志数", "{record}"},
		{&m.written, metricNameWritten, "成功写入日志文件的日志数", "{record}"},
		{&m.dropped, metricNameDropped, "写入失败或关闭后到达而被丢弃的日志数", "{record}"},
		{&m.drainErrors, metricNameDrainErrors, "因 I/O 错误中断的落盘次数", "{error}"},
		{&m.rotations, metricNameRotations, "日志文件按天切换次数", "{rotation}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *writerMetrics) recordEnqueued(level Level) {
	if m == nil {
		return
	}
	m.enqueued.Add(context.Background(), 1, levelAttr(level))
}

func (m *writerMetrics) recordWritten(level Level) {
	if m == nil {
		return
	}
	m.written.Add(context.Background(), 1, levelAttr(level))
}

func (m *writerMetrics) recordDropped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(context.Background(), int64(n),
		metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *writerMetrics) recordDrainError(stage string) {
	if m == nil {
		return
	}
	m.drainErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *writerMetrics) recordRotation() {
	if m == nil {
		return
	}
	m.rotations.Add(context.Background(), 1)
}

func levelAttr(level Level) metric.AddOption {
	return metric.WithAttributes(attribute.String("level", level.String()))
}
