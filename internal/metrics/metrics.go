// Package metrics 提供投递相关的 Prometheus 指标
package metrics

import (
	"errors"
	"time"

	"github.com/iuboy/hublog/core"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

const namespace = "hublog"

// Metrics 同时实现 core.FailureReporter，按类型统计失败
type Metrics struct {
	sent         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	sampled      *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
	degraded     *prometheus.GaugeVec
}

// New 在 reg 上注册指标；reg 为 nil 时不注册（测试用）。
// 已注册过的同名指标会被复用，重复 Init 不会 panic。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages acknowledged by the sink.",
		}, []string{"output"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failures reported on the local failure channel.",
		}, []string{"output", "kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Events dropped because the output is degraded or closed.",
		}, []string{"output"}),
		sampled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_sampled_total",
			Help:      "Entries dropped by the sampler.",
		}, []string{"level"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Duration of synchronous sends, successful or not.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"output"}),
		degraded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_degraded",
			Help:      "1 when the output could not establish its sink.",
		}, []string{"output"}),
	}
	if reg == nil {
		return m
	}

	m.sent = register(reg, m.sent)
	m.failures = register(reg, m.failures)
	m.dropped = register(reg, m.dropped)
	m.sampled = register(reg, m.sampled)
	m.sendDuration = register(reg, m.sendDuration)
	m.degraded = register(reg, m.degraded)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) Sent(output string, took time.Duration) {
	m.sent.WithLabelValues(output).Inc()
	m.sendDuration.WithLabelValues(output).Observe(took.Seconds())
}

// SendFailed 只记录耗时，失败计数由 Report 负责
func (m *Metrics) SendFailed(output string, took time.Duration) {
	m.sendDuration.WithLabelValues(output).Observe(took.Seconds())
}

func (m *Metrics) Dropped(output string) {
	m.dropped.WithLabelValues(output).Inc()
}

func (m *Metrics) Degraded(output string, degraded bool) {
	v := 0.0
	if degraded {
		v = 1
	}
	m.degraded.WithLabelValues(output).Set(v)
}

func (m *Metrics) Sampled(level zapcore.Level) {
	m.sampled.WithLabelValues(level.String()).Inc()
}

// Report 实现 core.FailureReporter
func (m *Metrics) Report(f core.Failure) {
	m.failures.WithLabelValues(f.Output, string(f.Kind)).Inc()
}

// SentCounter 返回某个输出的发送计数器
func (m *Metrics) SentCounter(output string) prometheus.Counter {
	return m.sent.WithLabelValues(output)
}

func (m *Metrics) DroppedCounter(output string) prometheus.Counter {
	return m.dropped.WithLabelValues(output)
}

func (m *Metrics) FailureCounter(output string, kind core.FailureKind) prometheus.Counter {
	return m.failures.WithLabelValues(output, string(kind))
}
