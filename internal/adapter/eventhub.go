package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iuboy/hublog/config"
	"github.com/iuboy/hublog/core"
	"github.com/iuboy/hublog/sink"
	"go.uber.org/zap/zapcore"
)

const (
	stateReady int32 = iota
	stateDegraded
	stateClosed
)

// eventHubAdapter 把每个日志事件格式化为 JSON 并同步发送到 Event Hubs。
//
// 建立 sink 失败时进入降级状态：只上报一次配置失败，之后的 Append 都是空操作。
// 发送失败只上报，不重试、不缓存，错误不会返回给日志框架。
// 调用方需要低延迟时应在外层加异步分发，这里保持同步语义。
type eventHubAdapter struct {
	name      string
	formatter *core.Formatter
	sink      sink.Sink
	timeout   time.Duration
	deps      Deps
	state     atomic.Int32
}

var (
	_ core.Appender         = (*eventHubAdapter)(nil)
	_ core.EventWriteSyncer = (*eventHubAdapter)(nil)
	_ core.WriteSyncer      = (*eventHubAdapter)(nil)
)

func newEventHubAdapter(name string, cfg config.EventHubConfig, deps Deps) *eventHubAdapter {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = config.DefaultSendTimeout
	}

	a := &eventHubAdapter{
		name: name,
		formatter: core.NewFormatter(core.Identity{
			Trigram:     cfg.Identity.Trigram,
			Application: cfg.Identity.Application,
			Layer:       cfg.Identity.Layer,
		}, cfg.Location()),
		timeout: timeout,
		deps:    deps,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := openSink(ctx, deps.OpenSink, cfg)
	if err != nil {
		a.state.Store(stateDegraded)
		deps.Metrics.Degraded(name, true)
		deps.Reporter.Report(core.NewFailure(core.ConfigurationFailure, name, err))
		return a
	}

	a.sink = s
	deps.Metrics.Degraded(name, false)
	return a
}

func openSink(ctx context.Context, open sink.Opener, cfg config.EventHubConfig) (s sink.Sink, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("open sink panic: %v", r)
		}
	}()
	return open(ctx, cfg)
}

// Degraded 表示 sink 未能建立
func (a *eventHubAdapter) Degraded() bool {
	return a.state.Load() == stateDegraded
}

// Append 格式化并同步发送一个事件，调用期间阻塞当前 goroutine
func (a *eventHubAdapter) Append(ev *core.LogEvent) {
	if a.state.Load() != stateReady {
		a.deps.Metrics.Dropped(a.name)
		return
	}

	payload, err := a.formatter.Format(ev)
	if err != nil {
		a.deps.Reporter.Report(core.NewFailure(core.SerializationFailure, a.name, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	start := time.Now()
	err = a.send(ctx, payload)
	took := time.Since(start)
	if err != nil {
		a.deps.Metrics.SendFailed(a.name, took)
		f := core.NewFailure(core.DeliveryFailure, a.name, err)
		f.Payload = payload
		a.deps.Reporter.Report(f)
		return
	}
	a.deps.Metrics.Sent(a.name, took)
}

func (a *eventHubAdapter) send(ctx context.Context, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return a.sink.Send(ctx, payload)
}

// WriteEvent 是 StructuredCore 的事件路径，始终返回 nil
func (a *eventHubAdapter) WriteEvent(ev *core.LogEvent) error {
	a.Append(ev)
	return nil
}

// Write 把原始字节（如重定向的标准库日志）作为一条 INFO 消息发送
func (a *eventHubAdapter) Write(p []byte) (int, error) {
	a.Append(&core.LogEvent{
		Timestamp: time.Now(),
		Level:     zapcore.InfoLevel.CapitalString(),
		Message:   strings.TrimRight(string(p), "\r\n"),
	})
	return len(p), nil
}

// Sync 发送是同步的，没有需要刷新的缓冲
func (a *eventHubAdapter) Sync() error { return nil }

func (a *eventHubAdapter) Close() error {
	if a.state.Swap(stateClosed) == stateClosed || a.sink == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.sink.Close(ctx); err != nil {
		return fmt.Errorf("close eventhub sink %s: %w", a.name, err)
	}
	return nil
}
