package core

import (
	"sync"
	"time"

	"github.com/iuboy/hublog/config"
	"go.uber.org/zap/zapcore"
)

// DropFunc 在条目被采样丢弃时调用
type DropFunc func(level zapcore.Level)

// windowSampler 每个时间窗口放行前 initial 条，之后每 thereafter 条放行一条。
// ERROR 及以上级别不参与采样。With 派生的 core 共享同一计数。
type windowSampler struct {
	zapcore.Core
	state *samplerState
}

type samplerState struct {
	mu         sync.Mutex
	initial    int64
	thereafter int64
	window     time.Duration
	windowEnd  time.Time
	count      int64
	onDrop     DropFunc
}

// newSampler 创建采样器
func newSampler(core zapcore.Core, cfg config.SamplingConfig, onDrop DropFunc) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	return &windowSampler{
		Core: core,
		state: &samplerState{
			initial:    int64(cfg.Initial),
			thereafter: int64(cfg.Thereafter),
			window:     cfg.Window,
			onDrop:     onDrop,
		},
	}
}

// next 返回当前窗口内的序号，窗口按条目时间滚动
func (s *samplerState) next(t time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.windowEnd) || s.windowEnd.IsZero() {
		s.windowEnd = t.Add(s.window)
		s.count = 0
	}
	s.count++
	return s.count
}

func (s *samplerState) allow(n int64) bool {
	if n <= s.initial {
		return true
	}
	return (n-s.initial)%s.thereafter == 0
}

func (s *windowSampler) With(fields []zapcore.Field) zapcore.Core {
	return &windowSampler{
		Core:  s.Core.With(fields),
		state: s.state,
	}
}

func (s *windowSampler) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !s.Enabled(ent.Level) {
		return ce
	}
	if ent.Level >= zapcore.ErrorLevel {
		return s.Core.Check(ent, ce)
	}
	if s.state.allow(s.state.next(ent.Time)) {
		return s.Core.Check(ent, ce)
	}
	if s.state.onDrop != nil {
		s.state.onDrop(ent.Level)
	}
	return ce
}
