package core

import (
	"go.uber.org/zap/zapcore"
)

// StructuredCore 实现 zapcore.Core
// 把 zap 条目转换成 LogEvent 交给事件输出（Event Hubs 等），
// 不经过字节编码器。
type StructuredCore struct {
	levelEnab   zapcore.LevelEnabler
	eventWriter EventWriteSyncer
}

func NewStructuredCore(levelEnab zapcore.LevelEnabler, eventWriter EventWriteSyncer) zapcore.Core {
	return &StructuredCore{
		levelEnab:   levelEnab,
		eventWriter: eventWriter,
	}
}

func (c *StructuredCore) Enabled(level zapcore.Level) bool {
	return c.levelEnab.Enabled(level)
}

// With 附加字段不进入消息体，消息只包含六个固定字段
func (c *StructuredCore) With([]zapcore.Field) zapcore.Core {
	return c
}

func (c *StructuredCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.levelEnab.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *StructuredCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	return c.eventWriter.WriteEvent(ToLogEvent(ent))
}

func (c *StructuredCore) Sync() error {
	return c.eventWriter.Sync()
}

// ToLogEvent 从 zap 条目构建事件
func ToLogEvent(ent zapcore.Entry) *LogEvent {
	return &LogEvent{
		Timestamp: ent.Time,
		Level:     ent.Level.CapitalString(),
		Message:   ent.Message,
	}
}
