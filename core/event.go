package core

import "time"

// LogEvent 是从 zap 日志条目中提取出的事件
type LogEvent struct {
	Timestamp time.Time `json:"time"`
	Level     string    `json:"level"` // 大写级别，如 INFO、ERROR
	Message   string    `json:"msg"`   // 已完成占位符替换的消息
}

// Appender 接收框架分发的每一个日志事件
//
// Append 不返回错误，失败只能通过 FailureReporter 观察到。
type Appender interface {
	Append(event *LogEvent)
}

type EventWriteSyncer interface {
	WriteEvent(event *LogEvent) error
	Sync() error
	Close() error
}

type WriteSyncer interface {
	Sync() error
	Close() error
	Write(p []byte) (n int, err error)
}
