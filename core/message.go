package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout 对应 yyyy-MM-ddTHH:mm:ss.SSSSSSS，末尾的 Z 是字面字符
const DateLayout = "2006-01-02T15:04:05.0000000"

// ErrInvalidInput 表示传入格式化器的事件为空
var ErrInvalidInput = errors.New("invalid input")

// Identity 是附加到每条消息上的静态应用身份
type Identity struct {
	Trigram     string
	Application string
	Layer       string
}

// LogMessage 是发送到 Event Hubs 的消息体，字段顺序即 JSON 输出顺序
type LogMessage struct {
	Trigram     string `json:"trigram"`
	Application string `json:"application"`
	Layer       string `json:"layer"`
	Level       string `json:"level"`
	Date        string `json:"date"`
	Message     string `json:"message"`
}

// Formatter 把日志事件和应用身份转换为 JSON 消息
type Formatter struct {
	Identity Identity
	// Location 为 nil 时使用进程本地时区
	Location *time.Location
}

// NewFormatter 创建格式化器
func NewFormatter(id Identity, loc *time.Location) *Formatter {
	return &Formatter{Identity: id, Location: loc}
}

// Message 构建消息，不做序列化
func (f *Formatter) Message(ev *LogEvent) (LogMessage, error) {
	if ev == nil {
		return LogMessage{}, fmt.Errorf("%w: %w: nil event", ErrSerialization, ErrInvalidInput)
	}
	return LogMessage{
		Trigram:     f.Identity.Trigram,
		Application: f.Identity.Application,
		Layer:       f.Identity.Layer,
		Level:       ev.Level,
		Date:        FormatDate(ev.Timestamp, f.Location),
		Message:     ev.Message,
	}, nil
}

// Format 返回 UTF-8 编码的 JSON 消息
func (f *Formatter) Format(ev *LogEvent) ([]byte, error) {
	msg, err := f.Message(ev)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return b, nil
}

// FormatDate 按毫秒精度把时间转换到 loc 后格式化，并追加字面 Z。
//
// Z 不代表 UTC：本地时间直接带上 Z 后缀，下游消费者依赖这一输出，不要改成 UTC 转换。
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(t.UnixMilli()).In(loc).Format(DateLayout) + "Z"
}
