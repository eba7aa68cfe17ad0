// Package sink 定义 Event Hubs 的投递端点，并提供 AMQP 与 Kafka 两种传输实现。
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/iuboy/hublog/config"
)

var (
	ErrClosed         = errors.New("sink closed")
	ErrNoBrokers      = errors.New("no kafka brokers")
	ErrNoEventHub     = errors.New("event hub name is required")
	ErrEntityMismatch = errors.New("event hub name does not match EntityPath")
)

// Sink 是远端接收端点，Send 对每条消息做一次同步发送
//
// 实现必须支持并发调用 Send。
type Sink interface {
	Send(ctx context.Context, payload []byte) error
	Close(ctx context.Context) error
}

// Opener 根据配置建立 Sink
type Opener func(ctx context.Context, cfg config.EventHubConfig) (Sink, error)

// Open 按 cfg.Transport 选择传输方式，默认 AMQP
func Open(ctx context.Context, cfg config.EventHubConfig) (Sink, error) {
	switch cfg.Transport {
	case config.Kafka:
		return OpenKafka(ctx, cfg)
	case config.AMQP, "":
		return OpenAMQP(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

func stringProperties(props map[string]string) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
