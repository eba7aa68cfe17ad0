package sink

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/iuboy/hublog/config"
)

const applicationID = "hublog"

// producerClient 是 azeventhubs.ProducerClient 中用到的部分
type producerClient interface {
	NewEventDataBatch(ctx context.Context, options *azeventhubs.EventDataBatchOptions) (*azeventhubs.EventDataBatch, error)
	SendEventDataBatch(ctx context.Context, batch *azeventhubs.EventDataBatch, options *azeventhubs.SendEventDataBatchOptions) error
	GetEventHubProperties(ctx context.Context, options *azeventhubs.GetEventHubPropertiesOptions) (azeventhubs.EventHubProperties, error)
	Close(ctx context.Context) error
}

var newProducer = func(connStr, eventHub string, options *azeventhubs.ProducerClientOptions) (producerClient, error) {
	return azeventhubs.NewProducerClientFromConnectionString(connStr, eventHub, options)
}

type amqpSink struct {
	producer     producerClient
	batchOptions *azeventhubs.EventDataBatchOptions
	properties   map[string]string
	closed       atomic.Bool
}

// OpenAMQP 使用 Event Hubs 原生 AMQP 协议创建生产者。
// SDK 内部重试被关闭，每条消息只尝试一次。
//
// 生产者是惰性连接的，这里读取一次 Event Hub 属性，命名空间不可达时在 ctx
// 期限内返回错误。
func OpenAMQP(ctx context.Context, cfg config.EventHubConfig) (Sink, error) {
	cs, err := ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	if _, err := cs.EventHub(cfg.Name); err != nil {
		return nil, err
	}

	// 连接串已带 EntityPath 时 SDK 要求 eventHub 参数为空
	eventHub := cfg.Name
	if cs.EntityPath != "" {
		eventHub = ""
	}

	producer, err := newProducer(cfg.ConnectionString, eventHub, &azeventhubs.ProducerClientOptions{
		ApplicationID: applicationID,
		RetryOptions:  azeventhubs.RetryOptions{MaxRetries: -1},
	})
	if err != nil {
		return nil, fmt.Errorf("create eventhub producer: %w", err)
	}

	if _, err := producer.GetEventHubProperties(ctx, nil); err != nil {
		_ = producer.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("connect eventhub: %w", err)
	}
	return newAMQPSink(producer, cfg), nil
}

func newAMQPSink(producer producerClient, cfg config.EventHubConfig) *amqpSink {
	s := &amqpSink{
		producer:   producer,
		properties: cfg.Properties,
	}
	if cfg.PartitionKey != "" {
		key := cfg.PartitionKey
		s.batchOptions = &azeventhubs.EventDataBatchOptions{PartitionKey: &key}
	}
	return s
}

// Send 为每条消息创建单元素批次并同步发送
func (s *amqpSink) Send(ctx context.Context, payload []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}

	batch, err := s.producer.NewEventDataBatch(ctx, s.batchOptions)
	if err != nil {
		return fmt.Errorf("create event batch: %w", err)
	}

	event := &azeventhubs.EventData{
		Body:       payload,
		Properties: stringProperties(s.properties),
	}
	if err := batch.AddEventData(event, nil); err != nil {
		return fmt.Errorf("add event data: %w", err)
	}

	if err := s.producer.SendEventDataBatch(ctx, batch, nil); err != nil {
		return fmt.Errorf("send event batch: %w", err)
	}
	return nil
}

func (s *amqpSink) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.producer.Close(ctx)
}
