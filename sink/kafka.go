package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/iuboy/hublog/config"
)

const (
	// Event Hubs 的 Kafka 端点端口
	kafkaPort = "9093"
	// Event Hubs Kafka 端点使用固定用户名，密码为完整连接串
	kafkaSASLUser = "$ConnectionString"
)

type kafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	key      sarama.Encoder
	headers  []sarama.RecordHeader
	closed   atomic.Bool
}

// OpenKafka 通过 Event Hubs 的 Kafka 兼容端点创建同步生产者。
// 生产者建立过程受 ctx 约束。
func OpenKafka(ctx context.Context, cfg config.EventHubConfig) (Sink, error) {
	kc, brokers, topic, err := kafkaConfig(cfg)
	if err != nil {
		return nil, err
	}

	type result struct {
		producer sarama.SyncProducer
		err      error
	}
	done := make(chan result, 1)
	go func() {
		p, err := sarama.NewSyncProducer(brokers, kc)
		done <- result{producer: p, err: err}
	}()

	select {
	case <-ctx.Done():
		// 连接稍后成功时关闭，避免泄漏
		go func() {
			if r := <-done; r.producer != nil {
				_ = r.producer.Close()
			}
		}()
		return nil, fmt.Errorf(
			"connect timeout while connecting to kafka peers %s: %w",
			strings.Join(brokers, ","), ctx.Err(),
		)
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("kafka producer error %w", r.err)
		}
		return newKafkaSink(r.producer, topic, cfg), nil
	}
}

func kafkaConfig(cfg config.EventHubConfig) (*sarama.Config, []string, string, error) {
	kc := sarama.NewConfig()
	kc.ClientID = applicationID
	kc.Version = sarama.V1_0_0_0
	kc.Producer.RequiredAcks = sarama.WaitForAll
	kc.Producer.Compression = sarama.CompressionNone
	kc.Producer.Retry.Max = 0
	kc.Producer.Return.Successes = true
	kc.Producer.Return.Errors = true
	if cfg.SendTimeout > 0 {
		kc.Producer.Timeout = cfg.SendTimeout
		kc.Net.DialTimeout = cfg.SendTimeout
		kc.Net.WriteTimeout = cfg.SendTimeout
		kc.Net.ReadTimeout = cfg.SendTimeout
	}

	var brokers []string
	topic := cfg.Name

	if cfg.ConnectionString != "" {
		cs, err := ParseConnectionString(cfg.ConnectionString)
		if err != nil {
			return nil, nil, "", err
		}
		if topic, err = cs.EventHub(cfg.Name); err != nil {
			return nil, nil, "", err
		}
		brokers = []string{cs.Host + ":" + kafkaPort}

		kc.Net.SASL.Enable = true
		kc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		kc.Net.SASL.User = kafkaSASLUser
		kc.Net.SASL.Password = cfg.ConnectionString
		kc.Net.TLS.Enable = true
		kc.Net.TLS.Config = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cs.Host,
		}
	}

	if len(cfg.Brokers) > 0 {
		brokers = cfg.Brokers
	}
	if len(brokers) == 0 {
		return nil, nil, "", ErrNoBrokers
	}
	if topic == "" {
		return nil, nil, "", ErrNoEventHub
	}
	return kc, brokers, topic, nil
}

func newKafkaSink(producer sarama.SyncProducer, topic string, cfg config.EventHubConfig) *kafkaSink {
	s := &kafkaSink{
		producer: producer,
		topic:    topic,
	}
	if cfg.PartitionKey != "" {
		s.key = sarama.StringEncoder(cfg.PartitionKey)
	}
	for k, v := range cfg.Properties {
		s.headers = append(s.headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return s
}

// Send 同步发送并等待确认；ctx 到期时返回 ctx.Err()，发送协程自行结束
func (s *kafkaSink) Send(ctx context.Context, payload []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}

	msg := &sarama.ProducerMessage{
		Topic:   s.topic,
		Key:     s.key,
		Value:   sarama.ByteEncoder(payload),
		Headers: s.headers,
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := s.producer.SendMessage(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *kafkaSink) Close(context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.producer.Close()
}
