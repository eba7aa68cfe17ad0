package core

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	// ErrConfiguration 无法建立 sink 连接
	ErrConfiguration = errors.New("configuration error")
	// ErrSerialization 事件无法转换为消息
	ErrSerialization = errors.New("serialization error")
	// ErrDelivery 发送失败或超时
	ErrDelivery = errors.New("delivery error")
)

// FailureKind 失败类型
type FailureKind string

const (
	ConfigurationFailure FailureKind = "configuration"
	SerializationFailure FailureKind = "serialization"
	DeliveryFailure      FailureKind = "delivery"
)

func (k FailureKind) sentinel() error {
	switch k {
	case ConfigurationFailure:
		return ErrConfiguration
	case SerializationFailure:
		return ErrSerialization
	default:
		return ErrDelivery
	}
}

// Failure 是本地失败通道中的一条记录
type Failure struct {
	ID      ulid.ULID
	Kind    FailureKind
	Output  string // 产生失败的输出名称
	Time    time.Time
	Cause   error
	Payload []byte // 未送达的消息，可能为空
}

// NewFailure 创建带单调 ULID 的失败记录
func NewFailure(kind FailureKind, output string, cause error) Failure {
	now := time.Now()
	return Failure{
		ID:     nextID(now),
		Kind:   kind,
		Output: output,
		Time:   now,
		Cause:  cause,
	}
}

func (f Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("%s failure on %s", f.Kind, f.Output)
	}
	return fmt.Sprintf("%s failure on %s: %v", f.Kind, f.Output, f.Cause)
}

func (f Failure) Unwrap() error { return f.Cause }

// Is 让 errors.Is(f, ErrDelivery) 等按类型匹配
func (f Failure) Is(target error) bool {
	return target == f.Kind.sentinel()
}

// FailureReporter 接收失败记录，实现不能回写到产生失败的输出
type FailureReporter interface {
	Report(f Failure)
}

// ReporterFunc 适配函数为 FailureReporter
type ReporterFunc func(f Failure)

func (fn ReporterFunc) Report(f Failure) { fn(f) }

// MultiReporter 依次分发给所有 reporter
type MultiReporter []FailureReporter

func (m MultiReporter) Report(f Failure) {
	for _, r := range m {
		if r != nil {
			r.Report(f)
		}
	}
}

// NopReporter 丢弃所有失败记录
var NopReporter FailureReporter = ReporterFunc(func(Failure) {})

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func nextID(t time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy)
}
