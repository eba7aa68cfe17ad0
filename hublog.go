// Package hublog 是一个把应用日志以结构化 JSON 投递到 Azure Event Hubs 的日志库。
//
// 每条日志被格式化为包含 trigram、application、layer、level、date、message
// 六个字段的 JSON 对象，并在调用方的 goroutine 中同步发送。发送失败不会
// 影响应用，而是通过本地失败通道（stderr 诊断日志、Prometheus 指标和可选的
// 数据库失败日志）报告。
//
// 示例：
//
//	err := hublog.Init(hublog.LoggerConfig{
//	    ServiceName: "my-service",
//	    Outputs: []hublog.OutputConfig{{
//	        Type: hublog.EventHub, Level: hublog.InfoLevel, Enabled: true,
//	        EventHub: &hublog.EventHubConfig{
//	            Identity: hublog.IdentityConfig{Trigram: "ABC", Application: "Demo", Layer: "API"},
//	        },
//	    }},
//	}, hublog.WithEnv())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer hublog.Close()
//	hublog.Info("service started")
package hublog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/iuboy/hublog/config"
	"github.com/iuboy/hublog/core"
	"github.com/iuboy/hublog/internal/adapter"
	"github.com/iuboy/hublog/internal/journal"
	"github.com/iuboy/hublog/internal/metrics"
	"github.com/iuboy/hublog/sink"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type LoggerConfig = config.LoggerConfig
type EncoderConfig = config.EncoderConfig
type SamplingConfig = config.SamplingConfig
type OutputConfig = config.OutputConfig
type FileConfig = config.FileConfig
type EventHubConfig = config.EventHubConfig
type IdentityConfig = config.IdentityConfig
type DatabaseConfig = config.DatabaseConfig
type FailureConfig = config.FailureConfig

type LogLevel = config.LogLevel
type OutputType = config.OutputType
type EncodingType = config.EncodingType
type TransportType = config.TransportType

const (
	DebugLevel  = config.DebugLevel
	InfoLevel   = config.InfoLevel
	WarnLevel   = config.WarnLevel
	ErrorLevel  = config.ErrorLevel
	PanicLevel  = config.PanicLevel
	FatalLevel  = config.FatalLevel
	DPanicLevel = config.DPanicLevel

	JSON     = config.JSON
	Console  = config.Console
	Stdout   = config.Stdout
	File     = config.File
	EventHub = config.EventHub

	AMQP  = config.AMQP
	Kafka = config.Kafka
)

// Failure 与错误类型从 core 导出，便于调用方用 errors.Is 判断
type Failure = core.Failure

var (
	ErrConfiguration = core.ErrConfiguration
	ErrSerialization = core.ErrSerialization
	ErrDelivery      = core.ErrDelivery
)

// runtime 是一次 Init 创建的全部资源
type runtime struct {
	logger  *zap.Logger
	factory *adapter.Factory
	journal *journal.Store
}

var (
	globalLogger atomic.Pointer[zap.Logger]

	// 保护 current，Init/Close 串行执行
	lifecycleMu sync.Mutex
	current     *runtime
)

type options struct {
	registerer prometheus.Registerer
	diagnostic *zap.Logger
	openSink   sink.Opener
	reporters  []core.FailureReporter
	useEnv     bool
}

// Option 配置 Init
type Option func(*options)

// WithRegisterer 指定 Prometheus 注册表，默认使用 prometheus.DefaultRegisterer
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithDiagnosticLogger 替换写 stderr 的诊断日志器
func WithDiagnosticLogger(l *zap.Logger) Option {
	return func(o *options) { o.diagnostic = l }
}

// WithSinkOpener 替换 Event Hubs 连接的建立方式（测试用）
func WithSinkOpener(open sink.Opener) Option {
	return func(o *options) { o.openSink = open }
}

// WithFailureReporter 追加一个失败接收者
func WithFailureReporter(r core.FailureReporter) Option {
	return func(o *options) { o.reporters = append(o.reporters, r) }
}

// WithEnv 用 EH_* 环境变量补全 eventhub 输出中为空的字段
func WithEnv() Option {
	return func(o *options) { o.useEnv = true }
}

// Init 初始化日志系统
//
// 配置错误直接返回；Event Hubs 连接失败不会返回错误，对应输出进入降级状态。
// 重复调用会关闭上一次创建的资源。cfg 会被复制，调用方的配置保持不变。
func Init(cfg config.LoggerConfig, opts ...Option) error {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.Clone()

	if o.useEnv {
		env, err := config.FromEnv()
		if err != nil {
			return err
		}
		env.ApplyToOutputs(&cfg)
	}

	diag := o.diagnostic
	if diag == nil {
		diag = journal.NewDiagnosticLogger()
	}
	m := metrics.New(o.registerer)

	reporters := core.MultiReporter{journal.NewLogReporter(diag), m}
	reporters = append(reporters, o.reporters...)

	var store *journal.Store
	if cfg.Failures.Journal != nil {
		var err error
		store, err = journal.Open(*cfg.Failures.Journal)
		if err != nil {
			return fmt.Errorf("失败日志初始化失败: %w", err)
		}
		reporters = append(reporters, store)
	}

	factory := adapter.NewFactory(adapter.Deps{
		Reporter: reporters,
		Metrics:  m,
		OpenSink: o.openSink,
	})

	logger, err := core.NewLogger(cfg, factory.CreateSyncer, core.Options{OnSampled: m.Sampled})
	if err != nil {
		_ = factory.Close()
		if store != nil {
			_ = store.Close()
		}
		return err
	}

	lifecycleMu.Lock()
	prev := current
	current = &runtime{logger: logger, factory: factory, journal: store}
	SetLogger(logger)
	lifecycleMu.Unlock()

	if prev != nil {
		_ = prev.close()
	}
	return nil
}

func (r *runtime) close() error {
	var errs []error
	// 同步输出总是成功，stdout 等不支持 fsync 的错误忽略
	_ = r.logger.Sync()
	if err := r.factory.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 刷新并关闭所有输出和失败日志，之后的日志写入回退日志器
func Close() error {
	lifecycleMu.Lock()
	prev := current
	current = nil
	globalLogger.Store(nil)
	lifecycleMu.Unlock()

	if prev == nil {
		return nil
	}
	return prev.close()
}

func SetLogger(logger *zap.Logger) {
	globalLogger.Store(logger)
	zap.ReplaceGlobals(logger)
}

// Logger 获取日志器实例
func Logger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	return fallbackLogger()
}

// ContextExtractor 用于从 context 中提取日志字段
type ContextExtractor func(ctx context.Context) []zap.Field

var (
	contextExtractor ContextExtractor
	extractorMu      sync.RWMutex
)

// SetContextExtractor 设置上下文提取函数
//
// 注意：eventhub 输出只发送消息本身，提取的字段只出现在 console 和 file 输出中。
func SetContextExtractor(extractor ContextExtractor) {
	extractorMu.Lock()
	defer extractorMu.Unlock()
	contextExtractor = extractor
}

// WithContext 返回一个绑定了上下文字段的日志器
func WithContext(ctx context.Context) *zap.Logger {
	logger := Logger()
	if ctx == nil {
		return logger
	}

	extractorMu.RLock()
	fn := contextExtractor
	extractorMu.RUnlock()
	if fn == nil {
		return logger
	}
	if fields := fn(ctx); len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return logger
}

func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Logger().Fatal(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { Logger().Panic(msg, fields...) }

func Debugf(template string, args ...interface{}) { Logger().Sugar().Debugf(template, args...) }
func Infof(template string, args ...interface{})  { Logger().Sugar().Infof(template, args...) }
func Warnf(template string, args ...interface{})  { Logger().Sugar().Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { Logger().Sugar().Errorf(template, args...) }
func Fatalf(template string, args ...interface{}) { Logger().Sugar().Fatalf(template, args...) }
func Panicf(template string, args ...interface{}) { Logger().Sugar().Panicf(template, args...) }

// Sugar 获取底层的 SugaredLogger
func Sugar() *zap.SugaredLogger { return Logger().Sugar() }

// Sync 刷新所有输出缓冲，eventhub 输出是同步发送的，无需刷新
func Sync() error {
	if logger := globalLogger.Load(); logger != nil {
		return logger.Sync()
	}
	return nil
}

// fallbackLogger 在未初始化或已关闭时使用
func fallbackLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	c, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return c
}
