package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/iuboy/hublog/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SyncerFactory 根据输出配置创建同步器，事件型输出需实现 EventWriteSyncer
type SyncerFactory func(config.OutputConfig) (WriteSyncer, error)

// Options 是 NewLogger 的可选项
type Options struct {
	// OnSampled 在条目被采样丢弃时调用
	OnSampled DropFunc
}

// NewLogger 创建新日志器
func NewLogger(cfg config.LoggerConfig, factory SyncerFactory, opts Options) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	cores, err := buildCores(cfg, factory)
	if err != nil {
		return nil, err
	}

	// 应用采样
	coreTee := newSampler(zapcore.NewTee(cores...), cfg.Sampling, opts.OnSampled)

	encCfg := *cfg.Encoder.ApplyDefaults()
	zopts := []zap.Option{
		zap.AddStacktrace(encCfg.StackLevel.ZapLevel()),
	}
	if encCfg.EnableCaller {
		zopts = append(zopts, zap.AddCaller())
	}

	logger := zap.New(coreTee, zopts...)

	// 添加全局字段
	if cfg.ServiceName != "" {
		logger = logger.With(zap.String("service", cfg.ServiceName))
	}

	for k, v := range encCfg.CustomFields {
		logger = logger.With(zap.String(k, v))
	}

	return logger, nil
}

func buildCores(cfg config.LoggerConfig, factory SyncerFactory) ([]zapcore.Core, error) {
	var cores []zapcore.Core

	for _, out := range cfg.Outputs {
		if !out.Enabled {
			continue
		}

		// 创建同步器
		syncer, err := factory(out)
		if err != nil {
			return nil, fmt.Errorf("创建同步器失败: %w", err)
		}

		enabler := levelEnablerForOutput(cfg, out)

		if ev, ok := syncer.(EventWriteSyncer); ok {
			cores = append(cores, NewStructuredCore(enabler, ev))
			continue
		}
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Encoder, out.Encoding), syncer, enabler))
	}

	if len(cores) == 0 {
		return nil, errors.New("没有启用的日志输出")
	}

	return cores, nil
}

func newEncoder(encCfg config.EncoderConfig, encoding config.EncodingType) zapcore.Encoder {
	cfg := *encCfg.ApplyDefaults()
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     cfg.MessageKey,
		LevelKey:       cfg.LevelKey,
		TimeKey:        cfg.TimeKey,
		NameKey:        "logger",
		CallerKey:      cfg.CallerKey,
		StacktraceKey:  cfg.StacktraceKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     createTimeEncoder(cfg),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   createCallerEncoder(cfg),
	}

	if encoding == config.Console {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func createTimeEncoder(cfg config.EncoderConfig) zapcore.TimeEncoder {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(cfg.TimeFormat))
	}
}

func createCallerEncoder(cfg config.EncoderConfig) zapcore.CallerEncoder {
	if cfg.ShortCaller {
		return zapcore.ShortCallerEncoder
	}
	return zapcore.FullCallerEncoder
}

func levelEnablerForOutput(cfg config.LoggerConfig, out config.OutputConfig) zapcore.LevelEnabler {
	return zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= out.Level.ZapLevel() ||
			(cfg.DebugMode && lvl == zapcore.DebugLevel)
	})
}
