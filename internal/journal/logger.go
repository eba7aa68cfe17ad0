// Package journal 是本地失败通道：诊断日志与可选的数据库失败日志。
// 这里的输出永远不会经过 Event Hubs 输出本身，避免递归。
package journal

import (
	"github.com/iuboy/hublog/core"
	"go.uber.org/zap"
)

// NewDiagnosticLogger 返回一个只写 stderr 的独立日志器
func NewDiagnosticLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("hublog")
}

// LogReporter 以 ERROR 级别记录每一条失败
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(f core.Failure) {
	r.logger.Error("log output failure",
		zap.String("id", f.ID.String()),
		zap.String("kind", string(f.Kind)),
		zap.String("output", f.Output),
		zap.Time("occurred_at", f.Time),
		zap.Int("payload_bytes", len(f.Payload)),
		zap.Error(f.Cause),
	)
}
