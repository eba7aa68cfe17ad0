package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

func (l LogLevel) Valid() bool {
	for _, level := range []LogLevel{DebugLevel, InfoLevel, WarnLevel, ErrorLevel, DPanicLevel, FatalLevel, PanicLevel} {
		if l == level {
			return true
		}
	}
	return false
}

func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case DPanicLevel:
		return zapcore.DPanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	case PanicLevel:
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func (t OutputType) Valid() bool {
	switch t {
	case Stdout, File, EventHub:
		return true
	default:
		return false
	}
}

func (t TransportType) Valid() bool {
	switch t {
	case AMQP, Kafka:
		return true
	default:
		return false
	}
}

// Validate 验证输出配置
func (oc *OutputConfig) Validate() error {
	if !oc.Type.Valid() {
		return fmt.Errorf("invalid output type: %s", oc.Type)
	}
	if !oc.Level.Valid() {
		return fmt.Errorf("invalid log level: %s", oc.Level)
	}

	switch oc.Type {
	case File:
		if oc.File == nil {
			return errors.New("file output requires file configuration")
		}
		return oc.File.Validate()
	case EventHub:
		if oc.EventHub == nil {
			return errors.New("eventhub output requires eventHub configuration")
		}
		return oc.EventHub.Validate()
	}
	return nil
}

// Validate 验证文件配置
func (fc *FileConfig) Validate() error {
	if fc.Path == "" {
		return errors.New("file path is required")
	}
	if !filepath.IsAbs(fc.Path) {
		return fmt.Errorf("file path must be an absolute path: %s", fc.Path)
	}
	if fc.MaxSizeMB == 0 {
		fc.MaxSizeMB = DefaultFileMaxSizeMB
	}
	if fc.MaxBackups == 0 {
		fc.MaxBackups = DefaultMaxBackups
	}
	if fc.MaxAgeDays == 0 {
		fc.MaxAgeDays = DefaultMaxAgeDays
	}
	return nil
}

// Validate 验证应用身份，三个字段都必须存在
func (ic *IdentityConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(ic.Trigram) == "" {
		missing = append(missing, "applicationTrigram")
	}
	if strings.TrimSpace(ic.Application) == "" {
		missing = append(missing, "applicationName")
	}
	if strings.TrimSpace(ic.Layer) == "" {
		missing = append(missing, "applicationLayer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("identity is incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate 验证 Event Hubs 配置
//
// 连接串与名称在这里不校验：建立连接失败时输出降级而不是让宿主初始化失败。
func (ec *EventHubConfig) Validate() error {
	if ec.Transport == "" {
		ec.Transport = AMQP
	}
	if !ec.Transport.Valid() {
		return fmt.Errorf("invalid eventhub transport: %s, must be amqp or kafka", ec.Transport)
	}
	if ec.SendTimeout < 0 {
		return fmt.Errorf("invalid send timeout: %s", ec.SendTimeout)
	}
	if ec.SendTimeout == 0 {
		ec.SendTimeout = DefaultSendTimeout
	}
	if ec.TimeZone != "" {
		if _, err := time.LoadLocation(ec.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone: %s", ec.TimeZone)
		}
	}
	if err := ec.Identity.Validate(); err != nil {
		return fmt.Errorf("eventhub %w", err)
	}
	return nil
}

// Location 返回日期字段使用的时区，未配置时为进程本地时区
func (ec *EventHubConfig) Location() *time.Location {
	if ec.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(ec.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate 验证数据库配置
func (dc *DatabaseConfig) Validate() error {
	if dc.BatchSize == 0 {
		dc.BatchSize = DefaultBatchSize
	}
	if dc.BatchInterval == 0 {
		dc.BatchInterval = DefaultBatchInterval
	}
	if dc.MaxOpenConns == 0 {
		dc.MaxOpenConns = DefaultMaxOpenConns
	}
	if dc.MaxIdleConns == 0 {
		dc.MaxIdleConns = DefaultMaxIdleConns
	}
	if dc.RetryDelay == 0 {
		dc.RetryDelay = DefaultRetryDelay
	}
	if dc.TableName == "" {
		dc.TableName = DefaultFailureTable
	}

	switch dc.DriverName {
	case "mysql", "postgres", "sqlite":
		if dc.DataSourceName == "" {
			return errors.New("data source name is required for SQL databases")
		}
	default:
		return fmt.Errorf("unsupported driver: %s", dc.DriverName)
	}
	return nil
}

// Validate 验证失败通道配置
func (fc *FailureConfig) Validate() error {
	if fc.Journal == nil {
		return nil
	}
	if err := fc.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// ApplyDefaults 设置编码器默认值
func (ec *EncoderConfig) ApplyDefaults() *EncoderConfig {
	if ec.TimeFormat == "" {
		ec.TimeFormat = DefaultTimeFormat
	}
	if ec.TimeZone == "" {
		ec.TimeZone = "UTC"
	}
	if ec.MessageKey == "" {
		ec.MessageKey = "msg"
	}
	if ec.LevelKey == "" {
		ec.LevelKey = "level"
	}
	if ec.TimeKey == "" {
		ec.TimeKey = "time"
	}
	if ec.CallerKey == "" {
		ec.CallerKey = "caller"
	}
	if ec.StacktraceKey == "" {
		ec.StacktraceKey = "stacktrace"
	}
	if ec.StackLevel == "" {
		ec.StackLevel = ErrorLevel
	}
	return ec
}

// Validate 验证采样配置
func (sc *SamplingConfig) Validate() error {
	if !sc.Enabled {
		return nil
	}
	if sc.Initial <= 0 || sc.Thereafter <= 0 || sc.Window <= 0 {
		return errors.New("sampling requires positive initial, thereafter and window values")
	}
	return nil
}

// Validate 验证日志配置
func (lc *LoggerConfig) Validate() error {
	for i := range lc.Outputs {
		if err := lc.Outputs[i].Validate(); err != nil {
			return fmt.Errorf("output %d validation failed: %w", i, err)
		}
	}
	if err := lc.Sampling.Validate(); err != nil {
		return fmt.Errorf("sampling config validation failed: %w", err)
	}
	if err := lc.Failures.Validate(); err != nil {
		return fmt.Errorf("failures config validation failed: %w", err)
	}
	return nil
}
