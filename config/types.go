package config

import "time"

const (
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultBatchSize     = 100
	DefaultBatchInterval = 5 * time.Second
	DefaultMaxOpenConns  = 10
	DefaultMaxIdleConns  = 5
	DefaultFileMaxSizeMB = 100
	DefaultMaxBackups    = 5
	DefaultMaxAgeDays    = 30
	DefaultTimeFormat    = time.RFC3339Nano
	DefaultSendTimeout   = 10 * time.Second
	DefaultFailureTable  = "delivery_failures"
)

// LogLevel 定义支持的日志级别
type LogLevel string

const (
	DebugLevel  LogLevel = "debug"
	InfoLevel   LogLevel = "info"
	WarnLevel   LogLevel = "warn"
	ErrorLevel  LogLevel = "error"
	DPanicLevel LogLevel = "dpanic"
	FatalLevel  LogLevel = "fatal"
	PanicLevel  LogLevel = "panic"
)

// OutputType 定义支持的输出类型
type OutputType string

const (
	Stdout   OutputType = "console"
	File     OutputType = "file"
	EventHub OutputType = "eventhub"
)

// TransportType 定义 Event Hubs 的传输方式
type TransportType string

const (
	// AMQP 使用 Event Hubs 原生协议
	AMQP TransportType = "amqp"
	// Kafka 使用 Event Hubs 的 Kafka 兼容端点
	Kafka TransportType = "kafka"
)

// OutputConfig 定义日志输出配置
type OutputConfig struct {
	Type     OutputType      `json:"type" validate:"required"`               // 输出类型
	Level    LogLevel        `json:"level" validate:"required"`              // 日志级别
	Encoding EncodingType    `json:"encoding" validate:"oneof=json console"` // 编码格式
	Enabled  bool            `json:"enabled"`                                // 是否启用
	File     *FileConfig     `json:"file" validate:"omitempty"`              // 文件配置
	EventHub *EventHubConfig `json:"eventHub" validate:"omitempty"`          // Event Hubs 配置

	// Metadata 用于测试等场景的元信息（不参与验证）
	Metadata map[string]string `json:"metadata,omitempty"` // 元信息
}

// FileConfig 定义文件日志配置
type FileConfig struct {
	Path            string `json:"path" validate:"required"` // 文件路径
	MaxSizeMB       int    `json:"maxSizeMB"`                // 最大文件大小(MB)
	MaxBackups      int    `json:"maxBackups"`               // 最大备份数
	MaxAgeDays      int    `json:"maxAgeDays"`               // 最大保存天数
	Compress        bool   `json:"compress"`                 // 是否压缩
	RotateOnStartup bool   `json:"rotateOnStartup"`          // 启动时轮转
	LocalTime       bool   `json:"localTime"`                // 是否使用本地时间
}

// IdentityConfig 是每条消息携带的应用身份，配置后不再变化
type IdentityConfig struct {
	Trigram     string `json:"applicationTrigram" validate:"required"` // 应用三字码
	Application string `json:"applicationName" validate:"required"`    // 应用名称
	Layer       string `json:"applicationLayer" validate:"required"`   // 架构层，如 API
}

// EventHubConfig 定义 Event Hubs 输出配置
//
// ConnectionString 和 Name 为空时不会导致初始化失败，输出会进入降级状态。
type EventHubConfig struct {
	ConnectionString string            `json:"connectionString"`                      // 命名空间连接串
	Name             string            `json:"name"`                                  // Event Hub 名称
	Transport        TransportType     `json:"transport" validate:"oneof=amqp kafka"` // 传输方式
	Brokers          []string          `json:"brokers"`                               // 仅 kafka：覆盖由连接串推导的 broker
	PartitionKey     string            `json:"partitionKey"`                          // 分区键，可选
	Properties       map[string]string `json:"properties"`                            // 附加的应用属性
	SendTimeout      time.Duration     `json:"sendTimeout"`                           // 单次发送超时
	TimeZone         string            `json:"timeZone"`                              // 日期字段时区，空为本地时区
	Identity         IdentityConfig    `json:"identity" validate:"required"`          // 应用身份
}

// DatabaseConfig 定义投递失败日志库配置
type DatabaseConfig struct {
	DriverName      string        `json:"driver" validate:"required"` // 驱动名称
	DataSourceName  string        `json:"dsn"`                        // 连接字符串
	TableName       string        `json:"tableName"`                  // 表名
	BatchSize       int           `json:"batchSize"`                  // 批量大小
	BatchInterval   time.Duration `json:"batchInterval"`              // 批量间隔
	MaxConnLifetime time.Duration `json:"maxConnLifeTime"`            // 连接生命周期
	MaxOpenConns    int           `json:"maxOpenConns"`               // 最大打开连接数
	MaxIdleConns    int           `json:"maxIdleConns"`               // 最大空闲连接数
	RetryDelay      time.Duration `json:"retryDelay"`                 // 重试间隔
	AutoMigrate     bool          `json:"autoMigrate"`                // 启动时建表
}

// FailureConfig 定义本地失败通道
type FailureConfig struct {
	// Journal 不为空时，失败记录会异步写入数据库
	Journal *DatabaseConfig `json:"journal" validate:"omitempty"`
}

// EncodingType 定义编码类型
type EncodingType string

const (
	JSON    EncodingType = "json"
	Console EncodingType = "console"
)

// EncoderConfig 定义日志编码器配置
type EncoderConfig struct {
	TimeFormat    string            `json:"timeFormat"`                        // 时间格式
	TimeZone      string            `json:"timeZone"`                          // 时区
	MessageKey    string            `json:"messageKey" validate:"required"`    // 消息键
	LevelKey      string            `json:"levelKey" validate:"required"`      // 级别键
	TimeKey       string            `json:"timeKey" validate:"required"`       // 时间键
	CallerKey     string            `json:"callerKey" validate:"required"`     // 调用者键
	StacktraceKey string            `json:"stacktraceKey" validate:"required"` // 堆栈跟踪键
	EnableCaller  bool              `json:"enableCaller"`                      // 启用调用者信息
	ShortCaller   bool              `json:"shortCaller"`                       // 简短调用路径
	StackLevel    LogLevel          `json:"stackLevel"`                        // 堆栈级别
	CustomFields  map[string]string `json:"customFields"`                      // 自定义字段
}

// SamplingConfig 定义日志采样配置
type SamplingConfig struct {
	Enabled    bool          `json:"enabled"`
	Initial    int           `json:"initial" validate:"min=1"`
	Thereafter int           `json:"thereafter" validate:"min=1"`
	Window     time.Duration `json:"window" validate:"min=1000000"`
}

// LoggerConfig 定义核心日志配置
type LoggerConfig struct {
	ServiceName string         `json:"serviceName" validate:"required"` // 服务名称
	DebugMode   bool           `json:"debugMode"`                       // 调试模式
	Outputs     []OutputConfig `json:"outputs" validate:"dive"`         // 输出配置
	Encoder     EncoderConfig  `json:"encoder" validate:"required"`     // 编码器配置
	Sampling    SamplingConfig `json:"sampling"`                        // 采样配置
	Failures    FailureConfig  `json:"failures"`                        // 失败通道配置
}
