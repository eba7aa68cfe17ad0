package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env 是宿主从环境变量读取的 Event Hubs 连接信息
//
// 只在宿主装配层读取一次，核心组件不直接访问环境变量。
type Env struct {
	ConnectionString string `envconfig:"EH_CONNECTION_STRING"`
	Name             string `envconfig:"EH_NAME"`
	Transport        string `envconfig:"EH_TRANSPORT_TYPE"`
	PartitionKey     string `envconfig:"EH_PARTITION_KEY"`
}

// FromEnv 读取 EH_* 环境变量
func FromEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("load eventhub env: %w", err)
	}
	return env, nil
}

// ApplyTo 只填充配置中为空的字段，显式配置优先
func (e Env) ApplyTo(ec *EventHubConfig) {
	if ec == nil {
		return
	}
	if ec.ConnectionString == "" {
		ec.ConnectionString = e.ConnectionString
	}
	if ec.Name == "" {
		ec.Name = e.Name
	}
	if ec.Transport == "" && e.Transport != "" {
		ec.Transport = TransportType(e.Transport)
	}
	if ec.PartitionKey == "" {
		ec.PartitionKey = e.PartitionKey
	}
}

// ApplyToOutputs 对所有 eventhub 输出应用环境变量
func (e Env) ApplyToOutputs(lc *LoggerConfig) {
	for i := range lc.Outputs {
		if lc.Outputs[i].Type == EventHub {
			e.ApplyTo(lc.Outputs[i].EventHub)
		}
	}
}
