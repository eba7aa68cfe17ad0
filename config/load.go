package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load 从 JSON/YAML/TOML 文件读取日志配置，键名与 json 标签一致（大小写不敏感）
//
// 注意：viper 会把 map 的键转成小写，properties 的键会以小写形式发送。
func Load(path string) (LoggerConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return LoggerConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (LoggerConfig, error) {
	var cfg LoggerConfig
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return LoggerConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
