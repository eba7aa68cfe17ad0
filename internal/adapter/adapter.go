package adapter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iuboy/hublog/config"
	"github.com/iuboy/hublog/core"
	"github.com/iuboy/hublog/internal/metrics"
	"github.com/iuboy/hublog/sink"
)

// Deps 是各输出共享的依赖
type Deps struct {
	Reporter core.FailureReporter
	Metrics  *metrics.Metrics
	// OpenSink 为空时使用 sink.Open
	OpenSink sink.Opener
}

// Factory 创建输出并记录它们，便于退出时统一关闭
type Factory struct {
	deps Deps

	mu      sync.Mutex
	created []core.WriteSyncer
}

func NewFactory(deps Deps) *Factory {
	if deps.Reporter == nil {
		deps.Reporter = core.NopReporter
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.OpenSink == nil {
		deps.OpenSink = sink.Open
	}
	return &Factory{deps: deps}
}

// CreateSyncer 根据输出配置创建同步器
func (f *Factory) CreateSyncer(out config.OutputConfig) (core.WriteSyncer, error) {
	ws, err := f.create(out)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.created = append(f.created, ws)
	f.mu.Unlock()
	return ws, nil
}

func (f *Factory) create(out config.OutputConfig) (core.WriteSyncer, error) {
	if !out.Enabled {
		return nil, fmt.Errorf("输出类型已被禁用: %s", out.Type)
	}

	switch out.Type {
	case config.Stdout:
		return newStdoutAdapter()
	case config.File:
		if out.File == nil {
			return nil, errors.New("文件配置缺失")
		}
		return newFileAdapter(*out.File)
	case config.EventHub:
		if out.EventHub == nil {
			return nil, errors.New("eventhub 配置缺失")
		}
		return newEventHubAdapter(outputName(out), *out.EventHub, f.deps), nil
	default:
		return nil, fmt.Errorf("不支持的输出类型: %s", out.Type)
	}
}

// Close 关闭所有已创建的输出，返回遇到的全部错误
func (f *Factory) Close() error {
	f.mu.Lock()
	created := f.created
	f.created = nil
	f.mu.Unlock()

	var errs []error
	for _, ws := range created {
		if err := ws.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// outputName 用于指标标签和失败记录，可通过 metadata.name 覆盖
func outputName(out config.OutputConfig) string {
	if name := out.Metadata["name"]; name != "" {
		return name
	}
	if out.EventHub != nil && out.EventHub.Name != "" {
		return string(out.Type) + ":" + out.EventHub.Name
	}
	return string(out.Type)
}
