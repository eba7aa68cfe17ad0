package config

import (
	"maps"
	"slices"
)

// Clone 返回深拷贝，Validate 和环境变量只修改副本
func (lc LoggerConfig) Clone() LoggerConfig {
	out := lc
	out.Encoder.CustomFields = maps.Clone(lc.Encoder.CustomFields)
	if lc.Failures.Journal != nil {
		j := *lc.Failures.Journal
		out.Failures.Journal = &j
	}
	if lc.Outputs == nil {
		return out
	}

	out.Outputs = make([]OutputConfig, len(lc.Outputs))
	for i, oc := range lc.Outputs {
		oc.Metadata = maps.Clone(oc.Metadata)
		if oc.File != nil {
			f := *oc.File
			oc.File = &f
		}
		if oc.EventHub != nil {
			ec := *oc.EventHub
			ec.Brokers = slices.Clone(ec.Brokers)
			ec.Properties = maps.Clone(ec.Properties)
			oc.EventHub = &ec
		}
		out.Outputs[i] = oc
	}
	return out
}
