package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/config"
)

// Module 返回 Fx 模块
var Module = fx.Module("lobby/metrics",
	fx.Provide(ProvideCollector),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In
	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// ProvideCollector 提供指标收集器
//
// 未启用指标时返回 nil，下游组件把 nil 当作空实现。
func ProvideCollector(input ModuleInput) (*Collector, error) {
	if input.UnifiedCfg == nil || !input.UnifiedCfg.Metrics.Enabled {
		return nil, nil
	}
	reg := input.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return NewCollector(reg)
}
