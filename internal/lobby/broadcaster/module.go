package broadcaster

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
)

// Module 返回 Fx 模块
var Module = fx.Module("lobby/broadcaster",
	fx.Provide(ProvideBroadcaster),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In
	UnifiedCfg *config.Config     `optional:"true"`
	Metrics    *metrics.Collector `optional:"true"`
}

// ConfigFromUnified 从统一配置创建广播器配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		Port:             cfg.Discovery.Port,
		BroadcastAddress: cfg.Discovery.BroadcastAddress,
		Interval:         cfg.Discovery.BroadcastInterval.Duration(),
		StopTimeout:      cfg.Discovery.StopTimeout.Duration(),
	}
}

// ProvideBroadcaster 提供广播器
func ProvideBroadcaster(input ModuleInput) (*Broadcaster, error) {
	return New(ConfigFromUnified(input.UnifiedCfg), WithMetrics(input.Metrics))
}

func registerLifecycle(lc fx.Lifecycle, b *Broadcaster) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return b.Stop()
		},
	})
}
