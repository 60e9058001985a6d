package scanner

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/dispatcher"
	"github.com/dep2p/go-lobby/internal/lobby/metrics"
)

// Module 返回 Fx 模块
var Module = fx.Module("lobby/scanner",
	fx.Provide(ProvideScanner),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In
	Dispatcher *dispatcher.Dispatcher
	UnifiedCfg *config.Config     `optional:"true"`
	Metrics    *metrics.Collector `optional:"true"`
}

// ConfigFromUnified 从统一配置创建扫描器配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	c := DefaultConfig()
	c.Port = cfg.Discovery.Port
	c.Timeout = cfg.Discovery.ScanTimeout.Duration()
	c.StopTimeout = cfg.Discovery.StopTimeout.Duration()
	return c
}

// ProvideScanner 提供扫描器
func ProvideScanner(input ModuleInput) (*Scanner, error) {
	return New(ConfigFromUnified(input.UnifiedCfg), input.Dispatcher, WithMetrics(input.Metrics))
}

func registerLifecycle(lc fx.Lifecycle, s *Scanner) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Stop()
		},
	})
}
